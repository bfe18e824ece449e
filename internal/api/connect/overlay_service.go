package connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/deathscreen/internal/app/overlay"
	"github.com/osa030/deathscreen/internal/app/router"
	"github.com/osa030/deathscreen/internal/domain/message"
)

const (
	// OverlayServiceName is the fully-qualified name of the overlay service.
	OverlayServiceName = "deathscreen.v1.OverlayService"

	DispatchProcedure = "/" + OverlayServiceName + "/Dispatch"
	ActProcedure      = "/" + OverlayServiceName + "/Act"
	WatchProcedure    = "/" + OverlayServiceName + "/Watch"
)

// Dispatcher applies host messages and user actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg message.Message) error
	Act(ctx context.Context, action message.UserAction) error
}

// FrameSource provides rendered frames to watchers.
type FrameSource interface {
	Subscribe() (string, <-chan overlay.Frame)
	Unsubscribe(subscriptionID string)
	Latest() (overlay.Frame, bool)
}

// OverlayService implements the OverlayService RPC.
type OverlayService struct {
	dispatcher Dispatcher
	frames     FrameSource
}

// NewOverlayService creates a new OverlayService.
func NewOverlayService(dispatcher Dispatcher, frames FrameSource) *OverlayService {
	return &OverlayService{
		dispatcher: dispatcher,
		frames:     frames,
	}
}

// NewOverlayServiceHandler builds an HTTP handler for the service procedures.
// It returns the path on which to mount the handler and the handler itself.
func NewOverlayServiceHandler(svc *OverlayService, opts ...connect.HandlerOption) (string, http.Handler) {
	dispatch := connect.NewUnaryHandler(DispatchProcedure, svc.Dispatch, opts...)
	act := connect.NewUnaryHandler(ActProcedure, svc.Act, opts...)
	watch := connect.NewServerStreamHandler(WatchProcedure, svc.Watch, opts...)

	return "/" + OverlayServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DispatchProcedure:
			dispatch.ServeHTTP(w, r)
		case ActProcedure:
			act.ServeHTTP(w, r)
		case WatchProcedure:
			watch.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Dispatch handles an inbound host message.
func (s *OverlayService) Dispatch(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[emptypb.Empty], error) {
	msg, err := message.Parse(req.Msg.AsMap())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := s.apply(ctx, msg); err != nil {
		return nil, connect.NewError(contextCode(err), err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Act handles a user action such as {"action": "sendSignal"}.
func (s *OverlayService) Act(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[emptypb.Empty], error) {
	action := req.Msg.GetFields()["action"].GetStringValue()
	if action == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, message.ErrMissingAction)
	}

	if err := s.dispatcher.Act(ctx, message.UserAction(action)); err != nil {
		if errors.Is(err, router.ErrUnknownAction) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(contextCode(err), err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Watch streams every rendered frame, starting with the latest one.
func (s *OverlayService) Watch(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	subscriptionID, frames := s.frames.Subscribe()
	defer s.frames.Unsubscribe(subscriptionID)

	zlog.Debug().Msgf("connect: watch started: subscription_id=%s", subscriptionID)
	defer func() {
		zlog.Debug().Msgf("connect: watch ended: subscription_id=%s", subscriptionID)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			st, err := FrameToStruct(frame)
			if err != nil {
				return connect.NewError(connect.CodeInternal, err)
			}
			if err := stream.Send(st); err != nil {
				return err
			}
		}
	}
}

// apply dispatches a parsed message. Unknown actions and malformed payloads
// are logged and swallowed; only context errors are returned.
func (s *OverlayService) apply(ctx context.Context, msg message.Message) error {
	err := s.dispatcher.Dispatch(ctx, msg)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	zlog.Debug().Err(err).Msgf("connect: message dropped: action=%s", msg.Action)
	return nil
}

func contextCode(err error) connect.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	default:
		return connect.CodeInternal
	}
}

// OverlayServiceClient is a client for the OverlayService.
type OverlayServiceClient struct {
	dispatch *connect.Client[structpb.Struct, emptypb.Empty]
	act      *connect.Client[structpb.Struct, emptypb.Empty]
	watch    *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewOverlayServiceClient creates a client for the service at baseURL.
func NewOverlayServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *OverlayServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &OverlayServiceClient{
		dispatch: connect.NewClient[structpb.Struct, emptypb.Empty](httpClient, baseURL+DispatchProcedure, opts...),
		act:      connect.NewClient[structpb.Struct, emptypb.Empty](httpClient, baseURL+ActProcedure, opts...),
		watch:    connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+WatchProcedure, opts...),
	}
}

// Dispatch sends a host message.
func (c *OverlayServiceClient) Dispatch(ctx context.Context, msg message.Message) error {
	st, err := structpb.NewStruct(msg.Map())
	if err != nil {
		return errors.Wrap(err, "failed to encode message")
	}
	_, err = c.dispatch.CallUnary(ctx, connect.NewRequest(st))
	return err
}

// Act sends a user action.
func (c *OverlayServiceClient) Act(ctx context.Context, action message.UserAction) error {
	st, err := structpb.NewStruct(map[string]any{"action": string(action)})
	if err != nil {
		return errors.Wrap(err, "failed to encode action")
	}
	_, err = c.act.CallUnary(ctx, connect.NewRequest(st))
	return err
}

// Watch calls fn for every frame until the stream ends or ctx is done.
func (c *OverlayServiceClient) Watch(ctx context.Context, fn func(overlay.Frame)) error {
	stream, err := c.watch.CallServerStream(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		frame, err := StructToFrame(stream.Msg())
		if err != nil {
			return err
		}
		fn(frame)
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
