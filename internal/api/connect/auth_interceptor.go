// Package connect provides the Connect RPC and JSON transport of the overlay.
package connect

import (
	"context"
	"crypto/subtle"
	"net/http"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

const (
	// HostTokenHeader is the header name for the host authentication token.
	HostTokenHeader = "X-Host-Token"
)

var errInvalidToken = errors.New("invalid host token")

// HostAuthInterceptor validates the host token on unary and streaming
// procedures. An empty token disables the check.
type HostAuthInterceptor struct {
	token string
}

// NewHostAuthInterceptor creates an interceptor for the given token.
func NewHostAuthInterceptor(token string) *HostAuthInterceptor {
	return &HostAuthInterceptor{token: token}
}

var _ connect.Interceptor = (*HostAuthInterceptor)(nil)

// WrapUnary implements connect.Interceptor.
func (i *HostAuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		if !i.valid(req.Header().Get(HostTokenHeader)) {
			return nil, connect.NewError(connect.CodeUnauthenticated, errInvalidToken)
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *HostAuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *HostAuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if !i.valid(conn.RequestHeader().Get(HostTokenHeader)) {
			return connect.NewError(connect.CodeUnauthenticated, errInvalidToken)
		}
		return next(ctx, conn)
	}
}

// Middleware applies the same check to plain HTTP handlers.
func (i *HostAuthInterceptor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.valid(r.Header.Get(HostTokenHeader)) {
			http.Error(w, errInvalidToken.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (i *HostAuthInterceptor) valid(token string) bool {
	if i.token == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(i.token)) == 1
}

// HostTokenClientInterceptor attaches the host token to outgoing requests.
type HostTokenClientInterceptor struct {
	token string
}

// NewHostTokenClientInterceptor creates a client interceptor for the token.
func NewHostTokenClientInterceptor(token string) *HostTokenClientInterceptor {
	return &HostTokenClientInterceptor{token: token}
}

var _ connect.Interceptor = (*HostTokenClientInterceptor)(nil)

// WrapUnary implements connect.Interceptor.
func (i *HostTokenClientInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient && i.token != "" {
			req.Header().Set(HostTokenHeader, i.token)
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *HostTokenClientInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if i.token != "" {
			conn.RequestHeader().Set(HostTokenHeader, i.token)
		}
		return conn
	}
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *HostTokenClientInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
