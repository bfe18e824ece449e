package connect

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/deathscreen/internal/app/overlay"
)

// FrameToStruct converts a frame to its wire form, keyed by JSON field name.
func FrameToStruct(frame overlay.Frame) (*structpb.Struct, error) {
	fields, err := frameFields(frame)
	if err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frame")
	}
	return st, nil
}

// StructToFrame converts a wire frame back to an overlay.Frame.
func StructToFrame(st *structpb.Struct) (overlay.Frame, error) {
	var frame overlay.Frame
	data, err := json.Marshal(st.AsMap())
	if err != nil {
		return frame, errors.Wrap(err, "failed to encode frame")
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return frame, errors.Wrap(err, "failed to decode frame")
	}
	return frame, nil
}

func frameFields(frame overlay.Frame) (map[string]any, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frame")
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(err, "failed to encode frame")
	}
	return fields, nil
}
