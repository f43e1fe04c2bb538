package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ContentSubtype selects jsonCodec on a call, e.g.
// grpc.CallContentSubtype(ContentSubtype).
const ContentSubtype = "json"

// jsonCodec carries plain Go structs as JSON. Protobuf messages, such as
// the Empty payload of the no-argument RPCs, go through protojson.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return ContentSubtype }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
