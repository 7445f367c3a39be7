package wire

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype clients must request with
// grpc.CallContentSubtype to use this codec.
const CodecName = "marketsim"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec frames Message values for gRPC transport.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("wire: cannot marshal %T", v)
	}
	return m.MarshalWire()
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("wire: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string { return CodecName }
