package codec

import (
    "fmt"

    "google.golang.org/protobuf/proto"
)

// protoCodec carries bodies that are proto.Message values, such as the
// structpb payloads built by yoton-genframe. Bodies of any other Go type
// are rejected rather than reflected.
type protoCodec struct {
    mo proto.MarshalOptions
    uo proto.UnmarshalOptions
}

// Proto returns the body codec marked FormatProto on the wire. Marshaling is
// deterministic so equal messages give equal package bodies; fields a newer
// sender added are dropped on decode.
func Proto() Codec {
    return protoCodec{
        mo: proto.MarshalOptions{Deterministic: true},
        uo: proto.UnmarshalOptions{DiscardUnknown: true},
    }
}

func (p protoCodec) Format() Format { return FormatProto }
func (p protoCodec) ContentType() string { return "application/x-protobuf" }

func (p protoCodec) Marshal(v any) ([]byte, error) {
    msg, ok := v.(proto.Message)
    if !ok {
        return nil, fmt.Errorf("protobuf: value does not implement proto.Message: %T", v)
    }
    return p.mo.Marshal(msg)
}

func (p protoCodec) Unmarshal(data []byte, v any) error {
    msg, ok := v.(proto.Message)
    if !ok {
        return fmt.Errorf("protobuf: target does not implement proto.Message: %T", v)
    }
    return p.uo.Unmarshal(data, msg)
}
