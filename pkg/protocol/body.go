package protocol

import (
    "fmt"

    "yoton/pkg/protocol/codec"
)

// Format marks the encoding of a typed body; it is the first payload byte.
type Format = codec.Format

const (
    FormatUnknown = codec.FormatUnknown
    FormatJSON    = codec.FormatJSON
    FormatCBOR    = codec.FormatCBOR
    FormatProto   = codec.FormatProto
)

var defaultRegistry = codec.NewRegistry()

// CodecFor returns the codec for f from r, falling back to the built-ins.
func CodecFor(r *codec.Registry, f Format) (codec.Codec, error) {
    if r != nil {
        if c := r.Get(f); c != nil { return c, nil }
    }
    if c := defaultRegistry.Get(f); c != nil { return c, nil }
    return nil, fmt.Errorf("unknown format: %d", f)
}

// EncodeBody serializes v using the codec for f and prefixes the payload
// with a single format byte.
func EncodeBody(r *codec.Registry, f Format, v any) ([]byte, error) {
    c, err := CodecFor(r, f)
    if err != nil { return nil, err }
    b, err := c.Marshal(v)
    if err != nil { return nil, err }
    out := make([]byte, 1+len(b))
    out[0] = byte(f)
    copy(out[1:], b)
    return out, nil
}

// DecodeBody decodes a payload produced by EncodeBody into v.
func DecodeBody(r *codec.Registry, payload []byte, v any) (Format, error) {
    if len(payload) == 0 { return FormatUnknown, fmt.Errorf("empty payload") }
    f := Format(payload[0])
    c, err := CodecFor(r, f)
    if err != nil { return f, err }
    if err := c.Unmarshal(payload[1:], v); err != nil { return f, err }
    return f, nil
}
