package codec

import (
    "encoding/json"
)

// jsonCodec carries package bodies as plain JSON. It is the format the
// frame generator and most debugging tools can read without a schema.
type jsonCodec struct{}

// JSON returns the JSON body codec, marked FormatJSON on the wire.
func JSON() Codec { return jsonCodec{} }

func (jsonCodec) Format() Format { return FormatJSON }
func (jsonCodec) ContentType() string { return "application/json" }
func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
