package codec

// Format is the one-byte payload encoding marker placed in front of typed
// package bodies.
type Format uint8

const (
    FormatUnknown Format = iota
    FormatJSON
    FormatCBOR
    FormatProto
)

func (f Format) String() string {
    switch f {
    case FormatJSON:
        return "json"
    case FormatCBOR:
        return "cbor"
    case FormatProto:
        return "proto"
    default:
        return "unknown"
    }
}

// ParseFormat maps a configuration name to a Format.
func ParseFormat(s string) (Format, bool) {
    switch s {
    case "json":
        return FormatJSON, true
    case "cbor":
        return FormatCBOR, true
    case "proto", "protobuf":
        return FormatProto, true
    }
    return FormatUnknown, false
}

// Codec marshals typed values for channel payloads.
// Implementations should be deterministic across nodes.
type Codec interface {
    Format() Format
    ContentType() string
    Marshal(v any) ([]byte, error)
    Unmarshal(data []byte, v any) error
}

// Registry maps formats to codecs.
type Registry struct{ byFormat map[Format]Codec }

// NewRegistry returns a registry holding the JSON, CBOR and Protobuf codecs.
func NewRegistry() *Registry {
    r := &Registry{byFormat: make(map[Format]Codec)}
    r.Register(JSON())
    r.Register(Proto())
    if c, err := CBOR(); err == nil {
        r.Register(c)
    }
    return r
}

// Register adds or replaces the codec for c.Format().
func (r *Registry) Register(c Codec) { r.byFormat[c.Format()] = c }

// Get returns the codec for f, or nil.
func (r *Registry) Get(f Format) Codec { return r.byFormat[f] }
