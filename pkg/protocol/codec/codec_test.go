package codec

import (
    "testing"

    "google.golang.org/protobuf/types/known/structpb"
)

func TestRegistryHasBuiltins(t *testing.T) {
    r := NewRegistry()
    for _, f := range []Format{FormatJSON, FormatCBOR, FormatProto} {
        c := r.Get(f)
        if c == nil { t.Fatalf("missing codec for %s", f) }
        if c.Format() != f { t.Fatalf("codec for %s reports %s", f, c.Format()) }
    }
    if r.Get(FormatUnknown) != nil { t.Fatalf("unexpected codec for unknown format") }
}

func TestParseFormat(t *testing.T) {
    if f, ok := ParseFormat("protobuf"); !ok || f != FormatProto {
        t.Fatalf("protobuf -> %v %v", f, ok)
    }
    if _, ok := ParseFormat("xml"); ok {
        t.Fatalf("xml should not parse")
    }
}

func TestJSONCodec(t *testing.T) {
    c := JSON()
    in := map[string]any{"a": 1, "b": "x"}
    b, err := c.Marshal(in)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out map[string]any
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    if out["a"].(float64) != 1 || out["b"].(string) != "x" {
        t.Fatalf("roundtrip mismatch: %#v", out)
    }
}

func TestCBORDeterministic(t *testing.T) {
    c, err := CBOR()
    if err != nil { t.Fatalf("new cbor: %v", err) }
    a, err := c.Marshal(map[string]int{"z": 1, "a": 2, "m": 3})
    if err != nil { t.Fatalf("marshal: %v", err) }
    for i := 0; i < 10; i++ {
        b, _ := c.Marshal(map[string]int{"m": 3, "z": 1, "a": 2})
        if string(a) != string(b) { t.Fatalf("encoding not deterministic") }
    }
    var out map[string]int
    if err := c.Unmarshal(a, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    if out["m"] != 3 { t.Fatalf("roundtrip mismatch: %#v", out) }
}

func TestProtoCodec(t *testing.T) {
    c := Proto()
    s, err := structpb.NewStruct(map[string]any{"k": "v"})
    if err != nil { t.Fatalf("struct: %v", err) }
    b, err := c.Marshal(s)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var out structpb.Struct
    if err := c.Unmarshal(b, &out); err != nil { t.Fatalf("unmarshal: %v", err) }
    if out.Fields["k"].GetStringValue() != "v" { t.Fatalf("roundtrip mismatch") }
    if _, err := c.Marshal("not a message"); err == nil {
        t.Fatalf("expected error for non-proto value")
    }
}
