package transports

import (
    "errors"
    "runtime"
    "testing"

    "yoton/pkg/transport"
)

func TestDefaultRegistry(t *testing.T) {
    r := Default()
    for _, p := range []string{TCP, ITC, QUIC, "TCP"} {
        if _, err := r.Lookup(p); err != nil { t.Fatalf("lookup %s: %v", p, err) }
    }
    _, err := r.Lookup(Pipe)
    if runtime.GOOS == "windows" && err != nil { t.Fatalf("pipe missing on windows: %v", err) }
    if runtime.GOOS != "windows" && err == nil { t.Fatalf("pipe registered on %s", runtime.GOOS) }

    var up transport.ErrUnknownProtocol
    if _, err := r.Lookup("carrier-pigeon"); !errors.As(err, &up) {
        t.Fatalf("unknown protocol err = %v", err)
    }
}

func TestByKind(t *testing.T) {
    for _, k := range []transport.Kind{transport.KindTCP, transport.KindMem, transport.KindQUIC} {
        tr, err := ByKind(k)
        if err != nil || tr.Kind() != k { t.Fatalf("ByKind(%s) = %v, %v", k, tr, err) }
    }
    if _, err := ByKind(transport.KindUnknown); err == nil { t.Fatalf("unknown kind accepted") }
}
