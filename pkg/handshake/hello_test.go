package handshake

import (
    "errors"
    "net"
    "strings"
    "testing"
    "time"

    "yoton/pkg/protocol/stream"
    "yoton/pkg/uid"
)

func TestMessageParse(t *testing.T) {
    id := uid.UID(0x00000001deadbeef)
    m := Message(id, 4321)
    if m != "YOTON!00000001deadbeef.4321" { t.Fatalf("message %q", m) }
    p, err := Parse(m)
    if err != nil || p.ID != id || p.PID != 4321 { t.Fatalf("parse: %+v %v", p, err) }
    for _, bad := range []string{"GET / HTTP/1.1", "YOTON!zz.1", "YOTON!0011", "YOTON!01.x"} {
        if _, err := Parse(bad); !errors.Is(err, ErrFailed) {
            t.Fatalf("Parse(%q) = %v", bad, err)
        }
    }
}

type result struct {
    peer Peer
    err  error
}

func shake(t *testing.T, hostID, clientID uid.UID) (host, client result) {
    t.Helper()
    a, b := net.Pipe()
    defer a.Close()
    defer b.Close()
    hc := make(chan result, 1)
    go func() {
        p, err := AsHost(stream.NewNetConn(a), hostID, time.Second)
        hc <- result{p, err}
    }()
    p, err := AsClient(stream.NewNetConn(b), clientID, time.Second)
    return <-hc, result{p, err}
}

func TestHandshakeSuccess(t *testing.T) {
    host, client := shake(t, uid.UID(1<<32|1), uid.UID(2<<32|2))
    if host.err != nil || client.err != nil { t.Fatalf("errors: %v / %v", host.err, client.err) }
    if host.peer.ID != uid.UID(2<<32|2) || client.peer.ID != uid.UID(1<<32|1) {
        t.Fatalf("ids: host saw %s, client saw %s", host.peer.ID, client.peer.ID)
    }
}

func TestHandshakeSelfRejected(t *testing.T) {
    same := uid.UID(7<<32 | 7)
    host, client := shake(t, same, same)
    if !errors.Is(host.err, ErrSelf) || !errors.Is(client.err, ErrSelf) {
        t.Fatalf("expected self errors, got %v / %v", host.err, client.err)
    }
}

func TestHostAnswersForeignClient(t *testing.T) {
    a, b := net.Pipe()
    defer a.Close()
    defer b.Close()
    hc := make(chan error, 1)
    go func() {
        _, err := AsHost(stream.NewNetConn(a), uid.UID(9), time.Second)
        hc <- err
    }()
    cb := stream.NewNetConn(b)
    if err := cb.WriteRaw([]byte("GET / HTTP/1.1\r\n")); err != nil { t.Fatalf("write: %v", err) }
    line, err := cb.Reader().ReadString('\n')
    if err != nil { t.Fatalf("read: %v", err) }
    if !strings.HasPrefix(line, "ERROR: this is Yoton.") { t.Fatalf("reply %q", line) }
    if err := <-hc; !errors.Is(err, ErrFailed) { t.Fatalf("host err %v", err) }
}

func TestClientTimesOut(t *testing.T) {
    a, b := net.Pipe()
    defer a.Close()
    defer b.Close()
    // drain the greeting but never answer
    go func() {
        buf := make([]byte, 64)
        for {
            if _, err := a.Read(buf); err != nil { return }
        }
    }()
    _, err := AsClient(stream.NewNetConn(b), uid.UID(3), 50*time.Millisecond)
    if !errors.Is(err, ErrTimeout) { t.Fatalf("expected timeout, got %v", err) }
}
