package node

import (
    "errors"
    "fmt"
    "sync"
    "testing"
    "time"

    "yoton/pkg/protocol"
    "yoton/pkg/transport"
    "yoton/pkg/transport/mem"
    "yoton/pkg/uid"
)

func memOptions(tr *mem.Transport) Options {
    reg := transport.NewRegistry()
    reg.Register("itc", tr)
    return Options{Transports: reg}
}

func waitFor(t *testing.T, what string, cond func() bool) {
    t.Helper()
    deadline := time.Now().Add(3 * time.Second)
    for !cond() {
        if time.Now().After(deadline) { t.Fatalf("timed out waiting for %s", what) }
        time.Sleep(5 * time.Millisecond)
    }
}

func TestContextsOverMemTransport(t *testing.T) {
    tr := mem.New()
    host, client := New(memOptions(tr)), New(memOptions(tr))
    defer host.Close()
    defer client.Close()

    recv := newSink()
    if err := client.RegisterReceiving(recv, testSlot, "test"); err != nil { t.Fatalf("register: %v", err) }

    // sent before any connection exists
    for i := 0; i < 3; i++ { host.Send(protocol.New(testSlot, []byte{byte(i)}, 0)) }

    hc, err := host.Bind("itc://localhost:9100", 1, "host")
    if err != nil { t.Fatalf("bind: %v", err) }
    if hc.IsConnected() || !hc.IsAlive() { t.Fatalf("bound connection status %s", hc.Status()) }
    if len(host.ConnectionsAll()) != 1 || host.ConnectionCount() != 0 {
        t.Fatalf("pending connection miscounted")
    }

    cc, err := client.Connect("itc://localhost:9100", time.Second, "client")
    if err != nil { t.Fatalf("connect: %v", err) }
    if cc.Id2() != host.ID() { t.Fatalf("client sees peer %s", cc.Id2()) }

    host.Send(protocol.New(testSlot, []byte{3}, 0))
    waitFor(t, "four packages", func() bool { return len(recv.packages()) == 4 })
    for i, p := range recv.packages() {
        if p.Data[0] != byte(i) || p.SourceID != host.ID() {
            t.Fatalf("package %d: %s data=%v", i, p, p.Data)
        }
    }
    if err := host.Flush(time.Second); err != nil { t.Fatalf("flush: %v", err) }
}

func TestDisconnectOverMemTransport(t *testing.T) {
    tr := mem.New()
    host, client := New(memOptions(tr)), New(memOptions(tr))
    defer host.Close()
    defer client.Close()

    if _, err := host.Bind("itc://localhost:9200", 1, "host"); err != nil { t.Fatalf("bind: %v", err) }
    cc, err := client.Connect("itc://localhost:9200", time.Second, "client")
    if err != nil { t.Fatalf("connect: %v", err) }
    waitFor(t, "host connected", func() bool { return host.ConnectionCount() == 1 })

    client.Disconnect(host.ID())
    waitFor(t, "host dropping the link", func() bool { return host.ConnectionCount() == 0 })
    select {
    case <-cc.Done():
    case <-time.After(3 * time.Second):
        t.Fatalf("client side still open")
    }
}

func TestBindRejectsBadAddress(t *testing.T) {
    c := New(memOptions(mem.New()))
    if _, err := c.Bind("no-port-here", 1, ""); err == nil { t.Fatalf("bad address accepted") }
    if _, err := c.Bind("smoke://localhost:1", 1, ""); err == nil { t.Fatalf("unknown protocol accepted") }
}

func TestTriangleUnderConcurrentLoad(t *testing.T) {
    tr := mem.New()
    a, b, c := New(memOptions(tr)), New(memOptions(tr)), New(memOptions(tr))
    nodes := []*Context{a, b, c}
    for _, n := range nodes { defer n.Close() }

    for i, pr := range [][2]*Context{{a, b}, {a, c}, {b, c}} {
        addr := fmt.Sprintf("itc://localhost:%d", 9300+i)
        if _, err := pr[0].Bind(addr, 1, "host"); err != nil { t.Fatalf("bind %s: %v", addr, err) }
        if _, err := pr[1].Connect(addr, time.Second, "client"); err != nil { t.Fatalf("connect %s: %v", addr, err) }
    }
    for _, n := range nodes {
        waitFor(t, "full mesh", func() bool { return n.ConnectionCount() == 2 })
    }

    sinks := make([]*sink, len(nodes))
    for i, n := range nodes {
        sinks[i] = newSink()
        if err := n.RegisterReceiving(sinks[i], testSlot, ""); err != nil { t.Fatalf("register: %v", err) }
    }

    const perNode = 300
    start := time.Now()
    var wg sync.WaitGroup
    for _, n := range nodes {
        wg.Add(1)
        go func(n *Context) {
            defer wg.Done()
            for i := 0; i < perNode; i++ { n.Send(protocol.New(testSlot, []byte{byte(i)}, 0)) }
        }(n)
    }
    wg.Wait()

    want := perNode * (len(nodes) - 1)
    deadline := time.Now().Add(5 * time.Second)
    for i, s := range sinks {
        for len(s.packages()) < want {
            if time.Now().After(deadline) {
                t.Fatalf("node %d delivered %d of %d after %s", i, len(s.packages()), want, time.Since(start))
            }
            time.Sleep(5 * time.Millisecond)
        }
    }
    for i, s := range sinks {
        last := map[uid.UID]uint64{}
        for _, p := range s.packages() {
            if p.SourceSeq <= last[p.SourceID] { t.Fatalf("node %d: %s out of order", i, p) }
            last[p.SourceID] = p.SourceSeq
        }
        if n := len(s.packages()); n != want { t.Fatalf("node %d delivered %d, want %d", i, n, want) }
    }
}

func TestFlushTimeoutSurfaces(t *testing.T) {
    tr := mem.New()
    host := New(memOptions(tr))
    defer host.Close()
    opts := memOptions(tr)
    opts.Conn = transport.DefaultOptions()
    opts.Conn.SendRate = 50
    client := New(opts)
    defer client.Close()

    if _, err := host.Bind("itc://localhost:9400", 1, "host"); err != nil { t.Fatalf("bind: %v", err) }
    if _, err := client.Connect("itc://localhost:9400", time.Second, "client"); err != nil { t.Fatalf("connect: %v", err) }
    // the connect announcement already drained the bucket
    client.Send(protocol.New(testSlot, make([]byte, 100), 0))
    err := client.Flush(100 * time.Millisecond)
    if !errors.Is(err, transport.ErrFlushTimeout) { t.Fatalf("flush: %v", err) }
}
