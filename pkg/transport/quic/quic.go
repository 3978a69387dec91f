// Package quic carries yoton links over a single bidirectional QUIC stream.
// The TLS layer uses a throwaway self-signed certificate and the client does
// not verify it: contexts authenticate nothing, QUIC is used for its
// transport properties.
package quic

import (
    "context"
    "crypto/ed25519"
    "crypto/rand"
    "crypto/tls"
    "crypto/x509"
    "errors"
    "math/big"
    "net"
    "sync"
    "time"

    quic "github.com/quic-go/quic-go"

    "yoton/pkg/address"
    "yoton/pkg/transport"
)

// ALPN protocol id.
const ALPN = "yoton"

const closeGrace = 250 * time.Millisecond

// Transport dials and listens on QUIC (UDP) endpoints.
type Transport struct {
    once    sync.Once
    cert    tls.Certificate
    certErr error
    conf    *quic.Config
}

func New() *Transport {
    return &Transport{conf: &quic.Config{
        HandshakeIdleTimeout: 5 * time.Second,
        MaxIdleTimeout:       30 * time.Second,
        KeepAlivePeriod:      10 * time.Second,
    }}
}

func (t *Transport) Kind() transport.Kind { return transport.KindQUIC }

func (t *Transport) serverTLS() (*tls.Config, error) {
    t.once.Do(func() { t.cert, t.certErr = selfSigned() })
    if t.certErr != nil { return nil, t.certErr }
    return &tls.Config{Certificates: []tls.Certificate{t.cert}, NextProtos: []string{ALPN}}, nil
}

func clientTLS() *tls.Config {
    return &tls.Config{InsecureSkipVerify: true, NextProtos: []string{ALPN}}
}

func selfSigned() (tls.Certificate, error) {
    pub, priv, err := ed25519.GenerateKey(rand.Reader)
    if err != nil { return tls.Certificate{}, err }
    serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
    if err != nil { return tls.Certificate{}, err }
    template := x509.Certificate{
        SerialNumber: serial,
        NotBefore:    time.Now().Add(-time.Hour),
        NotAfter:     time.Now().Add(10 * 365 * 24 * time.Hour),
        KeyUsage:     x509.KeyUsageDigitalSignature,
        ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
        DNSNames:     []string{"localhost"},
    }
    der, err := x509.CreateCertificate(rand.Reader, &template, &template, pub, priv)
    if err != nil { return tls.Certificate{}, err }
    return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}

func (t *Transport) Listen(ctx context.Context, addr address.Address) (transport.Listener, error) {
    tlsConf, err := t.serverTLS()
    if err != nil { return nil, err }
    ql, err := quic.ListenAddr(addr.HostPort(), tlsConf, t.conf)
    if err != nil { return nil, err }
    l := &listener{ql: ql, newCh: make(chan net.Conn), closeCh: make(chan struct{})}
    go l.acceptLoop()
    go func() {
        select {
        case <-ctx.Done():
            _ = l.Close()
        case <-l.closeCh:
        }
    }()
    return l, nil
}

func (t *Transport) Dial(ctx context.Context, addr address.Address) (net.Conn, error) {
    conn, err := quic.DialAddr(ctx, addr.HostPort(), clientTLS(), t.conf)
    if err != nil { return nil, err }
    s, err := conn.OpenStreamSync(ctx)
    if err != nil {
        _ = conn.CloseWithError(0, "")
        return nil, err
    }
    return &streamConn{Stream: s, conn: conn}, nil
}

type listener struct {
    ql      *quic.Listener
    newCh   chan net.Conn
    closeCh chan struct{}
    once    sync.Once
}

func (l *listener) Addr() net.Addr { return l.ql.Addr() }

func (l *listener) Accept(ctx context.Context) (net.Conn, error) {
    select {
    case <-ctx.Done():
        return nil, ctx.Err()
    case <-l.closeCh:
        return nil, errors.New("quic listener closed")
    case c := <-l.newCh:
        return c, nil
    }
}

func (l *listener) Close() error {
    var err error
    l.once.Do(func() {
        close(l.closeCh)
        err = l.ql.Close()
    })
    return err
}

func (l *listener) acceptLoop() {
    ctx := context.Background()
    for {
        conn, err := l.ql.Accept(ctx)
        if err != nil { return }
        // The first stream only shows up once the client writes to it.
        go func(conn *quic.Conn) {
            sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
            defer cancel()
            s, err := conn.AcceptStream(sctx)
            if err != nil {
                _ = conn.CloseWithError(0, "no stream")
                return
            }
            select {
            case l.newCh <- &streamConn{Stream: s, conn: conn}:
            case <-l.closeCh:
                _ = conn.CloseWithError(0, "listener closed")
            }
        }(conn)
    }
}

// streamConn presents one QUIC stream as a net.Conn.
type streamConn struct {
    *quic.Stream
    conn *quic.Conn
    once sync.Once
}

func (s *streamConn) LocalAddr() net.Addr  { return s.conn.LocalAddr() }
func (s *streamConn) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// Close sends FIN on the stream and tears the QUIC connection down after a
// short grace period, so a final close frame can still reach the peer.
func (s *streamConn) Close() error {
    s.once.Do(func() {
        s.Stream.CancelRead(0)
        _ = s.Stream.Close()
        go func() {
            t := time.NewTimer(closeGrace)
            defer t.Stop()
            select {
            case <-s.conn.Context().Done():
            case <-t.C:
            }
            _ = s.conn.CloseWithError(0, "")
        }()
    })
    return nil
}
