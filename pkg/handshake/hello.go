// Package handshake implements the line based greeting two contexts exchange
// before framing starts. The connecting side sends
//
//    YOTON!<16 hex digit context id>.<pid>\r\n
//
// and the hosting side answers with its own line. Anything else gets an
// "ERROR: ..." line, so a stray HTTP client gets a readable reply.
package handshake

import (
    "bufio"
    "errors"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "yoton/pkg/protocol/stream"
    "yoton/pkg/uid"
)

const (
    prefix = "YOTON!"

    // DefaultTimeout bounds the wait for the other side's line.
    DefaultTimeout = 2 * time.Second
)

var (
    ErrTimeout = errors.New("handshake timed out")
    ErrFailed  = errors.New("handshake failed")
    ErrSelf    = errors.New("handshake failed: context cannot connect to self")
)

// Peer identifies the context on the other end.
type Peer struct {
    ID  uid.UID
    PID int
}

// Message renders the greeting for id and pid.
func Message(id uid.UID, pid int) string {
    return fmt.Sprintf("%s%s.%d", prefix, id.Hex(), pid)
}

// Parse reads a greeting line without its terminator.
func Parse(line string) (Peer, error) {
    if !strings.HasPrefix(line, prefix) {
        return Peer{}, fmt.Errorf("%w: not a yoton greeting", ErrFailed)
    }
    idStr, pidStr, ok := strings.Cut(line[len(prefix):], ".")
    if !ok { return Peer{}, fmt.Errorf("%w: missing pid", ErrFailed) }
    id, err := uid.Parse(idStr)
    if err != nil { return Peer{}, fmt.Errorf("%w: %v", ErrFailed, err) }
    pid, err := strconv.Atoi(pidStr)
    if err != nil { return Peer{}, fmt.Errorf("%w: bad pid %q", ErrFailed, pidStr) }
    return Peer{ID: id, PID: pid}, nil
}

// AsHost waits for the client greeting, answers it, and returns the client.
func AsHost(c *stream.Conn, id uid.UID, timeout time.Duration) (Peer, error) {
    line, err := readLine(c, timeout)
    if err != nil { return Peer{}, err }
    if !strings.HasPrefix(line, prefix) {
        _ = writeLine(c, "ERROR: this is Yoton.")
        return Peer{}, fmt.Errorf("%w: client is not yoton", ErrFailed)
    }
    peer, err := Parse(line)
    if err != nil {
        _ = writeLine(c, "ERROR: could not parse id.")
        return Peer{}, err
    }
    if err := writeLine(c, Message(id, os.Getpid())); err != nil {
        return Peer{}, fmt.Errorf("%w: %v", ErrFailed, err)
    }
    if peer.ID == id { return Peer{}, ErrSelf }
    return peer, nil
}

// AsClient sends the greeting and reads the host's answer.
func AsClient(c *stream.Conn, id uid.UID, timeout time.Duration) (Peer, error) {
    if err := writeLine(c, Message(id, os.Getpid())); err != nil {
        return Peer{}, fmt.Errorf("%w: %v", ErrFailed, err)
    }
    line, err := readLine(c, timeout)
    if err != nil { return Peer{}, err }
    if strings.HasPrefix(line, "ERROR:") {
        return Peer{}, fmt.Errorf("%w: host said %q", ErrFailed, line)
    }
    peer, err := Parse(line)
    if err != nil { return Peer{}, err }
    if peer.ID == id { return Peer{}, ErrSelf }
    return peer, nil
}

func writeLine(c *stream.Conn, s string) error {
    return c.WriteRaw([]byte(s + "\r\n"))
}

func readLine(c *stream.Conn, timeout time.Duration) (string, error) {
    if timeout <= 0 { timeout = DefaultTimeout }
    if err := c.SetReadDeadline(time.Now().Add(timeout)); err != nil {
        return "", fmt.Errorf("%w: %v", ErrFailed, err)
    }
    defer c.SetReadDeadline(time.Time{})
    b, err := c.Reader().ReadSlice('\n')
    if err != nil {
        if stream.IsTimeout(err) { return "", ErrTimeout }
        if errors.Is(err, bufio.ErrBufferFull) {
            return "", fmt.Errorf("%w: greeting too long", ErrFailed)
        }
        return "", fmt.Errorf("%w: %v", ErrFailed, err)
    }
    return strings.TrimRight(string(b), "\r\n"), nil
}
