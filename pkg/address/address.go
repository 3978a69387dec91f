// Package address parses "protocol://host:port" strings into endpoints.
package address

import (
    "errors"
    "fmt"
    "net"
    "strconv"
    "strings"
)

// DefaultProtocol is used when an address carries no "proto://" prefix.
const DefaultProtocol = "tcp"

const maxPort = 65535

// ErrInvalidAddress is matched by every parse failure.
var ErrInvalidAddress = errors.New("invalid address")

// InvalidAddressError describes why an address was rejected.
type InvalidAddressError struct {
    Address string
    Reason  string
}

func (e *InvalidAddressError) Error() string {
    return fmt.Sprintf("invalid address %q: %s", e.Address, e.Reason)
}

func (e *InvalidAddressError) Is(target error) bool { return target == ErrInvalidAddress }

// Address is a parsed endpoint.
type Address struct {
    Protocol string
    Host     string
    Port     int
}

// HostPort renders host:port for dialing.
func (a Address) HostPort() string { return net.JoinHostPort(a.Host, strconv.Itoa(a.Port)) }

// WithPort returns a copy with a different port.
func (a Address) WithPort(port int) Address { a.Port = port; return a }

func (a Address) String() string { return a.Protocol + "://" + a.HostPort() }

// HostResolver lists the addresses reachable from outside this machine, in a
// stable order. Index N of the result is what "publichostN" resolves to.
type HostResolver func() ([]string, error)

// Parser splits addresses. The zero value resolves public hosts from the
// local interfaces.
type Parser struct {
    PublicHosts HostResolver
}

// Split parses with the default Parser.
func Split(s string) (Address, error) { return Parser{}.Split(s) }

// Split parses "[proto://]host:port". A non-numeric port is hashed with
// PortHash and may carry a "+offset".
func (p Parser) Split(s string) (Address, error) {
    bad := func(reason string) (Address, error) {
        return Address{}, &InvalidAddressError{Address: s, Reason: reason}
    }
    if !strings.Contains(s, ":") { return bad("should be in format 'host:port'") }

    rest := s
    proto := ""
    if i := strings.Index(rest, "://"); i >= 0 {
        proto = strings.ToLower(rest[:i])
        rest = rest[i+3:]
    }
    if proto == "" { proto = DefaultProtocol }

    // Split on the last colon so bracketed or raw IPv6 hosts survive.
    i := strings.LastIndex(rest, ":")
    if i < 0 { return bad("should be in format 'host:port'") }
    host, portStr := rest[:i], rest[i+1:]
    host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

    lower := strings.ToLower(host)
    switch {
    case lower == "localhost":
        host = "127.0.0.1"
    case strings.HasPrefix(lower, "publichost"):
        idxStr := lower[len("publichost"):]
        if idxStr == "" { idxStr = "0" }
        if idx, err := strconv.Atoi(idxStr); err == nil {
            resolved, err := p.publicHost(idx)
            if err != nil { return bad(err.Error()) }
            host = resolved
        }
    }

    port, err := strconv.Atoi(portStr)
    if err != nil {
        name, offset := portStr, 0
        if j := strings.Index(portStr, "+"); j >= 0 {
            name = portStr[:j]
            offset, err = strconv.Atoi(portStr[j+1:])
            if err != nil { return bad("invalid offset in port") }
        }
        port = PortHash(name) + offset
    }
    if port < 0 || port > maxPort {
        return bad(fmt.Sprintf("port %d not in range [0, %d]", port, maxPort))
    }
    return Address{Protocol: proto, Host: host, Port: port}, nil
}

func (p Parser) publicHost(idx int) (string, error) {
    resolve := p.PublicHosts
    if resolve == nil { resolve = InterfaceHosts }
    hosts, err := resolve()
    if err != nil { return "", fmt.Errorf("resolve public hosts: %v", err) }
    if idx < 0 || idx >= len(hosts) {
        return "", fmt.Errorf("invalid index (%d) in public host addresses", idx)
    }
    return hosts[idx], nil
}

// InterfaceHosts returns the non-loopback IPv4 addresses of this machine.
func InterfaceHosts() ([]string, error) {
    addrs, err := net.InterfaceAddrs()
    if err != nil { return nil, err }
    var out []string
    for _, a := range addrs {
        ipn, ok := a.(*net.IPNet)
        if !ok || ipn.IP.IsLoopback() { continue }
        if v4 := ipn.IP.To4(); v4 != nil {
            out = append(out, v4.String())
        }
    }
    return out, nil
}
