package transport

import (
    "sort"
    "strings"
    "sync"
)

// Registry maps address protocols to transports.
type Registry struct {
    mu      sync.RWMutex
    byProto map[string]Transport
}

func NewRegistry() *Registry { return &Registry{byProto: make(map[string]Transport)} }

// Register adds or replaces the transport for proto.
func (r *Registry) Register(proto string, t Transport) {
    r.mu.Lock()
    r.byProto[strings.ToLower(proto)] = t
    r.mu.Unlock()
}

// Lookup returns the transport for proto or ErrUnknownProtocol.
func (r *Registry) Lookup(proto string) (Transport, error) {
    r.mu.RLock()
    t := r.byProto[strings.ToLower(proto)]
    r.mu.RUnlock()
    if t == nil { return nil, ErrUnknownProtocol(proto) }
    return t, nil
}

// Protocols lists the registered protocol names, sorted.
func (r *Registry) Protocols() []string {
    r.mu.RLock()
    out := make([]string, 0, len(r.byProto))
    for p := range r.byProto { out = append(out, p) }
    r.mu.RUnlock()
    sort.Strings(out)
    return out
}
