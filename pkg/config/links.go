package config

import (
    "errors"
    "fmt"
    "strings"
)

// Link modes.
const (
    ModeBind    = "bind"
    ModeConnect = "connect"
)

// LinkConfig describes one endpoint opened at startup.
// Example YAML:
// links:
//   - mode: bind
//     address: "tcp://publichost:chat"
//     max_tries: 5
//     rebind: true
//   - mode: connect
//     address: "quic://10.0.0.2:4433"
//     name: "upstream"
//   - mode: bind
//     address: "itc://localhost:7000"
type LinkConfig struct {
    Mode    string `mapstructure:"mode"`
    Address string `mapstructure:"address"`
    Name    string `mapstructure:"name"`
    // MaxTries is the number of consecutive ports a bind may try
    MaxTries int `mapstructure:"max_tries"`
    // Rebind hosts again after the peer of a bind link goes away
    Rebind bool `mapstructure:"rebind"`
}

func (l *LinkConfig) validate() error {
    l.Mode = strings.ToLower(strings.TrimSpace(l.Mode))
    switch l.Mode {
    case ModeBind, ModeConnect:
    default:
        return fmt.Errorf("invalid mode %q", l.Mode)
    }
    if strings.TrimSpace(l.Address) == "" {
        return errors.New("address must not be empty")
    }
    if l.Name == "" {
        l.Name = l.Mode + " " + l.Address
    }
    return nil
}
