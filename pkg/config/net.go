package config

import (
    "fmt"
    "strings"
    "time"
)

// ContextConfig sizes the queues and the dedup ledger.
type ContextConfig struct {
    QueueCapacity int    `mapstructure:"queue_capacity"`
    DiscardMode   string `mapstructure:"discard_mode"` // old or new
    // TinyLen is the outbound queue length beyond which senders are slowed
    TinyLen       int `mapstructure:"tiny_len"`
    PushTimeoutMS int `mapstructure:"push_timeout_ms"`
    // LedgerIdleTTLMS forgets sources silent for this long; 0 keeps them
    LedgerIdleTTLMS int `mapstructure:"ledger_idle_ttl_ms"`
    LedgerShards    int `mapstructure:"ledger_shards"`
}

func (c *ContextConfig) validate() error {
    c.DiscardMode = strings.ToLower(strings.TrimSpace(c.DiscardMode))
    switch c.DiscardMode {
    case "":
        c.DiscardMode = "old"
    case "old", "new":
    default:
        return fmt.Errorf("invalid context.discard_mode: %q", c.DiscardMode)
    }
    if c.QueueCapacity <= 0 {
        return fmt.Errorf("context.queue_capacity must be positive, got %d", c.QueueCapacity)
    }
    if c.TinyLen <= 0 || c.TinyLen >= c.QueueCapacity {
        return fmt.Errorf("context.tiny_len must be in (0, %d), got %d", c.QueueCapacity, c.TinyLen)
    }
    if c.LedgerIdleTTLMS < 0 {
        return fmt.Errorf("context.ledger_idle_ttl_ms must not be negative")
    }
    return nil
}

// NetConfig contains networking tuning options.
type NetConfig struct {
    HeartbeatMS        int   `mapstructure:"heartbeat_ms"`
    IdleTimeoutMS      int   `mapstructure:"idle_timeout_ms"`
    HandshakeTimeoutMS int   `mapstructure:"handshake_timeout_ms"`
    CloseFlushMS       int   `mapstructure:"close_flush_ms"`
    ConnectTimeoutMS   int   `mapstructure:"connect_timeout_ms"`
    BindMaxTries       int   `mapstructure:"bind_max_tries"`
    SendRateBytes      int64 `mapstructure:"send_rate_bytes"` // 0 = unlimited

    DialBackoffInitialMS int `mapstructure:"dial_backoff_initial_ms"`
    DialBackoffMaxMS     int `mapstructure:"dial_backoff_max_ms"`
    DialBackoffJitterMS  int `mapstructure:"dial_backoff_jitter_ms"`
}

// Ms converts a millisecond setting.
func Ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
