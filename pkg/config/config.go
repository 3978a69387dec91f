// Package config provides YAML-based configuration loading for yoton nodes.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
    // AppName is the logical name of the node, also used as chat nick
    AppName string `mapstructure:"app_name"`

    // Channel names the slot the node talks on
    Channel string `mapstructure:"channel"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // Context tunes queues and the dedup ledger
    Context ContextConfig `mapstructure:"context"`

    // Net holds link timing and reconnect options
    Net NetConfig `mapstructure:"net"`

    // Links are the endpoints bound or connected at startup
    Links []LinkConfig `mapstructure:"links"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool   `mapstructure:"enable"`
    Filename   string `mapstructure:"filename"`
    MaxSizeMB  int    `mapstructure:"max_size_mb"`
    MaxBackups int    `mapstructure:"max_backups"`
    MaxAgeDays int    `mapstructure:"max_age_days"`
    Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "yoton-node",
        Channel: "chat",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stdout"},
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                Filename:   "logs/yoton.log",
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Context: ContextConfig{
            QueueCapacity: 10000,
            DiscardMode:   "old",
            TinyLen:       64,
            PushTimeoutMS: 1000,
            LedgerShards:  64,
        },
        Net: NetConfig{
            HeartbeatMS:          250,
            IdleTimeoutMS:        500,
            HandshakeTimeoutMS:   2000,
            CloseFlushMS:         1000,
            ConnectTimeoutMS:     1000,
            BindMaxTries:         1,
            DialBackoffInitialMS: 500,
            DialBackoffMaxMS:     30000,
            DialBackoffJitterMS:  100,
        },
        Links: []LinkConfig{
            {Mode: ModeBind, Address: "localhost:chat", Name: "host", MaxTries: 1},
        },
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix YOTON and `.`/`-` are replaced with `_`.
// Example: YOTON_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("YOTON")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("channel", cfg.Channel)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    v.SetDefault("context.queue_capacity", cfg.Context.QueueCapacity)
    v.SetDefault("context.discard_mode", cfg.Context.DiscardMode)
    v.SetDefault("context.tiny_len", cfg.Context.TinyLen)
    v.SetDefault("context.push_timeout_ms", cfg.Context.PushTimeoutMS)
    v.SetDefault("context.ledger_idle_ttl_ms", cfg.Context.LedgerIdleTTLMS)
    v.SetDefault("context.ledger_shards", cfg.Context.LedgerShards)
    v.SetDefault("net.heartbeat_ms", cfg.Net.HeartbeatMS)
    v.SetDefault("net.idle_timeout_ms", cfg.Net.IdleTimeoutMS)
    v.SetDefault("net.handshake_timeout_ms", cfg.Net.HandshakeTimeoutMS)
    v.SetDefault("net.close_flush_ms", cfg.Net.CloseFlushMS)
    v.SetDefault("net.connect_timeout_ms", cfg.Net.ConnectTimeoutMS)
    v.SetDefault("net.bind_max_tries", cfg.Net.BindMaxTries)
    v.SetDefault("net.send_rate_bytes", cfg.Net.SendRateBytes)
    v.SetDefault("net.dial_backoff_initial_ms", cfg.Net.DialBackoffInitialMS)
    v.SetDefault("net.dial_backoff_max_ms", cfg.Net.DialBackoffMaxMS)
    v.SetDefault("net.dial_backoff_jitter_ms", cfg.Net.DialBackoffJitterMS)
    v.SetDefault("links", cfg.Links)

    // Choose config file
    if path == "" {
        if envPath := os.Getenv("YOTON_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        v.SetConfigName("yoton")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".yoton"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var viperConfigFileNotFound viper.ConfigFileNotFoundError
        if !errors.As(err, &viperConfigFileNotFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    // decode into a zero value; every default is seeded above and decoding
    // over prefilled slices would merge list entries
    cfg = &Config{}
    if err := v.Unmarshal(cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }

    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stdout"}
    }
    if strings.TrimSpace(c.Channel) == "" {
        return errors.New("channel must not be empty")
    }
    if err := c.Context.validate(); err != nil {
        return err
    }
    for i := range c.Links {
        if err := c.Links[i].validate(); err != nil {
            return fmt.Errorf("links[%d]: %w", i, err)
        }
    }
    return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
