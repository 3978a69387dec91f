package observability

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"

    "yoton/pkg/config"
)

func TestParseLevel(t *testing.T) {
    cases := map[string]zapcore.Level{
        "debug": zap.DebugLevel, "WARNING": zap.WarnLevel, " error ": zap.ErrorLevel, "bogus": zap.InfoLevel,
    }
    for in, want := range cases {
        if got := ParseLevel(in); got != want { t.Fatalf("ParseLevel(%q) = %s", in, got) }
    }
}

func TestSetupLoggerWritesJSONFile(t *testing.T) {
    prev := zap.L()
    defer zap.ReplaceGlobals(prev)

    path := filepath.Join(t.TempDir(), "logs", "node.log")
    logger, err := SetupLogger(config.LogConfig{Level: "warn", Format: "json", Outputs: []string{path}})
    if err != nil { t.Fatalf("setup: %v", err) }
    zap.L().Info("hidden")
    zap.L().Warn("connection timed out", zap.String("conn", "host"))
    _ = logger.Sync()

    data, err := os.ReadFile(path)
    if err != nil { t.Fatalf("read log: %v", err) }
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    if len(lines) != 1 { t.Fatalf("want one line, got %q", data) }
    var rec map[string]any
    if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil { t.Fatalf("not json: %v", err) }
    if rec["msg"] != "connection timed out" || rec["conn"] != "host" || rec["level"] != "warn" {
        t.Fatalf("record %v", rec)
    }
    if _, ok := rec["pid"]; !ok { t.Fatalf("pid field missing") }
}
