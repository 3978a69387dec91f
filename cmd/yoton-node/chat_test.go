package main

import (
    "bytes"
    "errors"
    "strings"
    "testing"

    "github.com/pterm/pterm"

    "yoton/pkg/config"
    "yoton/pkg/node"
    "yoton/pkg/protocol"
)

func TestChatPrintsIncoming(t *testing.T) {
    pterm.DisableColor()
    defer pterm.EnableColor()

    var buf bytes.Buffer
    yc := node.New(node.Options{})
    c, err := newChat(yc, 1234, "alice", &buf)
    if err != nil { t.Fatalf("join: %v", err) }

    p, err := protocol.NewWithBody(1234, 0, protocol.FormatCBOR, &message{From: "bob", Text: "hi there", At: 0}, nil)
    if err != nil { t.Fatalf("encode: %v", err) }
    c.ReceivePackage(p)
    if !strings.Contains(buf.String(), "bob: hi there") { t.Fatalf("output %q", buf.String()) }

    if _, err := newChat(yc, 1234, "again", &buf); !errors.Is(err, node.ErrSlotInUse) {
        t.Fatalf("second chat on slot: %v", err)
    }
}

func TestChatResendsLastLine(t *testing.T) {
    yc := node.New(node.Options{})
    c, err := newChat(yc, 99, "alice", &bytes.Buffer{})
    if err != nil { t.Fatalf("join: %v", err) }
    if err := c.ResendLast(); err != nil || yc.BufferedLen() != 0 {
        t.Fatalf("resend without history: %v, buffered %d", err, yc.BufferedLen())
    }
    if err := c.Say("one"); err != nil { t.Fatalf("say: %v", err) }
    if err := c.ResendLast(); err != nil { t.Fatalf("resend: %v", err) }
    if n := yc.BufferedLen(); n != 2 { t.Fatalf("buffered %d", n) }
}

func TestApplyFlagsReplacesLinks(t *testing.T) {
    cfg := config.Default()
    applyFlags(cfg, Options{Name: "bob", Binds: []string{"itc://localhost:1"}, Connects: []string{"tcp://h:2"}})
    if cfg.AppName != "bob" || len(cfg.Links) != 2 || cfg.Links[1].Mode != "connect" {
        t.Fatalf("config %+v", cfg)
    }
}
