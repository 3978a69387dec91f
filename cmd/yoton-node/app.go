package main

import (
    "bufio"
    "context"
    "fmt"
    "os"
    "os/signal"
    "strings"
    "syscall"

    "github.com/pterm/pterm"
    "go.uber.org/zap"

    "yoton/pkg/address"
    "yoton/pkg/config"
    netstack "yoton/pkg/core/netstack"
    "yoton/pkg/node"
    "yoton/pkg/observability"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        pterm.Error.Println("failed to load config: " + err.Error())
        return 1
    }
    applyFlags(cfg, opts)

    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        pterm.Error.Println("failed to setup logger: " + err.Error())
        return 1
    }
    defer func() { _ = logger.Sync() }()

    nodeOpts, err := netstack.NodeOptions(cfg)
    if err != nil {
        zap.L().Error("invalid context settings", zap.Error(err))
        return 1
    }
    yc := node.New(nodeOpts)
    zap.L().Info("yoton-node started",
        zap.String("app", cfg.AppName),
        zap.String("context", yc.ID().Hex()),
        zap.String("channel", cfg.Channel))
    zap.L().Debug("effective configuration", zap.Any("config", cfg))

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    room, err := newChat(yc, address.SlotHash(cfg.Channel), cfg.AppName, os.Stdout)
    if err != nil {
        zap.L().Error("join channel", zap.Error(err))
        return 1
    }

    mgr, err := netstack.Start(ctx, yc, cfg.Links, netstack.OptionsFrom(cfg.Net))
    if err != nil {
        zap.L().Error("failed to start links", zap.Error(err))
        return 1
    }

    pterm.DefaultSection.Printfln("%s on #%s (context %s)", cfg.AppName, cfg.Channel, yc.ID().Hex())
    pterm.Info.Println("type a line to send it, /stats for counters, Ctrl+C to exit")

    lines := make(chan string)
    go readLines(lines)
loop:
    for {
        select {
        case <-ctx.Done():
            break loop
        case line, ok := <-lines:
            if !ok { break loop }
            line = strings.TrimSpace(line)
            switch line {
            case "":
            case "/stats":
                printStats(yc, mgr)
            default:
                if err := room.Say(line); err != nil { zap.L().Warn("send failed", zap.Error(err)) }
            }
        }
    }

    stop()
    yc.Close()
    mgr.Wait()
    printStats(yc, mgr)
    return 0
}

func applyFlags(cfg *config.Config, opts Options) {
    if opts.Name != "" { cfg.AppName = opts.Name }
    if opts.Channel != "" { cfg.Channel = opts.Channel }
    if len(opts.Binds)+len(opts.Connects) == 0 { return }
    cfg.Links = nil
    for _, a := range opts.Binds {
        cfg.Links = append(cfg.Links, config.LinkConfig{Mode: config.ModeBind, Address: a, Name: "bind " + a, Rebind: true})
    }
    for _, a := range opts.Connects {
        cfg.Links = append(cfg.Links, config.LinkConfig{Mode: config.ModeConnect, Address: a, Name: "connect " + a})
    }
}

func readLines(out chan<- string) {
    defer close(out)
    sc := bufio.NewScanner(os.Stdin)
    for sc.Scan() { out <- sc.Text() }
}

func printStats(yc *node.Context, mgr *netstack.Manager) {
    st := yc.Stats()
    row := func(k string, v any) []string { return []string{k, fmt.Sprint(v)} }
    data := pterm.TableData{
        {"counter", "value"},
        row("connections", st.Connections),
        row("sent", st.Sent),
        row("buffered", st.Buffered),
        row("received", st.Received),
        row("stale", st.Stale),
        row("forwarded", st.Forwarded),
        row("delivered", st.Delivered),
        row("unrouted", st.Unrouted),
        row("sources", st.Ledger.Sources),
        row("links up", mgr.Established()),
        row("link failures", mgr.Failures()),
    }
    if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
        zap.L().Warn("render stats", zap.Error(err))
    }
}
