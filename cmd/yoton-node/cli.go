package main

import (
    "flag"
    "strings"
)

// Options holds CLI options for the node.
type Options struct {
    ConfigPath string
    Name       string
    Channel    string
    Binds      []string
    Connects   []string
}

type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(s string) error { *l = append(*l, s); return nil }

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string) Options {
    fs := flag.NewFlagSet("yoton-node", flag.ExitOnError)
    var opts Options
    var binds, connects listFlag
    fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
    fs.StringVar(&opts.Name, "name", "", "Nick shown to other nodes (overrides app_name)")
    fs.StringVar(&opts.Channel, "channel", "", "Channel to join (overrides channel)")
    fs.Var(&binds, "bind", "Address to host on, repeatable (replaces configured links)")
    fs.Var(&connects, "connect", "Address to connect to, repeatable (replaces configured links)")
    _ = fs.Parse(args)
    opts.Binds, opts.Connects = binds, connects
    return opts
}
