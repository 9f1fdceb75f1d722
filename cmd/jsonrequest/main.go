package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgnsrekt/jsonrequest/internal/config"
	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
	"github.com/dgnsrekt/jsonrequest/internal/proxy"
	"github.com/dgnsrekt/jsonrequest/internal/service"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsonrequest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	origin := fs.String("origin", "", "base URI relative URLs resolve against (default $JSONREQUEST_ORIGIN)")
	timeout := fs.Int("timeout", -1, "dial and read timeout in milliseconds (default 10000)")
	send := fs.String("send", "", "JSON value to POST; a GET is sent when empty")
	proxySource := fs.String("proxy", "", "proxy settings source: system|env|file|none (default $JSONREQUEST_PROXY_SOURCE)")
	verbose := fs.Bool("v", false, "log fetch diagnostics to stderr")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "usage: jsonrequest [flags] <relative-url>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}
	if *origin != "" {
		cfg.Origin = *origin
	}
	if *proxySource != "" {
		cfg.ProxySource = *proxySource
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	provider, err := proxy.NewProvider(cfg.ProxySource, cfg.ProxyFile)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "proxy: %v\n", err)
		return 2
	}
	resolver := proxy.NewResolver(provider, logger)
	engine, err := jsonrequest.New(cfg.Origin,
		jsonrequest.WithResolver(resolver),
		jsonrequest.WithLogger(logger),
		jsonrequest.WithUserAgent(cfg.UserAgent),
		jsonrequest.WithProcessSOCKS(cfg.ProcessSOCKS),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "origin: %v\n", err)
		return 2
	}
	svc := service.NewService(engine, resolver)

	// Absent flag keeps the default timeout; negative values still reach
	// the engine when given explicitly.
	var timeoutMillis *int
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			timeoutMillis = timeout
		}
	})

	var value any
	if *send != "" {
		var payload any
		if payload, err = jsonrequest.DecodeValue([]byte(*send)); err != nil {
			_, _ = fmt.Fprintf(stderr, "send: %v\n", err)
			return 2
		}
		value, err = svc.Post(ctx, jsonrequest.PostArgs{URL: fs.Arg(0), Send: payload, Timeout: timeoutMillis})
	} else {
		value, err = svc.Get(ctx, jsonrequest.GetArgs{URL: fs.Arg(0), Timeout: timeoutMillis})
	}
	if err != nil {
		var jrErr *jsonrequest.Error
		if errors.As(err, &jrErr) {
			_, _ = fmt.Fprintf(stderr, "%s: %s\n", jsonrequest.Category, jrErr.Message())
		} else {
			_, _ = fmt.Fprintln(stderr, err)
		}
		return 1
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, string(out))
	return 0
}
