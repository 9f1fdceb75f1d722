package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/jsonrequest/internal/api"
	"github.com/dgnsrekt/jsonrequest/internal/config"
	"github.com/dgnsrekt/jsonrequest/internal/journal"
	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
	"github.com/dgnsrekt/jsonrequest/internal/netutil"
	"github.com/dgnsrekt/jsonrequest/internal/notify"
	"github.com/dgnsrekt/jsonrequest/internal/proxy"
	"github.com/dgnsrekt/jsonrequest/internal/relay"
	"github.com/dgnsrekt/jsonrequest/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("jsonrequestd config loaded",
		"version", jsonrequest.Version,
		"origin", cfg.Origin,
		"bind_addr", cfg.BindAddr,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"proxy_source", cfg.ProxySource,
		"process_socks", cfg.ProcessSOCKS,
		"journal_dir", cfg.JournalDir,
		"notify", cfg.NotifyURL != "",
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	provider, err := proxy.NewProvider(cfg.ProxySource, cfg.ProxyFile)
	if err != nil {
		slog.Error("failed to set up proxy settings", "source", cfg.ProxySource, "error", err)
		os.Exit(1)
	}
	resolver := proxy.NewResolver(provider, slog.Default())

	broker := relay.NewBroker(cfg.EventBuffer)
	opts := []jsonrequest.Option{
		jsonrequest.WithResolver(resolver),
		jsonrequest.WithUserAgent(cfg.UserAgent),
		jsonrequest.WithProcessSOCKS(cfg.ProcessSOCKS),
		jsonrequest.WithObserver(relay.NewRelay(broker, slog.Default()).Observe),
	}

	var jnl *journal.Journal
	if cfg.JournalDir != "" {
		jnl = journal.New(cfg.JournalDir, cfg.JournalBuffer, cfg.JournalMaxSizeMB, cfg.JournalMaxValueBytes)
		opts = append(opts, jsonrequest.WithObserver(jnl.Record))
	}
	if cfg.NotifyURL != "" {
		opts = append(opts, jsonrequest.WithObserver(notify.New(cfg.NotifyURL, nil, slog.Default()).Observe))
	}

	engine, err := jsonrequest.New(cfg.Origin, opts...)
	if err != nil {
		slog.Error("invalid origin", "origin", cfg.Origin, "error", err)
		os.Exit(1)
	}

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to bind", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}
	bindAddr := ln.Addr().String()

	svc := service.NewService(engine, resolver)
	srv := &http.Server{Handler: api.NewServer(svc, broker)}

	go func() {
		slog.Info("jsonrequestd listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	if jnl != nil {
		if err := jnl.Close(); err != nil {
			slog.Error("journal close failed", "error", err)
		}
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
