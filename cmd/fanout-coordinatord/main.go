// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fanoutlabs/coordinator/fanout"
	"github.com/fanoutlabs/coordinator/lib/fanoutconfig"
	"github.com/fanoutlabs/coordinator/lib/observehub"
	"github.com/fanoutlabs/coordinator/lib/version"
	"github.com/fanoutlabs/coordinator/lib/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("fanout-coordinatord %s\n", version.Info())
		return nil
	}

	cfg, err := fanoutconfig.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("parsing log_level: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := observehub.New(logger, nil)

	var opts []fanout.Option
	opts = append(opts, fanout.WithEventSink(hub))
	if cfg.DefaultMaxRounds > 0 {
		opts = append(opts, fanout.WithDefaultMaxRounds(cfg.DefaultMaxRounds))
	}
	if cfg.CollectionWindowMillis > 0 {
		opts = append(opts, fanout.WithCollectionWindow(time.Duration(cfg.CollectionWindowMillis)*time.Millisecond))
	}
	if cfg.ResponseTimeoutSeconds > 0 {
		opts = append(opts, fanout.WithResponseTimeout(time.Duration(cfg.ResponseTimeoutSeconds)*time.Second))
	}

	coordinator := fanout.NewCoordinator(opts...)

	daemon := &coordinatorDaemon{
		coordinator: coordinator,
		logger:      logger,
	}

	socketServer := wire.NewServer(cfg.SocketPath, logger)
	daemon.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	var observerDone chan error
	if cfg.ObserverAddr != "" {
		observerDone = make(chan error, 1)
		httpServer := &http.Server{Addr: cfg.ObserverAddr, Handler: hub}
		go func() {
			observerDone <- httpServer.ListenAndServe()
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()
	}

	logger.Info("fanout-coordinatord running",
		"socket", cfg.SocketPath,
		"observer_addr", cfg.ObserverAddr,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	if observerDone != nil {
		if err := <-observerDone; err != nil && err != http.ErrServerClosed {
			logger.Error("observer server error", "error", err)
		}
	}

	return nil
}

// coordinatorDaemon wires the fanout.Coordinator core to the wire
// protocol socket.
type coordinatorDaemon struct {
	coordinator *fanout.Coordinator
	logger      *slog.Logger
}
