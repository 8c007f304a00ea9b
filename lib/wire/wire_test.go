// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/fanoutlabs/coordinator/lib/codec"
	"github.com/fanoutlabs/coordinator/lib/testutil"
)

func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(testutil.SocketDir(t), "test.sock")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	for {
		if _, err := os.Stat(path); err == nil {
			return
		}
		if t.Context().Err() != nil {
			t.Fatalf("socket %s did not appear before test context expired", path)
		}
		runtime.Gosched()
	}
}

func TestClientCallRoundTrip(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var req struct {
			Text string `cbor:"text"`
		}
		if err := codec.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decoding request: %w", err)
		}
		return map[string]any{"text": req.Text}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Serve(ctx)
	}()
	waitForSocket(t, socketPath)

	client := NewClient(socketPath)
	var result struct {
		Text string `cbor:"text"`
	}
	if err := client.Call(context.Background(), "echo", map[string]any{"text": "hello"}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("expected text=hello, got %q", result.Text)
	}

	cancel()
	wg.Wait()
}

func TestClientCallHandlerError(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())
	server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("deliberate failure")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Serve(ctx)
	waitForSocket(t, socketPath)

	client := NewClient(socketPath)
	err := client.Call(context.Background(), "fail", nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	wireErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *wire.Error, got %T", err)
	}
	if wireErr.Action != "fail" {
		t.Errorf("expected action=fail, got %q", wireErr.Action)
	}
	if wireErr.Message != "deliberate failure" {
		t.Errorf("expected message=%q, got %q", "deliberate failure", wireErr.Message)
	}
}

func TestClientCallUnknownAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Serve(ctx)
	waitForSocket(t, socketPath)

	client := NewClient(socketPath)
	err := client.Call(context.Background(), "nonexistent", nil, nil)
	if err == nil {
		t.Fatal("expected error for unknown action, got nil")
	}
}

func TestClientCallNilResult(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())
	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go server.Serve(ctx)
	waitForSocket(t, socketPath)

	client := NewClient(socketPath)
	if err := client.Call(context.Background(), "noop", nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func TestServerDuplicateHandlerPanics(t *testing.T) {
	server := NewServer(testSocketPath(t), testLogger())
	server.Handle("dup", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })

	defer func() {
		if recover() == nil {
			t.Error("expected panic for duplicate handler registration")
		}
	}()
	server.Handle("dup", func(ctx context.Context, raw []byte) (any, error) { return nil, nil })
}

func TestServerGracefulShutdownWaitsForInFlightHandler(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	handlerStarted := make(chan struct{})
	handlerRelease := make(chan struct{})
	server.Handle("slow", func(ctx context.Context, raw []byte) (any, error) {
		close(handlerStarted)
		<-handlerRelease
		return map[string]any{"completed": true}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	waitForSocket(t, socketPath)

	type callResult struct {
		err error
	}
	done := make(chan callResult, 1)
	go func() {
		client := NewClient(socketPath)
		var result map[string]any
		err := client.Call(context.Background(), "slow", nil, &result)
		done <- callResult{err: err}
	}()

	testutil.RequireClosed(t, handlerStarted, 5*time.Second, "handler did not start")
	close(handlerRelease)
	cancel()

	result := testutil.RequireReceive(t, done, 5*time.Second, "in-flight call did not complete")
	if result.err != nil {
		t.Errorf("expected in-flight call to succeed, got %v", result.err)
	}

	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve did not return after cancellation"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}

	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("socket file not cleaned up after Serve returned")
	}
}
