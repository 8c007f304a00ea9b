// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/fanoutlabs/coordinator/fanout"
	"github.com/fanoutlabs/coordinator/lib/testutil"
	"github.com/fanoutlabs/coordinator/lib/wire"
)

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

// newTestDaemon wires a coordinatorDaemon to a live socket server and
// returns a client for it. The server and its coordinator are torn
// down automatically when the test completes.
func newTestDaemon(t *testing.T, opts ...fanout.Option) *wire.Client {
	t.Helper()

	coordinator := fanout.NewCoordinator(opts...)
	daemon := &coordinatorDaemon{coordinator: coordinator, logger: testLogger()}

	socketPath := filepath.Join(testutil.SocketDir(t), "coordinator.sock")
	server := wire.NewServer(socketPath, testLogger())
	daemon.registerActions(server)

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-serveDone
	})

	waitForSocket(t, socketPath)
	return wire.NewClient(socketPath)
}

func TestRegisterNotifyRoundTrip(t *testing.T) {
	client := newTestDaemon(t, fanout.WithCollectionWindow(10*time.Millisecond))

	channelID := testutil.UniqueID("channel")
	messageID := testutil.UniqueID("message")

	type registerResult struct {
		Round                int      `cbor:"round"`
		AccumulatedResponses []string `cbor:"accumulated_responses"`
	}

	registerDone := make(chan registerResult, 1)
	go func() {
		var result registerResult
		if err := client.Call(context.Background(), "register", map[string]any{
			"channel_id":  channelID,
			"message_id":  messageID,
			"account_id":  "agent-a",
			"bot_user_id": "@agent-a:test.local",
		}, &result); err != nil {
			t.Errorf("register call: %v", err)
			return
		}
		registerDone <- result
	}()

	result := testutil.RequireReceive(t, registerDone, 5*time.Second, "register did not return the agent's turn")
	if result.Round != 1 {
		t.Errorf("expected round=1, got %d", result.Round)
	}

	if err := client.Call(context.Background(), "notify", map[string]any{
		"channel_id":    channelID,
		"account_id":    "agent-a",
		"response_text": "hello from agent-a",
	}, nil); err != nil {
		t.Fatalf("notify call: %v", err)
	}
}

func TestRegisterBlocksUntilTurn(t *testing.T) {
	client := newTestDaemon(t,
		fanout.WithCollectionWindow(10*time.Millisecond),
		fanout.WithResponseTimeout(5*time.Second),
	)

	channelID := testutil.UniqueID("channel")
	messageID := testutil.UniqueID("message")

	released := make(chan string, 2)
	register := func(accountID string) {
		var result struct {
			Round int `cbor:"round"`
		}
		if err := client.Call(context.Background(), "register", map[string]any{
			"channel_id":  channelID,
			"message_id":  messageID,
			"account_id":  accountID,
			"bot_user_id": "@" + accountID + ":test.local",
		}, &result); err != nil {
			t.Errorf("register call for %s: %v", accountID, err)
			return
		}
		released <- accountID
	}

	go register("agent-a")
	go register("agent-b")

	// Exactly one of the two registrations is released first; the
	// other stays blocked until the first notifies.
	first := testutil.RequireReceive(t, released, 5*time.Second, "neither agent's register call was released")

	select {
	case second := <-released:
		t.Fatalf("both agents (%s, %s) were released before either notified", first, second)
	case <-time.After(100 * time.Millisecond):
		// Expected: the other agent's turn has not started yet.
	}

	if err := client.Call(context.Background(), "notify", map[string]any{
		"channel_id": channelID,
		"account_id": first,
	}, nil); err != nil {
		t.Fatalf("notify call: %v", err)
	}

	second := testutil.RequireReceive(t, released, 5*time.Second, "second agent was never released after the first notified")
	if second == first {
		t.Fatalf("expected the other agent to be released, got %s again", first)
	}

	if err := client.Call(context.Background(), "notify", map[string]any{
		"channel_id": channelID,
		"account_id": second,
	}, nil); err != nil {
		t.Fatalf("notify call: %v", err)
	}
}

func TestStatusUnknownChannel(t *testing.T) {
	client := newTestDaemon(t)

	var result struct {
		Known            bool `cbor:"known"`
		IsProcessing     bool `cbor:"is_processing"`
		CurrentRound     int  `cbor:"current_round"`
		RegisteredAgents int  `cbor:"registered_agents"`
	}
	if err := client.Call(context.Background(), "status", map[string]any{
		"channel_id": testutil.UniqueID("channel"),
	}, &result); err != nil {
		t.Fatalf("status call: %v", err)
	}
	if result.Known {
		t.Error("expected known=false for a channel that has never registered an agent")
	}
}

func TestStatusMissingChannelID(t *testing.T) {
	client := newTestDaemon(t)

	err := client.Call(context.Background(), "status", nil, nil)
	if err == nil {
		t.Fatal("expected error for missing channel_id, got nil")
	}
}

func TestRegisterMissingFields(t *testing.T) {
	client := newTestDaemon(t)

	err := client.Call(context.Background(), "register", map[string]any{
		"channel_id": "channel-1",
	}, nil)
	if err == nil {
		t.Fatal("expected error for missing message_id/account_id, got nil")
	}
}
