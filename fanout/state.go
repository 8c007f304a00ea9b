// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fanoutlabs/coordinator/lib/clock"
)

// responseResult is what an agent's turn resolved to: either a
// response delivered through NotifyFanOutResponse, or the zero value
// if the AgentResponseTimeout elapsed first.
type responseResult struct {
	text string
}

// channelState is the single-writer record for one fan-out channel.
// It is created lazily on first registration and lives for the
// process lifetime; only the executor that owns isProcessing may
// mutate currentRound, previousRoundResponders, and the conversation
// log.
//
// mu guards every field below. The executor follows the snapshot-
// under-lock-then-release-before-suspending pattern throughout: it
// never holds mu while blocked on a timer or an agent's response.
type channelState struct {
	mu sync.Mutex

	channelID string

	currentRound            int
	isProcessing            bool
	pendingRound            *pendingRound
	previousRoundResponders map[string]bool
	roundLimit              int
	responseCallbacks       map[string]chan responseResult
	conversation            *conversationLog

	clock  clock.Clock
	rand   *safeRand
	logger *slog.Logger

	collectionWindow time.Duration
	responseTimeout  time.Duration

	coordinator *Coordinator
}

func newChannelState(channelID string, roundLimit int, c *Coordinator) *channelState {
	return &channelState{
		channelID:               channelID,
		roundLimit:              roundLimit,
		previousRoundResponders: make(map[string]bool),
		responseCallbacks:       make(map[string]chan responseResult),
		conversation:            newConversationLog(),
		clock:                   c.clock,
		rand:                    c.rand,
		logger:                  c.logger,
		collectionWindow:        c.collectionWindow,
		responseTimeout:         c.responseTimeout,
		coordinator:             c,
	}
}
