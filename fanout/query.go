// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

// IsFanOutRoundActive reports whether channelID currently has a round
// in flight. Used by external preflight logic to gate parallel
// handling of the same channel.
func (c *Coordinator) IsFanOutRoundActive(channelID string) bool {
	state := c.lookup(channelID)
	if state == nil {
		return false
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.isProcessing
}

// ChannelStatus is a snapshot of one channel's coordination state, for
// introspection endpoints.
type ChannelStatus struct {
	// Known is false if channelID has never had an agent register.
	Known bool

	IsProcessing     bool
	CurrentRound     int
	RegisteredAgents int
}

// FanOutStatus returns a snapshot of channelID's current state.
func (c *Coordinator) FanOutStatus(channelID string) ChannelStatus {
	state := c.lookup(channelID)
	if state == nil {
		return ChannelStatus{}
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	registered := 0
	if state.pendingRound != nil {
		registered = len(state.pendingRound.registrations)
	}

	return ChannelStatus{
		Known:            true,
		IsProcessing:     state.isProcessing,
		CurrentRound:     state.currentRound,
		RegisteredAgents: registered,
	}
}
