// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

// NotifyFanOutResponse reports that accountID's reply (or explicit
// silence) is ready for the currently outstanding turn on channelID.
// This is the sole way external reply delivery informs the
// coordinator of an outcome.
//
// An unknown channel, or a notify arriving after the turn's
// AgentResponseTimeout already resolved the wait, is a silent no-op.
// Pass an empty responseText for explicit silence; it is treated the
// same as "no response" by the round executor.
func (c *Coordinator) NotifyFanOutResponse(channelID, accountID, responseText string) {
	state := c.lookup(channelID)
	if state == nil {
		return
	}

	state.mu.Lock()
	ch, ok := state.responseCallbacks[accountID]
	if ok {
		delete(state.responseCallbacks, accountID)
	}
	state.mu.Unlock()

	if !ok {
		return
	}

	select {
	case ch <- responseResult{text: responseText}:
	default:
		// The timeout goroutine already delivered first; this
		// notify lost the race and is dropped.
	}
}
