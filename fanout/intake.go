// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

// RegisterFanOutAgent accepts one agent's registration to react to a
// message in a fan-out channel. It always returns true, signalling to
// the caller that the coordinator now owns processing of this event —
// the caller must not independently process it.
func (c *Coordinator) RegisterFanOutAgent(params RegisterParams) bool {
	state := c.getOrCreate(params.ChannelID, params.MaxRounds)

	reg := &agentRegistration{
		accountID:      params.AccountID,
		botUserID:      params.BotUserID,
		ctx:            params.Ctx,
		process:        params.Process,
		skipFirstRound: params.TriggerBotUserID != "" && params.TriggerBotUserID == params.BotUserID,
	}

	state.mu.Lock()

	sameMessage := state.pendingRound != nil && state.pendingRound.triggerMessageID == params.MessageID
	if sameMessage {
		// An existing PendingRound is already collecting
		// registrations for this exact message: add this agent
		// without re-arming the collection window.
		state.pendingRound.addRegistration(reg)
		state.mu.Unlock()
		return true
	}

	// Either there is no PendingRound, or it is collecting for a
	// different (stale) message — discard it and open a fresh one
	// for params.MessageID. This also covers the isProcessing case:
	// the fresh PendingRound will be drained
	// by the round-chaining step once the in-flight round completes,
	// or directly by its own collection timer if that round finishes
	// first.
	if state.pendingRound != nil {
		state.pendingRound.cancelTimer()
	}

	triggerText := params.TriggerText
	if triggerText == "" {
		triggerText = "(trigger message)"
	}

	pr := newPendingRound(params.MessageID, triggerText, params.MentionedUserIDs)
	pr.addRegistration(reg)
	state.pendingRound = pr

	pr.collectionTimer = state.clock.AfterFunc(state.collectionWindow, func() {
		state.onCollectionWindowElapsed(pr)
	})

	state.mu.Unlock()
	return true
}

// onCollectionWindowElapsed runs when a PendingRound's collection
// timer fires. It is a no-op if the round is stale (already replaced
// or discarded) or if another round currently owns the channel — in
// the latter case the round-chaining step will drain this pending
// round once the in-flight execution completes.
func (s *channelState) onCollectionWindowElapsed(pr *pendingRound) {
	s.mu.Lock()
	if s.isProcessing || s.pendingRound != pr {
		s.mu.Unlock()
		return
	}
	s.pendingRound = nil
	s.isProcessing = true
	s.mu.Unlock()

	s.executeRound(pr)
}
