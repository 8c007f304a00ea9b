// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

// afterRound decides what happens once one round has finished:
// terminate the conversation, drain a queued PendingRound (absorbing
// a new trigger that arrived mid-round), or synthesize a chained
// round so agents can react to each other's replies.
//
// isProcessing is kept true across any immediate continuation so an
// observer calling IsFanOutRoundActive never sees a gap mid-chain; it
// only goes false at an actual termination point.
func (s *channelState) afterRound(round int, anyResponded bool, regs []*agentRegistration, mentionedBotIDs []string) {
	s.mu.Lock()

	roundLimitReached := round >= s.roundLimit

	if roundLimitReached || !anyResponded {
		s.terminateLocked()

		queued := s.pendingRound
		s.pendingRound = nil
		if queued == nil {
			s.mu.Unlock()
			return
		}
		s.isProcessing = true
		s.mu.Unlock()
		s.executeRound(queued)
		return
	}

	if queued := s.pendingRound; queued != nil {
		s.pendingRound = nil
		s.mu.Unlock()
		s.executeRound(queued)
		return
	}

	s.mu.Unlock()

	if chained := s.synthesizeChainedRound(regs, mentionedBotIDs); chained != nil {
		s.executeRound(chained)
		return
	}

	s.mu.Lock()
	s.terminateLocked()
	s.mu.Unlock()
}

// terminateLocked resets the channel to its idle state. Must be
// called with s.mu held.
func (s *channelState) terminateLocked() {
	s.currentRound = 0
	s.previousRoundResponders = make(map[string]bool)
	s.isProcessing = false
}

// synthesizeChainedRound reuses the previous round's registrations and
// mentionedBotIDs to build a PendingRound with no collection window,
// if any registered agent still has an unseen message. Returns nil if
// nothing is unseen.
func (s *channelState) synthesizeChainedRound(regs []*agentRegistration, mentionedBotIDs []string) *pendingRound {
	anyUnseen := false
	for _, reg := range regs {
		if s.conversation.hasUnseen(reg.accountID) {
			anyUnseen = true
			break
		}
	}
	if !anyUnseen {
		return nil
	}

	pr := newPendingRound("", "", mentionedBotIDs)
	for _, reg := range regs {
		pr.addRegistration(reg)
	}
	return pr
}
