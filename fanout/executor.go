// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"context"
)

// executeRound runs one round for pr. The caller is responsible for
// confirming the channel is not already owned by
// another round before calling this; executeRound itself takes
// ownership (sets isProcessing) as its first step and keeps it for
// the duration of any rounds chained immediately afterward, so that
// an observer never sees isProcessing go false mid-chain.
func (s *channelState) executeRound(pr *pendingRound) {
	s.mu.Lock()
	s.isProcessing = true
	s.currentRound++
	round := s.currentRound

	if round == 1 {
		s.conversation.reset()
		s.conversation.append(humanAgentID, pr.triggerText)
	}

	regs := append([]*agentRegistration(nil), pr.registrations...)
	mentionedBotIDs := pr.mentionedBotIDs
	prevResponders := make(map[string]bool, len(s.previousRoundResponders))
	for id := range s.previousRoundResponders {
		prevResponders[id] = true
	}
	s.mu.Unlock()

	s.coordinator.publish(Event{Kind: EventRoundStarted, ChannelID: s.channelID, Round: round})

	// Visibility partition: only agents with an unseen message
	// participate this round.
	var hasNew []*agentRegistration
	for _, reg := range regs {
		if s.conversation.watermark(reg.accountID) < s.conversation.tailIndex() {
			hasNew = append(hasNew, reg)
		}
	}

	ordered := s.orderAgents(round, hasNew, mentionedBotIDs, prevResponders)

	responders := make(map[string]bool)
	for _, reg := range ordered {
		if reg.skipFirstRound && round == 1 {
			continue
		}
		if s.invokeAgent(round, reg) {
			responders[reg.accountID] = true
		}
	}

	s.mu.Lock()
	anyResponded := len(responders) > 0
	s.previousRoundResponders = responders
	s.mu.Unlock()

	s.coordinator.publish(Event{Kind: EventRoundTerminated, ChannelID: s.channelID, Round: round})

	s.afterRound(round, anyResponded, regs, mentionedBotIDs)
}

// invokeAgent runs a single agent's turn: builds the augmented
// context, advances its watermark ahead of the call so its own reply
// is never re-delivered to it, invokes Process, and awaits the
// response (or timeout). Returns whether the agent produced a
// non-silent response.
func (s *channelState) invokeAgent(round int, reg *agentRegistration) bool {
	since := s.conversation.watermark(reg.accountID)
	accumulated := s.conversation.accumulatedResponses(since)
	augmented := AugmentedContext{
		Base:                 reg.ctx,
		Round:                round,
		AccumulatedResponses: accumulated,
	}

	// Advance the watermark before invoking, so the agent's own
	// reply is never re-delivered to it.
	s.conversation.setWatermark(reg.accountID, s.conversation.tailIndex())

	resultCh := make(chan responseResult, 1)
	s.mu.Lock()
	s.responseCallbacks[reg.accountID] = resultCh
	s.mu.Unlock()

	s.coordinator.publish(Event{Kind: EventAgentInvoked, ChannelID: s.channelID, Round: round, AgentID: reg.accountID})

	process := reg.process
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("fan-out agent processor panicked",
					"channel", s.channelID, "agent", reg.accountID, "panic", r)
			}
		}()
		if err := process(context.Background(), augmented); err != nil {
			s.logger.Warn("fan-out agent processor returned an error; awaiting response anyway",
				"channel", s.channelID, "agent", reg.accountID, "error", err)
		}
	}()

	timeoutTimer := s.clock.AfterFunc(s.responseTimeout, func() {
		s.resolveTimeout(reg.accountID)
	})

	result := <-resultCh
	timeoutTimer.Stop()

	responded := result.text != "" && !s.coordinator.silentReply(result.text)
	if responded {
		s.conversation.append(reg.accountID, result.text)
		s.coordinator.publish(Event{Kind: EventAgentResponded, ChannelID: s.channelID, Round: round, AgentID: reg.accountID})
	}
	return responded
}

// resolveTimeout fires AgentResponseTimeout after the wait for
// accountID's response. It is a no-op if NotifyFanOutResponse already
// popped the callback.
func (s *channelState) resolveTimeout(accountID string) {
	s.mu.Lock()
	ch, ok := s.responseCallbacks[accountID]
	if ok {
		delete(s.responseCallbacks, accountID)
	}
	s.mu.Unlock()

	if ok {
		select {
		case ch <- responseResult{}:
		default:
		}
	}
}
