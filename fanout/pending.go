// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import "github.com/fanoutlabs/coordinator/lib/clock"

// pendingRound is an in-progress collection of registrations for a
// single trigger message, waiting for its collection window to close
// (or queued behind a round already in flight).
type pendingRound struct {
	triggerMessageID string
	triggerText      string

	// registrations is ordered by arrival and deduplicated by
	// accountID.
	registrations []*agentRegistration
	seenAccounts  map[string]bool

	// mentionedBotIDs preserves the trigger's mention order, used by
	// round-1 ordering only. Chained rounds inherit whatever value
	// was set on the PendingRound that started the conversation but
	// never consult it for currentRound > 1.
	mentionedBotIDs []string

	// collectionTimer fires executeRound when the collection window
	// elapses. Nil for rounds synthesized without a window (chained
	// rounds) and after cancelTimer; executing the round does not clear
	// it.
	collectionTimer *clock.Timer
}

func newPendingRound(messageID, triggerText string, mentionedBotIDs []string) *pendingRound {
	return &pendingRound{
		triggerMessageID: messageID,
		triggerText:      triggerText,
		mentionedBotIDs:  mentionedBotIDs,
		seenAccounts:     make(map[string]bool),
	}
}

// addRegistration appends reg unless its accountID has already been
// registered for this pending round.
func (p *pendingRound) addRegistration(reg *agentRegistration) {
	if p.seenAccounts[reg.accountID] {
		return
	}
	p.seenAccounts[reg.accountID] = true
	p.registrations = append(p.registrations, reg)
}

// cancelTimer stops the collection timer if one is armed. Safe to
// call on a pendingRound with no timer (chained rounds have none).
func (p *pendingRound) cancelTimer() {
	if p.collectionTimer != nil {
		p.collectionTimer.Stop()
		p.collectionTimer = nil
	}
}
