// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"math/rand"
	"testing"
)

func newTestChannelState() *channelState {
	return &channelState{rand: &safeRand{r: rand.New(rand.NewSource(1))}}
}

func accountIDs(regs []*agentRegistration) []string {
	ids := make([]string, len(regs))
	for i, r := range regs {
		ids[i] = r.accountID
	}
	return ids
}

func TestOrderByMentionPlacesMentionedFirstInMentionOrder(t *testing.T) {
	t.Parallel()

	s := newTestChannelState()
	a := &agentRegistration{accountID: "A", botUserID: "botA"}
	b := &agentRegistration{accountID: "B", botUserID: "botB"}
	c := &agentRegistration{accountID: "C", botUserID: "botC"}

	ordered := s.orderByMention([]*agentRegistration{a, b, c}, []string{"botB", "botA"})

	got := accountIDs(ordered)
	if got[0] != "B" || got[1] != "A" {
		t.Fatalf("mentioned order = %v, want B, A first", got)
	}
	if got[2] != "C" {
		t.Fatalf("unmentioned agent missing or misplaced: %v", got)
	}
}

func TestOrderByMentionIgnoresMentionsWithNoMatchingRegistration(t *testing.T) {
	t.Parallel()

	s := newTestChannelState()
	a := &agentRegistration{accountID: "A", botUserID: "botA"}

	ordered := s.orderByMention([]*agentRegistration{a}, []string{"botZ"})
	if len(ordered) != 1 || ordered[0].accountID != "A" {
		t.Fatalf("ordered = %v, want [A]", accountIDs(ordered))
	}
}

func TestOrderByPreviousRespondersPlacesThemFirst(t *testing.T) {
	t.Parallel()

	s := newTestChannelState()
	a := &agentRegistration{accountID: "A"}
	b := &agentRegistration{accountID: "B"}
	c := &agentRegistration{accountID: "C"}

	ordered := s.orderByPreviousResponders([]*agentRegistration{a, b, c}, map[string]bool{"B": true, "C": true})

	got := accountIDs(ordered)
	isPriority := map[string]bool{got[0]: true, got[1]: true}
	if !isPriority["B"] || !isPriority["C"] {
		t.Fatalf("previous responders should occupy the first two slots: %v", got)
	}
	if got[2] != "A" {
		t.Fatalf("non-responder should be last: %v", got)
	}
}

func TestOrderAgentsDispatchesByRound(t *testing.T) {
	t.Parallel()

	s := newTestChannelState()
	a := &agentRegistration{accountID: "A", botUserID: "botA"}

	round1 := s.orderAgents(1, []*agentRegistration{a}, []string{"botA"}, nil)
	if len(round1) != 1 || round1[0].accountID != "A" {
		t.Fatalf("round 1 ordering = %v", accountIDs(round1))
	}

	round2 := s.orderAgents(2, []*agentRegistration{a}, []string{"botA"}, map[string]bool{"A": true})
	if len(round2) != 1 || round2[0].accountID != "A" {
		t.Fatalf("round 2 ordering = %v", accountIDs(round2))
	}
}
