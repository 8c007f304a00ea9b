// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

// orderAgents produces the invocation order for one round's has-new
// agents.
//
// Round 1 places agents whose botUserID appears in mentionedBotIDs
// first, in the exact order of that list, with the remainder in
// randomized order. Chained rounds (round > 1) place agents from
// prevResponders first, shuffled among themselves, with the remainder
// shuffled after.
func (s *channelState) orderAgents(round int, hasNew []*agentRegistration, mentionedBotIDs []string, prevResponders map[string]bool) []*agentRegistration {
	if round == 1 {
		return s.orderByMention(hasNew, mentionedBotIDs)
	}
	return s.orderByPreviousResponders(hasNew, prevResponders)
}

func (s *channelState) orderByMention(hasNew []*agentRegistration, mentionedBotIDs []string) []*agentRegistration {
	remaining := append([]*agentRegistration(nil), hasNew...)

	var ordered []*agentRegistration
	for _, botID := range mentionedBotIDs {
		for i, reg := range remaining {
			if reg.botUserID == botID {
				ordered = append(ordered, reg)
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}

	s.rand.shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
	return append(ordered, remaining...)
}

func (s *channelState) orderByPreviousResponders(hasNew []*agentRegistration, prevResponders map[string]bool) []*agentRegistration {
	var priority, remainder []*agentRegistration
	for _, reg := range hasNew {
		if prevResponders[reg.accountID] {
			priority = append(priority, reg)
		} else {
			remainder = append(remainder, reg)
		}
	}

	s.rand.shuffle(len(priority), func(i, j int) { priority[i], priority[j] = priority[j], priority[i] })
	s.rand.shuffle(len(remainder), func(i, j int) { remainder[i], remainder[j] = remainder[j], remainder[i] })

	return append(priority, remainder...)
}
