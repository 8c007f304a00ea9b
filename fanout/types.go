// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import "context"

// ProcessFunc delivers an augmented turn to an agent's processing
// pipeline. It returns once the agent has accepted the work (the
// external pipeline runs the actual reply generation out of band and
// reports the outcome later through Coordinator.NotifyFanOutResponse).
//
// A non-nil error is logged and treated as "no response was accepted"
// — the coordinator still waits out AgentResponseTimeout in case a
// notify arrives anyway, tolerating late or out-of-band delivery.
type ProcessFunc func(ctx context.Context, augmented AugmentedContext) error

// AugmentedContext is the explicit, typed turn context passed to an
// agent's ProcessFunc in place of hidden fields threaded through a
// generic ctx value. The executor builds one of these per agent per
// round; Base carries whatever opaque value the registration
// supplied.
type AugmentedContext struct {
	// Base is the registration's own Ctx value, unmodified.
	Base any

	// Round is the 1-based round number this invocation belongs to.
	Round int

	// AccumulatedResponses lists "[agentId]: content" for every
	// message the agent has not yet seen, oldest first. Human-
	// authored messages are never included here (they are folded
	// into round 1's initial trigger handling instead).
	AccumulatedResponses []string
}

// RoundInfo is the round metadata recoverable from an AugmentedContext
// via GetFanOutRoundInfo.
type RoundInfo struct {
	Round                int
	AccumulatedResponses []string
}

// GetFanOutRoundInfo extracts the round metadata the executor attached
// to ctx.
func GetFanOutRoundInfo(ctx AugmentedContext) RoundInfo {
	return RoundInfo{
		Round:                ctx.Round,
		AccumulatedResponses: ctx.AccumulatedResponses,
	}
}

// RegisterParams are the inputs to Coordinator.RegisterFanOutAgent.
type RegisterParams struct {
	// ChannelID identifies the fan-out channel.
	ChannelID string

	// MessageID is the opaque id of the message that prompted this
	// registration.
	MessageID string

	// AccountID is this agent's opaque identifier. Registrations for
	// the same MessageID are deduplicated by AccountID.
	AccountID string

	// BotUserID is the opaque chat identifier used for mention
	// matching and self-exclusion.
	BotUserID string

	// TriggerBotUserID is the author of the triggering message, if
	// known. Self-exclusion (skipFirstRound) is computed by
	// comparing this to BotUserID — never by comparing AccountID.
	TriggerBotUserID string

	// MentionedUserIDs lists bot ids explicitly mentioned in the
	// trigger message, in mention order. Only meaningful for round 1
	// ordering.
	MentionedUserIDs []string

	// Ctx is an opaque preflight context value the executor will
	// wrap in AugmentedContext and pass back to Process.
	Ctx any

	// Process is invoked once per round this agent participates in.
	Process ProcessFunc

	// MaxRounds optionally overrides the channel's round ceiling.
	// Zero means "no override"; the last registration to supply a
	// non-zero value for a channel wins.
	MaxRounds int

	// TriggerText is the text of the triggering message, used only
	// when this registration is the one that opens a fresh
	// PendingRound and conversation round 1 has not yet been
	// initialized. If empty, a placeholder is substituted.
	TriggerText string
}

// agentRegistration is the internal record of one agent's
// participation in a pending or executing round.
type agentRegistration struct {
	accountID      string
	botUserID      string
	ctx            any
	process        ProcessFunc
	skipFirstRound bool
}
