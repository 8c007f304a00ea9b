// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/fanoutlabs/coordinator/fanout"
	"github.com/fanoutlabs/coordinator/lib/codec"
	"github.com/fanoutlabs/coordinator/lib/wire"
)

// registerActions registers the coordinator's wire protocol actions.
//
// "status" is a cheap introspection call: it never blocks and never
// touches a round in flight. "register" and "notify" are the two
// halves of one agent's turn: register blocks the connection open
// until it is this agent's turn to act, and notify (a separate
// connection) delivers the agent's reply once it has one.
func (d *coordinatorDaemon) registerActions(server *wire.Server) {
	server.Handle("status", d.handleStatus)
	server.Handle("register", d.handleRegister)
	server.Handle("notify", d.handleNotify)
}

type statusRequest struct {
	ChannelID string `cbor:"channel_id"`
}

type statusResponse struct {
	Known            bool `cbor:"known"`
	IsProcessing     bool `cbor:"is_processing"`
	CurrentRound     int  `cbor:"current_round"`
	RegisteredAgents int  `cbor:"registered_agents"`
}

func (d *coordinatorDaemon) handleStatus(ctx context.Context, raw []byte) (any, error) {
	var req statusRequest
	if err := codec.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if req.ChannelID == "" {
		return nil, fmt.Errorf("missing required field: channel_id")
	}

	status := d.coordinator.FanOutStatus(req.ChannelID)
	return statusResponse{
		Known:            status.Known,
		IsProcessing:     status.IsProcessing,
		CurrentRound:     status.CurrentRound,
		RegisteredAgents: status.RegisteredAgents,
	}, nil
}

// registerRequest mirrors fanout.RegisterParams, minus the Process
// callback and Ctx value, which have no wire representation. Ctx is
// always nil for wire-originated registrations; callers that need to
// correlate a turn with caller-local state should key off
// AccountID and ChannelID instead.
type registerRequest struct {
	ChannelID        string   `cbor:"channel_id"`
	MessageID        string   `cbor:"message_id"`
	AccountID        string   `cbor:"account_id"`
	BotUserID        string   `cbor:"bot_user_id"`
	TriggerBotUserID string   `cbor:"trigger_bot_user_id,omitempty"`
	MentionedUserIDs []string `cbor:"mentioned_user_ids,omitempty"`
	MaxRounds        int      `cbor:"max_rounds,omitempty"`
	TriggerText      string   `cbor:"trigger_text,omitempty"`
}

// registerResponse is delivered once the coordinator actually invokes
// this agent — which may be long after the request was sent, since
// the agent ahead of it in the round may run for up to
// fanout.AgentResponseTimeout.
type registerResponse struct {
	Round                int      `cbor:"round"`
	AccumulatedResponses []string `cbor:"accumulated_responses"`
}

// handleRegister blocks the connection open until the coordinator
// invokes this agent's turn, then returns that turn's round context.
// The caller is expected to generate a reply out of band and deliver
// it through the "notify" action; it must not reuse this connection.
func (d *coordinatorDaemon) handleRegister(ctx context.Context, raw []byte) (any, error) {
	var req registerRequest
	if err := codec.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if req.ChannelID == "" || req.MessageID == "" || req.AccountID == "" {
		return nil, fmt.Errorf("missing required field: channel_id, message_id, and account_id are all required")
	}

	turn := make(chan fanout.AugmentedContext, 1)

	d.coordinator.RegisterFanOutAgent(fanout.RegisterParams{
		ChannelID:        req.ChannelID,
		MessageID:        req.MessageID,
		AccountID:        req.AccountID,
		BotUserID:        req.BotUserID,
		TriggerBotUserID: req.TriggerBotUserID,
		MentionedUserIDs: req.MentionedUserIDs,
		MaxRounds:        req.MaxRounds,
		TriggerText:      req.TriggerText,
		Process: func(_ context.Context, augmented fanout.AugmentedContext) error {
			turn <- augmented
			return nil
		},
	})

	select {
	case augmented := <-turn:
		return registerResponse{
			Round:                augmented.Round,
			AccumulatedResponses: augmented.AccumulatedResponses,
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type notifyRequest struct {
	ChannelID    string `cbor:"channel_id"`
	AccountID    string `cbor:"account_id"`
	ResponseText string `cbor:"response_text,omitempty"`
}

// handleNotify delivers the reply for a turn opened by a prior
// "register" call. A channel or account unknown to the coordinator
// (e.g. because the turn already timed out) is a silent success, not
// an error: the caller has no way to tell the two cases apart and
// nothing useful to do differently.
func (d *coordinatorDaemon) handleNotify(ctx context.Context, raw []byte) (any, error) {
	var req notifyRequest
	if err := codec.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if req.ChannelID == "" || req.AccountID == "" {
		return nil, fmt.Errorf("missing required field: channel_id and account_id are both required")
	}

	d.coordinator.NotifyFanOutResponse(req.ChannelID, req.AccountID, req.ResponseText)
	return nil, nil
}
