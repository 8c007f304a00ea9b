// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fanout serializes the reactions of multiple independent chat
// agents to shared messages in a multi-agent conversation channel.
//
// Each agent process receives an inbound event (a human message, or a
// bot's reply) independently through its own event source. Without
// coordination, every agent would answer in parallel against a stale
// view of the conversation. A Coordinator collects these independent
// registrations for a trigger message inside a short window, then
// releases the agents one at a time in turn-taking rounds, so each
// agent sees what the agents before it in the round produced.
//
// # Usage
//
//	co := fanout.NewCoordinator(fanout.WithLogger(logger))
//
//	co.RegisterFanOutAgent(fanout.RegisterParams{
//	    ChannelID:   "room:ops",
//	    MessageID:   "m1",
//	    AccountID:   "agent-a",
//	    BotUserID:   "@agent-a:example.org",
//	    TriggerText: "deploy the fix",
//	    Ctx:         myPreflightCtx,
//	    Process: func(ctx context.Context, augmented fanout.AugmentedContext) error {
//	        go runAgentPipeline(augmented) // reports back asynchronously
//	        return nil
//	    },
//	})
//
//	// Later, once the agent pipeline has a reply (or decides to stay
//	// silent):
//	co.NotifyFanOutResponse("room:ops", "agent-a", "done, deployed")
//
// A Coordinator is a caller-owned handle — there is no package-level
// singleton — and is safe for concurrent use across any number of
// channels. Within a single channel, rounds execute strictly
// sequentially; across channels, rounds proceed independently.
package fanout
