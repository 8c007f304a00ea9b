// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import "time"

// AgentCollectionWindow is how long the coordinator waits after the
// first registration for a trigger message before it orders and
// invokes the registered agents.
const AgentCollectionWindow = 1500 * time.Millisecond

// AgentResponseTimeout is how long the coordinator waits for an
// invoked agent to report its response via NotifyFanOutResponse before
// treating the turn as "no response" and moving to the next agent.
const AgentResponseTimeout = 45 * time.Second

// DefaultMaxRounds is the round ceiling applied to a channel unless a
// registration overrides it via RegisterParams.MaxRounds.
const DefaultMaxRounds = 20

// noWatermark is the sentinel watermark value meaning "has seen
// nothing yet".
const noWatermark = -1
