// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package observehub broadcasts round lifecycle events over a
// WebSocket stream, for dashboards and debugging tools that want to
// watch fan-out coordination happen in real time.
//
// It is a pure side channel. A Hub implements fanout.EventSink; the
// coordinator publishes events to it the same way it would to any
// other sink, with no awareness of whether a WebSocket client is
// connected, or even whether the hub is wired in at all. No event is
// persisted or replayed: a client that connects mid-round sees only
// what happens from that point forward.
package observehub
