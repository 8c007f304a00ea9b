// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

// FanOutGuidance is prose that agent processors are expected to
// prepend to their prompts when operating under fan-out coordination,
// so the underlying model understands why it is being invoked with an
// accumulated-responses view rather than the raw channel history.
const FanOutGuidance = `You are one of several agents sharing this conversation channel. ` +
	`The coordinator has serialized your turn so you can see what the other ` +
	`agents said before you respond. If you have nothing useful to add, reply ` +
	`with the silent-reply sentinel instead of a filler message — the ` +
	`conversation will continue without you.`
