// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

import (
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fanoutlabs/coordinator/lib/clock"
)

// EventKind enumerates the round lifecycle events a Coordinator
// reports to an optional EventSink. This is a pure observability side
// channel: nothing in the core depends on a sink being present, and no
// event carries state that survives a process restart.
type EventKind string

const (
	EventRoundStarted    EventKind = "round_started"
	EventAgentInvoked    EventKind = "agent_invoked"
	EventAgentResponded  EventKind = "agent_responded"
	EventRoundTerminated EventKind = "round_terminated"
)

// Event describes one round lifecycle transition for a channel.
type Event struct {
	Kind      EventKind
	ChannelID string
	Round     int
	AgentID   string
}

// EventSink receives round lifecycle events. Implementations must not
// block for long; the executor calls Publish synchronously between
// suspension points. lib/observehub implements this interface to feed
// a WebSocket broadcast.
type EventSink interface {
	Publish(Event)
}

// discardSink is the default EventSink: it does nothing.
type discardSink struct{}

func (discardSink) Publish(Event) {}

// IsSilentReplyText reports whether a response text counts as a
// non-response for chaining purposes. The token layer that actually
// defines the sentinel format is out of scope for this module;
// callers inject their own predicate via WithSilentReplyPredicate.
type IsSilentReplyText func(text string) bool

// DefaultSilentReplySentinel is the fallback silent-reply marker used
// when no predicate is supplied. A real deployment's token layer will
// normally override this with its own richer predicate.
const DefaultSilentReplySentinel = "<<no-reply>>"

// DefaultIsSilentReplyText treats an exact (trimmed) match against
// DefaultSilentReplySentinel as silence.
func DefaultIsSilentReplyText(text string) bool {
	return strings.TrimSpace(text) == DefaultSilentReplySentinel
}

// Coordinator owns the per-channel fan-out state for a process. It is
// an explicit, caller-constructed handle rather than mutable
// package-level state.
type Coordinator struct {
	mu       sync.Mutex
	channels map[string]*channelState

	clock            clock.Clock
	rand             *safeRand
	logger           *slog.Logger
	silentReply      IsSilentReplyText
	defaultMaxRounds int
	sink             EventSink
	collectionWindow time.Duration
	responseTimeout  time.Duration
}

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

// WithClock injects a clock.Clock, for deterministic tests. Defaults
// to clock.Real().
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithRand injects the randomness source used for ordering shuffles,
// so tests can make agent ordering deterministic. Defaults to a
// process-seeded *rand.Rand.
func WithRand(r *rand.Rand) Option {
	return func(co *Coordinator) { co.rand = &safeRand{r: r} }
}

// WithLogger injects a structured logger. Defaults to a JSON handler
// on os.Stderr at Info level.
func WithLogger(logger *slog.Logger) Option {
	return func(co *Coordinator) { co.logger = logger }
}

// WithSilentReplyPredicate injects the token layer's silent-reply
// predicate. Defaults to DefaultIsSilentReplyText.
func WithSilentReplyPredicate(p IsSilentReplyText) Option {
	return func(co *Coordinator) { co.silentReply = p }
}

// WithDefaultMaxRounds overrides DefaultMaxRounds for channels created
// without an explicit RegisterParams.MaxRounds.
func WithDefaultMaxRounds(n int) Option {
	return func(co *Coordinator) { co.defaultMaxRounds = n }
}

// WithEventSink attaches an observer for round lifecycle events.
func WithEventSink(sink EventSink) Option {
	return func(co *Coordinator) { co.sink = sink }
}

// WithCollectionWindow overrides AgentCollectionWindow, the delay
// between a fan-out channel's first registration for a trigger
// message and the ordering/invocation of its registered agents.
func WithCollectionWindow(d time.Duration) Option {
	return func(co *Coordinator) { co.collectionWindow = d }
}

// WithResponseTimeout overrides AgentResponseTimeout, how long an
// invoked agent's turn waits for NotifyFanOutResponse before the
// coordinator treats it as a non-response and moves on.
func WithResponseTimeout(d time.Duration) Option {
	return func(co *Coordinator) { co.responseTimeout = d }
}

// NewCoordinator constructs a Coordinator ready to accept
// registrations. Caller-owned: there is no package-level singleton.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		channels:         make(map[string]*channelState),
		clock:            clock.Real(),
		rand:             &safeRand{r: rand.New(rand.NewSource(rand.Int63()))},
		logger:           slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
		silentReply:      DefaultIsSilentReplyText,
		defaultMaxRounds: DefaultMaxRounds,
		sink:             discardSink{},
		collectionWindow: AgentCollectionWindow,
		responseTimeout:  AgentResponseTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getOrCreate locates or lazily creates the state for channelID. If
// maxRounds is non-zero, it updates the channel's round limit —
// getOrCreate is idempotent on identity but not on roundLimit.
func (c *Coordinator) getOrCreate(channelID string, maxRounds int) *channelState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.channels[channelID]
	if !ok {
		limit := c.defaultMaxRounds
		if maxRounds > 0 {
			limit = maxRounds
		}
		state = newChannelState(channelID, limit, c)
		c.channels[channelID] = state
		return state
	}

	if maxRounds > 0 {
		state.mu.Lock()
		state.roundLimit = maxRounds
		state.mu.Unlock()
	}
	return state
}

// lookup returns the existing state for channelID, or nil if no
// channel with that id has ever registered an agent.
func (c *Coordinator) lookup(channelID string) *channelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[channelID]
}

func (c *Coordinator) publish(event Event) {
	c.sink.Publish(event)
}

// safeRand guards a *rand.Rand for use by multiple channels' executor
// goroutines, which run concurrently across different channels.
// *rand.Rand itself is not safe for concurrent use.
type safeRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// shuffle performs a Fisher-Yates shuffle of a slice of length n via
// the swap callback, so the exact algorithm is under our control
// rather than whatever a library default happens to do.
func (s *safeRand) shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := n - 1; i > 0; i-- {
		j := s.r.Intn(i + 1)
		swap(i, j)
	}
}
