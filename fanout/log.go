// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fanout

// humanAgentID is the reserved agentId for the message that triggers a
// conversation. It never appears in accumulatedResponses.
const humanAgentID = "human"

// ConversationMessage is one entry in a channel's append-only log.
type ConversationMessage struct {
	// AgentID is the opaque agent identifier that authored the
	// message, or humanAgentID for the external trigger message.
	AgentID string

	// Content is the message text.
	Content string

	// Index is a monotonic, non-negative, unique-within-conversation
	// sequence number assigned at append time.
	Index int
}

// conversationLog is the per-channel append-only message sequence with
// per-agent watermarks. It is reset to empty at the start of every new
// conversation (round 1 of a fresh trigger).
type conversationLog struct {
	messages   []ConversationMessage
	watermarks map[string]int
	nextIndex  int
}

func newConversationLog() *conversationLog {
	return &conversationLog{
		watermarks: make(map[string]int),
	}
}

// reset clears the log back to empty, for the first round of a new
// conversation.
func (l *conversationLog) reset() {
	l.messages = nil
	l.watermarks = make(map[string]int)
	l.nextIndex = 0
}

// append adds a message authored by agentID and returns it. The
// appending agent's own watermark is advanced to the new message's
// index: after a successful append by agent a, watermarks[a] equals
// the appended message's index.
func (l *conversationLog) append(agentID, content string) ConversationMessage {
	msg := ConversationMessage{
		AgentID: agentID,
		Content: content,
		Index:   l.nextIndex,
	}
	l.messages = append(l.messages, msg)
	l.nextIndex++
	l.watermarks[agentID] = msg.Index
	return msg
}

// watermark returns the highest index agentID has been shown, or
// noWatermark if the agent has seen nothing yet.
func (l *conversationLog) watermark(agentID string) int {
	if w, ok := l.watermarks[agentID]; ok {
		return w
	}
	return noWatermark
}

// setWatermark advances agentID's watermark. Callers only ever move a
// watermark forward; the executor enforces that ordering.
func (l *conversationLog) setWatermark(agentID string, index int) {
	l.watermarks[agentID] = index
}

// tailIndex returns the index of the most recently appended message,
// or noWatermark if the log is empty.
func (l *conversationLog) tailIndex() int {
	if len(l.messages) == 0 {
		return noWatermark
	}
	return l.messages[len(l.messages)-1].Index
}

// accumulatedResponses returns "[{agentId}]: {content}" for every
// message with index greater than since, excluding human-authored
// messages, preserving log order. This is the view handed to an agent
// as AugmentedContext.AccumulatedResponses.
func (l *conversationLog) accumulatedResponses(since int) []string {
	var out []string
	for _, msg := range l.messages {
		if msg.Index <= since {
			continue
		}
		if msg.AgentID == humanAgentID {
			continue
		}
		out = append(out, "["+msg.AgentID+"]: "+msg.Content)
	}
	return out
}

// hasUnseen reports whether agentID has not yet seen the current tail
// of the log.
func (l *conversationLog) hasUnseen(agentID string) bool {
	return l.watermark(agentID) < l.tailIndex()
}
