package messages

import (
	"iter"
	"slices"

	"github.com/google/uuid"
	"github.com/quayside/gangway/pkg/uuidx"
)

// Usage accumulates token counts reported by the provider across a run.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
	_                struct{}
}

// Add folds another usage report into this one.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// History is the ordered conversation a completion request runs against.
// It supports fork/checkpoint/merge so a turn can accumulate messages in
// isolation and land them back atomically when the turn resolves.
type History struct {
	id       uuid.UUID
	messages []Message[ModelMessage]
	initLen  int
	usage    Usage
}

// NewHistory returns an empty history with a fresh turn ID.
func NewHistory() *History {
	return &History{
		id:       uuidx.New(),
		messages: make([]Message[ModelMessage], 0),
	}
}

// ID returns the identifier of the current turn.
func (h *History) ID() uuid.UUID { return h.id }

// Len returns the total number of messages held.
func (h *History) Len() int { return len(h.messages) }

// TurnLen returns how many messages were added since the last fork.
func (h *History) TurnLen() int { return len(h.messages) - h.initLen }

// Messages returns a copy of all messages in order.
func (h *History) Messages() []Message[ModelMessage] {
	return slices.Clone(h.messages)
}

// MessagesIter iterates the messages in order without copying.
func (h *History) MessagesIter() iter.Seq[Message[ModelMessage]] {
	return slices.Values(h.messages)
}

// Usage returns the accumulated token usage.
func (h *History) Usage() Usage { return h.usage }

// AddUsage folds a provider usage report into the history.
func (h *History) AddUsage(u Usage) { h.usage.Add(u) }

func eraseType[T ModelMessage](m Message[T]) Message[ModelMessage] {
	return Message[ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}
}

// AddMessage appends any typed message to the history.
func AddMessage[T ModelMessage](h *History, m Message[T]) {
	h.add(eraseType(m))
}

// AddInstructions appends a system prompt message.
func (h *History) AddInstructions(m Message[InstructionsMessage]) { h.add(eraseType(m)) }

// AddUserPrompt appends a user message.
func (h *History) AddUserPrompt(m Message[UserMessage]) { h.add(eraseType(m)) }

// AddAssistantMessage appends a model response.
func (h *History) AddAssistantMessage(m Message[AssistantMessage]) { h.add(eraseType(m)) }

// AddToolCall appends a model tool-call request.
func (h *History) AddToolCall(m Message[ToolCallMessage]) { h.add(eraseType(m)) }

// AddToolResponse appends a function invocation result.
func (h *History) AddToolResponse(m Message[ToolResponse]) { h.add(eraseType(m)) }

func (h *History) add(m Message[ModelMessage]) {
	h.messages = append(h.messages, m)
}

// Fork returns a new history seeded with the current messages and a fresh
// turn ID. Messages added to the fork merge back via Checkpoint.
func (h *History) Fork() *History {
	return &History{
		id:       uuidx.New(),
		messages: slices.Clone(h.messages),
		initLen:  len(h.messages),
	}
}

// Checkpoint captures the messages added since the fork plus the usage
// accumulated along the way.
func (h *History) Checkpoint() Checkpoint {
	return Checkpoint{
		turnID:   h.id,
		messages: slices.Clone(h.messages[h.initLen:]),
		usage:    h.usage,
	}
}

// Join merges a forked history's new messages and usage back into this one.
func (h *History) Join(fork *History) {
	fork.Checkpoint().MergeInto(h)
}

// Checkpoint is an immutable snapshot of one turn's contribution to a
// conversation.
type Checkpoint struct {
	turnID   uuid.UUID
	messages []Message[ModelMessage]
	usage    Usage
	_        struct{}
}

// TurnID identifies the turn the checkpoint was taken from.
func (c Checkpoint) TurnID() uuid.UUID { return c.turnID }

// Messages returns the messages captured in the checkpoint.
func (c Checkpoint) Messages() []Message[ModelMessage] {
	return slices.Clone(c.messages)
}

// MergeInto appends the checkpointed messages and usage to the target
// history.
func (c Checkpoint) MergeInto(h *History) {
	h.messages = append(h.messages, c.messages...)
	h.usage.Add(c.usage)
}
