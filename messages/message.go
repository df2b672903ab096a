package messages

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ModelMessage constrains the payload types that can travel inside a
// Message envelope.
type ModelMessage interface {
	message()
}

// Request marks payloads that flow toward the model.
type Request interface {
	ModelMessage
	request()
}

// Response marks payloads produced by the model.
type Response interface {
	ModelMessage
	response()
}

// Message is the envelope around a payload: which run and turn it belongs
// to, who sent it, when, and any provider metadata captured along the way.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID       `json:"run_id,omitempty"`
	TurnID    uuid.UUID       `json:"turn_id,omitempty"`
	Payload   T               `json:"payload"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
	_         struct{}
}

// InstructionsMessage carries the system prompt for a completion request.
type InstructionsMessage struct {
	Content string `json:"content"`
	_       struct{}
}

func (InstructionsMessage) message() {}
func (InstructionsMessage) request() {}

// UserMessage is input from the user, either plain text or multipart.
type UserMessage struct {
	Content ContentOrParts `json:"content"`
	_       struct{}
}

func (UserMessage) message() {}
func (UserMessage) request() {}

// AssistantMessage is a model response. Refusal is set when the model
// declined to answer.
type AssistantMessage struct {
	Content AssistantContentOrParts `json:"content"`
	Refusal string                  `json:"refusal,omitempty"`
	_       struct{}
}

func (AssistantMessage) message()  {}
func (AssistantMessage) response() {}

// ToolCallData is a single function call requested by the model: the call
// ID to echo back, the function name, and the raw JSON arguments.
type ToolCallData struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	_         struct{}
}

// ToolCallMessage is a model response requesting one or more function
// invocations.
type ToolCallMessage struct {
	ToolCalls []ToolCallData `json:"tool_calls"`
	_         struct{}
}

func (ToolCallMessage) message()  {}
func (ToolCallMessage) response() {}

// ToolResponse is the result of a function invocation, keyed back to the
// originating call by ToolCallID.
type ToolResponse struct {
	ToolName   string `json:"tool_name"`
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	_          struct{}
}

func (ToolResponse) message() {}
func (ToolResponse) request() {}

// Retry asks the model to try again after a failed tool invocation.
type Retry struct {
	Error      error  `json:"error"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	_          struct{}
}

func (Retry) message() {}
func (Retry) request() {}

// New starts a message builder stamped with the current time.
func New() messageBuilder {
	return messageBuilder{timestamp: strfmt.DateTime(time.Now())}
}

type messageBuilder struct {
	sender    string
	timestamp strfmt.DateTime
	metadata  gjson.Result
	_         struct{}
}

// WithSender sets the sender recorded on built messages.
func (b messageBuilder) WithSender(sender string) messageBuilder {
	b.sender = sender
	return b
}

// WithTimestamp overrides the timestamp recorded on built messages.
func (b messageBuilder) WithTimestamp(ts strfmt.DateTime) messageBuilder {
	b.timestamp = ts
	return b
}

// WithMetadata attaches provider metadata to built messages.
func (b messageBuilder) WithMetadata(meta gjson.Result) messageBuilder {
	b.metadata = meta
	return b
}

func (b messageBuilder) Instructions(content string) Message[InstructionsMessage] {
	return Message[InstructionsMessage]{
		Payload:   InstructionsMessage{Content: content},
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}

func (b messageBuilder) UserPrompt(content string) Message[UserMessage] {
	return Message[UserMessage]{
		Payload:   UserMessage{Content: ContentOrParts{Content: content}},
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}

func (b messageBuilder) UserPromptMultipart(parts ...ContentPart) Message[UserMessage] {
	return Message[UserMessage]{
		Payload:   UserMessage{Content: ContentOrParts{Parts: parts}},
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}

func (b messageBuilder) AssistantMessage(content string) Message[AssistantMessage] {
	return Message[AssistantMessage]{
		Payload:   AssistantMessage{Content: AssistantContentOrParts{Content: content}},
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}

func (b messageBuilder) AssistantRefusal(reason string) Message[AssistantMessage] {
	return Message[AssistantMessage]{
		Payload:   AssistantMessage{Refusal: reason},
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}

func (b messageBuilder) ToolCall(calls []ToolCallData) Message[ToolCallMessage] {
	return Message[ToolCallMessage]{
		Payload:   ToolCallMessage{ToolCalls: calls},
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}

func (b messageBuilder) ToolResponse(callID, toolName, content string) Message[ToolResponse] {
	return Message[ToolResponse]{
		Payload: ToolResponse{
			ToolCallID: callID,
			ToolName:   toolName,
			Content:    content,
		},
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}
