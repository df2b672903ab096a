package provider

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/quayside/gangway/messages"
	"github.com/quayside/gangway/tool"
)

// CompletionParams is everything one chat completion request needs.
type CompletionParams struct {
	// RunID ties the request to a larger run for tracing.
	RunID uuid.UUID

	// Instructions is the system prompt.
	Instructions string

	// Thread is the conversation the request runs against.
	Thread *messages.History

	// Stream selects incremental delivery over a single response event.
	Stream bool

	// Model resolves the model name; its connector serves the request.
	Model Model

	// Settings tunes sampling and limits; nil means provider defaults.
	Settings *ExecutionSettings

	// ResponseFormat constrains the response shape; nil means free text.
	ResponseFormat *ResponseFormat

	// FunctionChoice governs tool exposure and auto-invocation; nil means
	// tools are advertised with the provider's default choice behavior.
	FunctionChoice *FunctionChoiceBehavior

	// Tools are the functions advertised to the model.
	Tools []tool.Definition

	_ struct{}
}

// ExecutionSettings are the request-level knobs shared by chat providers.
// Nil pointer fields are omitted from the request so the provider default
// applies.
type ExecutionSettings struct {
	Temperature       *float64
	TopP              *float64
	MaxTokens         *int64
	FrequencyPenalty  *float64
	PresencePenalty   *float64
	Stop              []string
	Seed              *int64
	LogitBias         map[string]int64
	User              string
	ParallelToolCalls *bool
	_                 struct{}
}

// Validate rejects values the providers would refuse server-side, so bad
// requests fail before a network round trip.
func (s *ExecutionSettings) Validate() error {
	if s == nil {
		return nil
	}
	if s.MaxTokens != nil && *s.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", *s.MaxTokens)
	}
	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		return fmt.Errorf("temperature %0.2f out of range [0, 2]", *s.Temperature)
	}
	if s.TopP != nil && (*s.TopP < 0 || *s.TopP > 1) {
		return fmt.Errorf("top_p %0.2f out of range [0, 1]", *s.TopP)
	}
	if s.FrequencyPenalty != nil && (*s.FrequencyPenalty < -2 || *s.FrequencyPenalty > 2) {
		return fmt.Errorf("frequency penalty %0.2f out of range [-2, 2]", *s.FrequencyPenalty)
	}
	if s.PresencePenalty != nil && (*s.PresencePenalty < -2 || *s.PresencePenalty > 2) {
		return fmt.Errorf("presence penalty %0.2f out of range [-2, 2]", *s.PresencePenalty)
	}
	if len(s.Stop) > 4 {
		return fmt.Errorf("at most 4 stop sequences are supported, got %d", len(s.Stop))
	}
	return nil
}

// Response format kinds understood by the connectors.
const (
	FormatText       = "text"
	FormatJSONObject = "json_object"
	FormatJSONSchema = "json_schema"
)

// ResponseFormat constrains the shape of the model's reply.
type ResponseFormat struct {
	// Type is one of FormatText, FormatJSONObject, or FormatJSONSchema.
	Type string

	// JSONSchema carries the schema when Type is FormatJSONSchema.
	JSONSchema *StructuredOutput

	_ struct{}
}

// Validate checks the format type and its schema requirement.
func (f *ResponseFormat) Validate() error {
	if f == nil {
		return nil
	}
	switch f.Type {
	case FormatText, FormatJSONObject:
		return nil
	case FormatJSONSchema:
		if f.JSONSchema == nil || f.JSONSchema.Schema == nil {
			return errors.New("json_schema response format requires a schema")
		}
		if f.JSONSchema.Name == "" {
			return errors.New("json_schema response format requires a name")
		}
		return nil
	default:
		return fmt.Errorf("unknown response format %q", f.Type)
	}
}

// StructuredOutput names a JSON schema for structured responses.
type StructuredOutput struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema

	// Strict requests provider-side schema enforcement.
	Strict bool

	_ struct{}
}

// Function choice modes.
const (
	FunctionChoiceAuto     = "auto"
	FunctionChoiceRequired = "required"
	FunctionChoiceNone     = "none"
)

// DefaultMaximumAutoInvokeAttempts bounds the auto-invocation loop when the
// caller does not choose a limit.
const DefaultMaximumAutoInvokeAttempts = 5

// FunctionChoiceBehavior governs how tool calls are requested and whether
// the invocation loop runs them automatically.
type FunctionChoiceBehavior struct {
	// Choice is auto, required, or none.
	Choice string

	// MaximumAutoInvokeAttempts bounds how many tool-call rounds the loop
	// will run before forcing a text answer. Zero disables auto-invocation.
	MaximumAutoInvokeAttempts int

	_ struct{}
}

// AutoFunctionChoice enables tools with automatic invocation using the
// default attempt budget.
func AutoFunctionChoice() *FunctionChoiceBehavior {
	return &FunctionChoiceBehavior{
		Choice:                    FunctionChoiceAuto,
		MaximumAutoInvokeAttempts: DefaultMaximumAutoInvokeAttempts,
	}
}

// RequiredFunctionChoice forces the model to call a tool; results are
// returned to the caller rather than auto-invoked.
func RequiredFunctionChoice() *FunctionChoiceBehavior {
	return &FunctionChoiceBehavior{Choice: FunctionChoiceRequired}
}

// NoneFunctionChoice advertises tools but forbids calling them.
func NoneFunctionChoice() *FunctionChoiceBehavior {
	return &FunctionChoiceBehavior{Choice: FunctionChoiceNone}
}

// AutoInvoke reports whether the loop should execute tool calls itself.
func (b *FunctionChoiceBehavior) AutoInvoke() bool {
	return b != nil && b.Choice == FunctionChoiceAuto && b.MaximumAutoInvokeAttempts > 0
}

// Validate checks the choice mode and attempt budget.
func (b *FunctionChoiceBehavior) Validate() error {
	if b == nil {
		return nil
	}
	switch b.Choice {
	case FunctionChoiceAuto, FunctionChoiceRequired, FunctionChoiceNone:
	default:
		return fmt.Errorf("unknown function choice %q", b.Choice)
	}
	if b.MaximumAutoInvokeAttempts < 0 {
		return fmt.Errorf("maximum auto invoke attempts must not be negative, got %d", b.MaximumAutoInvokeAttempts)
	}
	return nil
}

// Validate runs all request-level validation in one pass.
func (p *CompletionParams) Validate() error {
	if p.Thread == nil {
		return errors.New("completion request requires a thread")
	}
	if p.Model == nil {
		return errors.New("completion request requires a model")
	}
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	if err := p.ResponseFormat.Validate(); err != nil {
		return err
	}
	return p.FunctionChoice.Validate()
}
