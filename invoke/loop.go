package invoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/quayside/gangway/events"
	"github.com/quayside/gangway/internal/broker"
	"github.com/quayside/gangway/messages"
	"github.com/quayside/gangway/pkg/slogx"
	"github.com/quayside/gangway/pkg/uuidx"
	"github.com/quayside/gangway/provider"
	"github.com/quayside/gangway/tool"
	"github.com/quayside/gangway/types"
	"github.com/tidwall/gjson"
)

// ErrUnknownTool is returned when the model requests a tool that is not part
// of the command's tool set.
var ErrUnknownTool = errors.New("unknown tool")

// Loop drives chat completions through their tool-call rounds. Stream events
// fan out to subscribed hooks through a broker topic keyed by run ID.
type Loop struct {
	broker broker.Broker
}

// NewLoop builds a Loop on the given broker; nil selects the in-process one.
func NewLoop(b broker.Broker) *Loop {
	if b == nil {
		b = broker.Local()
	}
	return &Loop{broker: b}
}

// Command describes one run of the invocation loop.
type Command struct {
	// ID identifies the run; zero means a fresh one is assigned.
	ID uuid.UUID

	// Model resolves the connector that serves the completions.
	Model provider.Model

	// Instructions is the system prompt for every request in the run.
	Instructions string

	// Thread is the conversation; tool responses and the final answer are
	// appended to it.
	Thread *messages.History

	// Stream selects incremental delivery from the connector.
	Stream bool

	Settings       *provider.ExecutionSettings
	ResponseFormat *provider.ResponseFormat

	// FunctionChoice governs tool advertisement and auto-invocation. Only
	// the auto choice with a positive attempt budget runs tools here; with
	// required or none the calls come back to the caller.
	FunctionChoice *provider.FunctionChoiceBehavior

	Tools []tool.Definition

	// ContextVariables are injected into tool parameters of type
	// types.ContextVars.
	ContextVariables types.ContextVars

	// Filters wrap every tool invocation, outside-in.
	Filters []Filter

	// Sender labels the events this run publishes.
	Sender string

	_ struct{}
}

// Result is the outcome of a run.
type Result struct {
	// Message is the final assistant answer. Unset when the run ended on
	// unhandled tool calls or a filter termination.
	Message messages.Message[messages.AssistantMessage]

	// ToolCalls holds the model's calls when FunctionChoice does not
	// auto-invoke; executing them is up to the caller.
	ToolCalls *messages.ToolCallMessage

	// Terminated reports that a filter stopped the loop; LastToolResult is
	// the result of the call it stopped on.
	Terminated     bool
	LastToolResult string

	_ struct{}
}

// Run executes the loop until the model answers in text, a filter
// terminates it, or the attempt budget forces a final tool-free request.
// The hook receives every event the run publishes.
func (l *Loop) Run(ctx context.Context, command Command, hook events.Hook) (Result, error) {
	if command.Model == nil {
		return Result{}, fmt.Errorf("model cannot be nil")
	}
	if command.Thread == nil {
		return Result{}, fmt.Errorf("thread cannot be nil")
	}
	if hook == nil {
		return Result{}, fmt.Errorf("hook cannot be nil")
	}
	prov := command.Model.Provider()
	if prov == nil {
		return Result{}, fmt.Errorf("model provider cannot be nil")
	}
	if command.ID == uuid.Nil {
		command.ID = uuidx.New()
	}

	topic := l.broker.Topic(ctx, command.ID.String())
	sub, err := topic.Subscribe(ctx, hook)
	if err != nil {
		return Result{}, fmt.Errorf("failed to subscribe to topic: %w", err)
	}
	defer sub.Unsubscribe()

	// One map for the whole run so values a tool returns are visible to
	// the tools of later rounds.
	contextVars := make(types.ContextVars, len(command.ContextVariables))
	maps.Copy(contextVars, command.ContextVariables)
	thread := command.Thread
	autoInvoke := command.FunctionChoice.AutoInvoke()

	for attempt := 0; ; attempt++ {
		params := provider.CompletionParams{
			RunID:          command.ID,
			Instructions:   command.Instructions,
			Thread:         thread,
			Stream:         command.Stream,
			Model:          command.Model,
			Settings:       command.Settings,
			ResponseFormat: command.ResponseFormat,
			FunctionChoice: command.FunctionChoice,
			Tools:          command.Tools,
		}
		if autoInvoke && attempt >= command.FunctionChoice.MaximumAutoInvokeAttempts {
			// budget exhausted, the model has to answer in text now
			params.Tools = nil
			params.FunctionChoice = nil
		}

		stream, err := prov.ChatCompletion(ctx, params)
		if err != nil {
			l.publish(ctx, topic, l.wrapErr(command, thread, err))
			return Result{}, err
		}

		toolCalls, result, done, err := l.consumeStream(ctx, command, thread, topic, stream)
		if err != nil {
			return Result{}, err
		}
		if done {
			return result, nil
		}

		if !autoInvoke {
			return Result{ToolCalls: toolCalls}, nil
		}

		terminated, lastResult, err := l.invokeToolCalls(ctx, command, thread, topic, contextVars, toolCalls, attempt)
		if err != nil {
			l.publish(ctx, topic, l.wrapErr(command, thread, err))
			return Result{}, err
		}
		if terminated {
			return Result{Terminated: true, LastToolResult: lastResult}, nil
		}
	}
}

// consumeStream drains one completion's events. It returns the tool calls
// when the model asked for them, or the finished Result when it answered.
func (l *Loop) consumeStream(
	ctx context.Context,
	command Command,
	thread *messages.History,
	topic broker.Topic,
	stream <-chan provider.StreamEvent,
) (*messages.ToolCallMessage, Result, bool, error) {
	var toolCalls *messages.ToolCallMessage
	for {
		select {
		case event, hasMore := <-stream:
			if !hasMore {
				if toolCalls != nil {
					return toolCalls, Result{}, false, nil
				}
				return nil, Result{}, false, fmt.Errorf("completion ended without a response")
			}

			switch event := event.(type) {
			case provider.Delim:
			case provider.Error:
				l.publish(ctx, topic, events.FromStreamEvent(event, command.Sender))
				return nil, Result{}, false, event.Err
			case provider.Chunk[messages.AssistantMessage]:
				l.publish(ctx, topic, events.FromStreamEvent(event, command.Sender))
			case provider.Chunk[messages.ToolCallMessage]:
				l.publish(ctx, topic, events.FromStreamEvent(event, command.Sender))
			case provider.Response[messages.ToolCallMessage]:
				msg := messages.Message[messages.ToolCallMessage]{
					RunID:     command.ID,
					TurnID:    thread.ID(),
					Payload:   event.Response,
					Sender:    command.Sender,
					Timestamp: strfmt.DateTime(time.Now()),
					Meta:      event.Meta,
				}
				thread.AddToolCall(msg)
				l.publish(ctx, topic, events.FromStreamEvent(event, command.Sender))
				toolCalls = &event.Response
			case provider.Response[messages.AssistantMessage]:
				msg := messages.Message[messages.AssistantMessage]{
					RunID:     command.ID,
					TurnID:    thread.ID(),
					Payload:   event.Response,
					Sender:    command.Sender,
					Timestamp: strfmt.DateTime(time.Now()),
					Meta:      event.Meta,
				}
				thread.AddAssistantMessage(msg)
				l.publish(ctx, topic, events.FromStreamEvent(event, command.Sender))
				return nil, Result{Message: msg}, true, nil
			default:
				panic(fmt.Sprintf("unknown event type %T", event))
			}
		case <-ctx.Done():
			return nil, Result{}, false, ctx.Err()
		}
	}
}

func (l *Loop) invokeToolCalls(
	ctx context.Context,
	command Command,
	thread *messages.History,
	topic broker.Topic,
	contextVars types.ContextVars,
	toolCalls *messages.ToolCallMessage,
	attempt int,
) (bool, string, error) {
	byName := make(map[string]tool.Definition, len(command.Tools))
	for _, def := range command.Tools {
		byName[def.Name] = def
	}

	invoker := chainFilters(command.Filters, func(ctx context.Context, inv *Invocation) error {
		args := buildArgList(inv.ToolCall.Arguments, inv.Tool.Parameters)
		res, err := callFunction(inv.Tool.Function, args, inv.ContextVars)
		if err != nil {
			return err
		}
		inv.Result = res.Value
		if res.ContextVariables != nil {
			maps.Copy(inv.ContextVars, res.ContextVariables)
		}
		return nil
	})

	for _, call := range toolCalls.ToolCalls {
		def, found := byName[call.Name]
		if !found {
			return false, "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
		}

		inv := &Invocation{
			ToolCall:    call,
			Tool:        def,
			Thread:      thread,
			Attempt:     attempt,
			ContextVars: contextVars,
		}
		if err := invoker(ctx, inv); err != nil {
			return false, "", fmt.Errorf("tool %s: %w", call.Name, err)
		}

		response := messages.ToolResponse{
			ToolName:   def.Name,
			ToolCallID: call.ID,
			Content:    inv.Result,
		}
		thread.AddToolResponse(messages.Message[messages.ToolResponse]{
			RunID:     command.ID,
			TurnID:    thread.ID(),
			Payload:   response,
			Sender:    command.Sender,
			Timestamp: strfmt.DateTime(time.Now()),
			Meta:      gjson.Result{},
		})
		l.publish(ctx, topic, events.Request[messages.ToolResponse]{
			RunID:     command.ID,
			TurnID:    thread.ID(),
			Message:   response,
			Sender:    command.Sender,
			Timestamp: strfmt.DateTime(time.Now()),
		})

		if inv.Terminate {
			return true, inv.Result, nil
		}
	}
	return false, "", nil
}

func (l *Loop) publish(ctx context.Context, topic broker.Topic, event events.Event) {
	if err := topic.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", slogx.Error(err))
	}
}

func (l *Loop) wrapErr(command Command, thread *messages.History, err error) events.Error {
	return events.Error{
		RunID:     command.ID,
		TurnID:    thread.ID(),
		Sender:    command.Sender,
		Err:       err,
		Timestamp: strfmt.DateTime(time.Now()),
	}
}
