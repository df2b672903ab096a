package broker

import (
	"context"
	"fmt"

	"github.com/quayside/gangway/events"
	"github.com/quayside/gangway/messages"
)

// forwardToHook drains a subscription channel and dispatches each event to the
// matching hook callback until the channel closes or the context is canceled.
func forwardToHook(ctx context.Context, channel <-chan events.Event, hook events.Hook) {
	for {
		select {
		case event, ok := <-channel:
			if !ok {
				return
			}
			switch event := event.(type) {
			case events.Delim:
				// Delim events are used for stream control and don't need to be forwarded to hooks
			case events.Request[messages.UserMessage]:
				hook.OnUserPrompt(ctx, messages.Message[messages.UserMessage]{
					Payload:   event.Message,
					Sender:    event.Sender,
					Timestamp: event.Timestamp,
					Meta:      event.Meta,
				})
			case events.Chunk[messages.AssistantMessage]:
				hook.OnAssistantChunk(ctx, messages.Message[messages.AssistantMessage]{
					Payload:   event.Chunk,
					Sender:    event.Sender,
					Timestamp: event.Timestamp,
					Meta:      event.Meta,
				})
			case events.Chunk[messages.ToolCallMessage]:
				hook.OnToolCallChunk(ctx, messages.Message[messages.ToolCallMessage]{
					Payload:   event.Chunk,
					Sender:    event.Sender,
					Timestamp: event.Timestamp,
					Meta:      event.Meta,
				})
			case events.Request[messages.ToolResponse]:
				hook.OnToolCallResponse(ctx, messages.Message[messages.ToolResponse]{
					Payload:   event.Message,
					Sender:    event.Sender,
					Timestamp: event.Timestamp,
					Meta:      event.Meta,
				})
			case events.Response[messages.ToolCallMessage]:
				hook.OnToolCallMessage(ctx, messages.Message[messages.ToolCallMessage]{
					Payload:   event.Response,
					Sender:    event.Sender,
					Timestamp: event.Timestamp,
					Meta:      event.Meta,
				})
			case events.Response[messages.AssistantMessage]:
				hook.OnAssistantMessage(ctx, messages.Message[messages.AssistantMessage]{
					Payload:   event.Response,
					Sender:    event.Sender,
					Timestamp: event.Timestamp,
					Meta:      event.Meta,
				})
			case events.Error:
				hook.OnError(ctx, event.Err)
			default:
				panic(fmt.Sprintf("unknown event type: %T", event))
			}
		case <-ctx.Done():
			return
		}
	}
}
