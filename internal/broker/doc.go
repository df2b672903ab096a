// Package broker implements a pub/sub message broker for distributing
// completion events between model providers, tool invocations, and any
// observers attached to a run. It provides a clean, minimal interface for
// topic-based event distribution with context awareness.
//
// Design decisions:
//   - Context-first: All operations accept context.Context for cancellation/timeout
//   - Topic-based: Events are distributed through named topics, one per run
//   - Clean interfaces: Minimal, focused interfaces for each responsibility
//   - Hook integration: Direct support for events.Hook for event handling
//   - Subscription management: Explicit subscription lifecycle with cleanup
//   - Thread safety: Safe for concurrent publishing and subscribing
//
// Two implementations are provided: Local, an in-process broker backed by
// buffered channels with slow-subscriber eviction, and NATS, which carries
// the same events over a NATS connection using their JSON wire form.
//
// Example usage:
//
//	// Create a broker and get a topic
//	broker := broker.Local()
//	topic := broker.Topic(ctx, runID.String())
//
//	// Create a subscription with a hook
//	hook := &MyEventHandler{}
//	sub, err := topic.Subscribe(ctx, hook)
//	if err != nil {
//	    return err
//	}
//	defer sub.Unsubscribe() // Ensure cleanup
//
//	// Publish events to the topic
//	event := events.Request[messages.UserMessage]{
//	    RunID:   runID,
//	    TurnID:  turnID,
//	    Message: messages.UserMessage{...},
//	}
//	if err := topic.Publish(ctx, event); err != nil {
//	    return err
//	}
//
// The broker package is internal so the implementations can evolve without
// exposing their details. It works closely with the events package to ensure
// type-safe event handling and proper context management.
package broker
