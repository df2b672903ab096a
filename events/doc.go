// Package events provides the pub/sub event layer over completion streams,
// supporting type-safe event handling with rich metadata and serialization.
// It builds on top of the provider package's streaming events, adding sender
// tracking and a hook interface for consumers.
//
// Design decisions:
//   - Type safety: Generic event types ensure compile-time correctness
//   - Rich metadata: Every event includes run/turn IDs, timestamps, and optional metadata
//   - Sender tracking: Events maintain origin information through the system
//   - Efficient JSON: Custom marshaling with pre-allocated type markers
//   - Error context: Errors preserve full execution context for debugging
//   - Provider integration: Seamless conversion from provider.StreamEvent
//
// Event hierarchy:
//   - Event: Base interface for all pub/sub events
//     ├── Delim: Stream boundary markers
//     ├── Chunk[T]: Incremental response fragments
//     ├── Request[T]: Incoming requests (user prompts, tool results)
//     ├── Response[T]: Complete responses with context
//     └── Error: Error events with preserved context
//
// Each event type includes:
//   - RunID: Unique identifier for the execution run
//   - TurnID: Identifier for the specific interaction turn
//   - Timestamp: When the event occurred
//   - Sender: Origin of the event (model, tool, user)
//   - Meta: Optional structured metadata
//
// Example usage:
//
//	// Convert provider events to pub/sub events
//	providerEvent := provider.Chunk[messages.AssistantMessage]{...}
//	pubsubEvent := events.FromStreamEvent(providerEvent, "openai")
//
//	// Type-safe event handling
//	switch e := event.(type) {
//	case events.Request[messages.UserMessage]:
//	    // Handle user request
//	case events.Response[messages.AssistantMessage]:
//	    // Handle assistant response
//	case events.Error:
//	    // Handle error with context
//	}
//
// The package is designed to work with the provider and messages packages,
// providing a complete system for handling completion interactions with
// proper typing, context preservation, and error handling.
package events
