package invoke

import (
	"context"

	"github.com/quayside/gangway/messages"
	"github.com/quayside/gangway/tool"
	"github.com/quayside/gangway/types"
)

// Invocation carries the state of a single tool call through the filter
// chain. Filters may inspect or rewrite the call before it runs, replace the
// Result afterwards, or set Terminate to stop the loop once the call
// completes.
type Invocation struct {
	// ToolCall is the call as requested by the model.
	ToolCall messages.ToolCallData

	// Tool is the resolved definition the call will run against.
	Tool tool.Definition

	// Thread is the conversation the loop is operating on.
	Thread *messages.History

	// Attempt is the zero-based auto-invocation round this call belongs to.
	Attempt int

	// ContextVars are the variables injected into matching function
	// parameters.
	ContextVars types.ContextVars

	// Result is the stringified function return, available to filters after
	// next() ran.
	Result string

	// Terminate stops the loop after this call; the loop returns the last
	// tool result instead of asking the model for a final answer.
	Terminate bool
}

// Invoker executes one tool invocation.
type Invoker func(ctx context.Context, inv *Invocation) error

// Filter wraps an Invoker with cross-cutting behavior. Filters compose
// outside-in: the first filter sees the invocation first.
type Filter func(next Invoker) Invoker

func chainFilters(filters []Filter, invoker Invoker) Invoker {
	for i := len(filters) - 1; i >= 0; i-- {
		invoker = filters[i](invoker)
	}
	return invoker
}
