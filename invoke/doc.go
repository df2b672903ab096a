// Package invoke runs the bounded function-invocation loop on top of a chat
// completion connector.
//
// A Loop issues completion requests against a provider.Model. When the model
// answers with tool calls and the command's FunctionChoiceBehavior allows
// automatic invocation, the loop resolves each call against the command's
// tool set, invokes the Go function via reflection, appends the stringified
// results to the conversation as tool responses, and asks the model again.
// The rounds are bounded by MaximumAutoInvokeAttempts; once the budget is
// spent the final request goes out without tools so the model has to answer
// in text.
//
// Tool invocations pass through a composable Filter chain. Filters can
// rewrite arguments, replace results, or set Terminate on the Invocation to
// stop the loop and hand the last tool result back to the caller.
//
// Every stream event of a run is republished on a broker topic keyed by the
// run ID, so the hook passed to Run observes chunks, tool calls, tool
// responses, the final answer, and errors as they happen.
//
// Example:
//
//	weather := tool.Must(fetchWeather,
//		tool.Name("get_weather"),
//		tool.Parameters("location"),
//	)
//
//	loop := invoke.NewLoop(nil)
//	result, err := loop.Run(ctx, invoke.Command{
//		Model:          openai.GPT4oMini(),
//		Instructions:   "You are a weather assistant.",
//		Thread:         thread,
//		FunctionChoice: provider.AutoFunctionChoice(),
//		Tools:          []tool.Definition{weather},
//	}, events.LoggingHook())
package invoke
