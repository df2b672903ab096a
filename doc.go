/*
Package gangway connects chat models and vector databases to plain Go
code: typed chat completions with streaming, reflective function calling
with a bounded auto-invocation loop, and struct-tag driven vector store
collections.

The module is organized as a small set of focused packages:

  - messages: the typed conversation model (prompts, assistant replies,
    tool calls and responses) and the History that threads them together
  - provider: the connector contracts (ChatService, EmbeddingService) and
    the request/response parameter types
  - provider/openai: the OpenAI implementation of those contracts
  - tool: function definitions reflected from Go functions, including the
    JSON schema their parameters advertise
  - invoke: the completion loop that resolves tool calls, invokes the Go
    functions, and feeds results back to the model
  - events: the typed event stream a run publishes, with hooks to observe
    it
  - vectorstore: collection definitions, record mapping, and the filter
    tree shared by the store adapters
  - vectorstore/qdrant, vectorstore/redis: the store adapters

# Function calling

A tool is an ordinary Go function:

	func getWeather(location string, date string) (string, error) {
		return `{"temp":67,"unit":"F"}`, nil
	}

	weather := tool.Must(getWeather,
		tool.Name("get_weather"),
		tool.Parameters("location", "date"),
	)

	thread := messages.NewHistory()
	thread.AddUserPrompt(messages.New().UserPrompt("What's the weather in NYC?"))

	loop := invoke.NewLoop(nil)
	result, err := loop.Run(ctx, invoke.Command{
		Model:          openai.GPT4oMini(),
		Instructions:   "Always call the tool for weather questions.",
		Thread:         thread,
		FunctionChoice: provider.AutoFunctionChoice(),
		Tools:          []tool.Definition{weather},
	}, events.LoggingHook())

The loop keeps asking the model until it answers in text, the
auto-invocation budget runs out, or a filter terminates the run.

# Vector search

Records are structs with vectorstore tags; the same record type works
against Qdrant and Redis:

	type Hotel struct {
		ID        uint64    `json:"id" vectorstore:"key"`
		Name      string    `json:"name" vectorstore:"data,filterable,fulltext"`
		Embedding []float32 `json:"embedding" vectorstore:"vector,dim=1536,distance=cosine"`
	}

	store, err := qdrant.New(qdrant.Config{Host: "localhost", Port: 6334})
	hotels, err := qdrant.NewCollection[uint64, Hotel](store, "hotels")

See the examples directory for complete programs.
*/
package gangway
