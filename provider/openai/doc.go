/*
Package openai implements the provider service interfaces against OpenAI's
API: chat completions (streaming and blocking), embeddings, image
generation, text to speech, and transcription.

# Design Decisions

  - Streaming First: Built around efficient streaming of responses
  - Type Safety: Strong typing for all OpenAI-specific types
  - Thread Safe: Safe for concurrent use across goroutines
  - Lazy Initialization: Models initialize their provider on first use

# Available Models

The package provides several pre-configured models:

  - GPT4oMini(): Smaller, faster GPT-4 model
  - GPT4o(): Full GPT-4 model with latest capabilities
  - O1Mini(): Smaller version of the O1 model
  - O1(): Full O1 model

Custom models can be created using the Model() function:

	model := openai.Model("custom-model-name",
		option.WithAPIKey("your-key"),
		option.WithOrganization("your-org"),
	)

# Request Translation

CompletionParams translate to OpenAI request parameters in one pass:
conversation messages become the typed message union, tool definitions
become function declarations with their JSON schemas, execution settings
map onto sampling knobs, and response formats select text, JSON mode, or a
strict JSON schema.

# Streaming Implementation

A streaming request emits events in a fixed order:

 1. Delim{Delim: "start"} before the first chunk
 2. Chunk events carrying incremental text or tool-call deltas
 3. Delim{Delim: "end"} after the last chunk
 4. A final Response event accumulated from all chunks

Blocking requests skip straight to the Response event. Errors surface as
Error events on the same channel, and the channel closes when the request
resolves either way.

	events, err := model.Provider().ChatCompletion(ctx, params)
	if err != nil {
		return err
	}
	for event := range events {
		switch ev := event.(type) {
		case provider.Chunk[messages.AssistantMessage]:
			fmt.Print(ev.Chunk.Content.Content)
		case provider.Error:
			return ev.Err
		}
	}

# Token Usage

Completion responses report token usage. The connector folds it into the
request's conversation history and mirrors it in the response event's
metadata under the "usage" key.
*/
package openai
