package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/quayside/gangway/messages"
	"github.com/quayside/gangway/provider"
	"github.com/quayside/gangway/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNew(t *testing.T) {
	p := New()
	assert.NotNil(t, p)
	assert.NotNil(t, p.client)
}

func TestProvider_buildRequest_Error(t *testing.T) {
	p := New()
	ctx := context.Background()
	runID := uuid.New()
	thread := messages.NewHistory()

	// A tool with a nil function cannot be converted
	invalidTool := tool.Definition{
		Name:        "invalid_tool",
		Description: "A test tool",
		Parameters:  map[string]string{"param1": "value1"},
		Function:    nil,
	}

	params := &provider.CompletionParams{
		RunID:        runID,
		Instructions: "Test instructions",
		Thread:       thread,
		Model:        GPT4oMini(),
		Tools:        []tool.Definition{invalidTool},
	}

	_, err := p.buildRequest(ctx, params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool invalid_tool has nil function")
}

func TestProvider_buildRequest(t *testing.T) {
	p := New()
	ctx := context.Background()
	runID := uuid.New()
	thread := messages.NewHistory()

	userMsg := messages.Message[messages.UserMessage]{
		RunID:  runID,
		TurnID: thread.ID(),
		Sender: "testUser",
		Payload: messages.UserMessage{
			Content: messages.ContentOrParts{
				Content: "Hello",
			},
		},
	}
	thread.AddUserPrompt(userMsg)

	toolDef := tool.Definition{
		Name:        "test_tool",
		Description: "A test tool",
		Parameters: map[string]string{
			"param1": "value1",
		},
		Function: func(s string) string { return s },
	}

	params := &provider.CompletionParams{
		RunID:        runID,
		Instructions: "Test instructions",
		Thread:       thread,
		Stream:       false,
		Model:        GPT4oMini(),
		Tools:        []tool.Definition{toolDef},
	}

	chatParams, err := p.buildRequest(ctx, params)
	require.NoError(t, err)

	// Verify the built request
	assert.Equal(t, GPT4oMini().Name(), string(chatParams.Model.Value))
	assert.Equal(t, int64(1), chatParams.N.Value)
	assert.True(t, chatParams.ParallelToolCalls.Value)
	assert.Equal(t, "testUser", chatParams.User.Value)

	// Verify messages
	messages := chatParams.Messages.Value
	require.Len(t, messages, 2) // System message + user message

	// Verify system message
	systemMsg := messages[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "Test instructions", systemMsg.Content.Value[0].Text.Value)

	// Verify user message
	userMsg2 := messages[1].(openai.ChatCompletionUserMessageParam)
	assert.Equal(t, "Hello", userMsg2.Content.Value[0].(openai.ChatCompletionContentPartTextParam).Text.Value)

	// Verify tools
	tools := chatParams.Tools.Value
	assert.Len(t, tools, 1)
	assert.Equal(t, openai.ChatCompletionToolTypeFunction, tools[0].Type.Value)
	assert.Equal(t, "test_tool", tools[0].Function.Value.Name.Value)
	assert.Equal(t, "A test tool", tools[0].Function.Value.Description.Value)
}

func TestProvider_buildRequest_Settings(t *testing.T) {
	p := New()
	ctx := context.Background()
	thread := messages.NewHistory()

	params := &provider.CompletionParams{
		RunID:  uuid.New(),
		Thread: thread,
		Model:  GPT4oMini(),
		Settings: &provider.ExecutionSettings{
			Temperature:      ptr(0.2),
			TopP:             ptr(0.9),
			MaxTokens:        ptr(int64(256)),
			FrequencyPenalty: ptr(0.5),
			PresencePenalty:  ptr(-0.5),
			Seed:             ptr(int64(1234)),
			Stop:             []string{"STOP"},
			User:             "override-user",
		},
	}

	chatParams, err := p.buildRequest(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, 0.2, chatParams.Temperature.Value)
	assert.Equal(t, 0.9, chatParams.TopP.Value)
	assert.Equal(t, int64(256), chatParams.MaxCompletionTokens.Value)
	assert.Equal(t, 0.5, chatParams.FrequencyPenalty.Value)
	assert.Equal(t, -0.5, chatParams.PresencePenalty.Value)
	assert.Equal(t, int64(1234), chatParams.Seed.Value)
	assert.Equal(t, openai.ChatCompletionNewParamsStopArray{"STOP"}, chatParams.Stop.Value)
	assert.Equal(t, "override-user", chatParams.User.Value)
}

func TestProvider_buildRequest_ResponseFormat(t *testing.T) {
	p := New()
	ctx := context.Background()

	t.Run("json object", func(t *testing.T) {
		params := &provider.CompletionParams{
			RunID:          uuid.New(),
			Thread:         messages.NewHistory(),
			Model:          GPT4oMini(),
			ResponseFormat: &provider.ResponseFormat{Type: provider.FormatJSONObject},
		}

		chatParams, err := p.buildRequest(ctx, params)
		require.NoError(t, err)

		format, ok := chatParams.ResponseFormat.Value.(shared.ResponseFormatJSONObjectParam)
		require.True(t, ok)
		assert.Equal(t, shared.ResponseFormatJSONObjectTypeJSONObject, format.Type.Value)
	})

	t.Run("json schema", func(t *testing.T) {
		type weather struct {
			City string `json:"city"`
			Temp int    `json:"temp"`
		}

		reflector := jsonschema.Reflector{DoNotReference: true}
		schema := reflector.Reflect(&weather{})
		params := &provider.CompletionParams{
			RunID:  uuid.New(),
			Thread: messages.NewHistory(),
			Model:  GPT4oMini(),
			ResponseFormat: &provider.ResponseFormat{
				Type: provider.FormatJSONSchema,
				JSONSchema: &provider.StructuredOutput{
					Name:   "weather_report",
					Schema: schema,
					Strict: true,
				},
			},
		}

		chatParams, err := p.buildRequest(ctx, params)
		require.NoError(t, err)

		format, ok := chatParams.ResponseFormat.Value.(shared.ResponseFormatJSONSchemaParam)
		require.True(t, ok)
		js := format.JSONSchema.Value
		assert.Equal(t, "weather_report", js.Name.Value)
		assert.True(t, js.Strict.Value)
		assert.NotNil(t, js.Schema.Value)
	})
}

func TestProvider_buildRequest_FunctionChoice(t *testing.T) {
	p := New()
	ctx := context.Background()

	toolDef := tool.Definition{
		Name:     "test_tool",
		Function: func(s string) string { return s },
	}

	t.Run("required", func(t *testing.T) {
		params := &provider.CompletionParams{
			RunID:          uuid.New(),
			Thread:         messages.NewHistory(),
			Model:          GPT4oMini(),
			Tools:          []tool.Definition{toolDef},
			FunctionChoice: provider.RequiredFunctionChoice(),
		}

		chatParams, err := p.buildRequest(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, openai.ChatCompletionToolChoiceOptionBehaviorRequired, chatParams.ToolChoice.Value)
	})

	t.Run("none", func(t *testing.T) {
		params := &provider.CompletionParams{
			RunID:          uuid.New(),
			Thread:         messages.NewHistory(),
			Model:          GPT4oMini(),
			Tools:          []tool.Definition{toolDef},
			FunctionChoice: provider.NoneFunctionChoice(),
		}

		chatParams, err := p.buildRequest(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, openai.ChatCompletionToolChoiceOptionBehaviorNone, chatParams.ToolChoice.Value)
	})

	t.Run("ignored without tools", func(t *testing.T) {
		params := &provider.CompletionParams{
			RunID:          uuid.New(),
			Thread:         messages.NewHistory(),
			Model:          GPT4oMini(),
			FunctionChoice: provider.AutoFunctionChoice(),
		}

		chatParams, err := p.buildRequest(ctx, params)
		require.NoError(t, err)
		assert.False(t, chatParams.ToolChoice.Present)
	})
}

func TestProvider_ChatCompletion_ContextCancellation(t *testing.T) {
	serverDone := make(chan struct{})
	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		defer close(serverDone)

		// Set up SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		// Write initial event
		event := openai.ChatCompletionChunk{
			ID: "test-id",
			Choices: []openai.ChatCompletionChunkChoice{
				{
					Delta: openai.ChatCompletionChunkChoicesDelta{
						Content: "Hello",
					},
				},
			},
		}
		data, err := json.Marshal(event)
		require.NoError(t, err)
		_, err = fmt.Fprintf(w, "data: %s\n\n", data)
		require.NoError(t, err)
		flusher.Flush()

		// Wait for context cancellation
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	runID := uuid.New()
	thread := messages.NewHistory()

	params := provider.CompletionParams{
		RunID:        runID,
		Instructions: "Test instructions",
		Thread:       thread,
		Stream:       true,
		Model:        GPT4oMini(),
	}

	events, err := p.ChatCompletion(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, events)

	// Read the start delimiter and first chunk
	event := <-events
	assert.IsType(t, provider.Delim{}, event)
	assert.Equal(t, "start", event.(provider.Delim).Delim)

	event = <-events
	chunk, ok := event.(provider.Chunk[messages.AssistantMessage])
	assert.True(t, ok)
	assert.Equal(t, "Hello", chunk.Chunk.Content.Content)

	// Cancel the context
	cancel()

	// Wait for server to finish
	<-serverDone

	// Should receive error and channel close
	event = <-events
	errEvent, ok := event.(provider.Error)
	assert.True(t, ok)
	assert.Equal(t, context.Canceled, errEvent.Err)

	// Channel should be closed
	_, ok = <-events
	assert.False(t, ok, "Channel should be closed after context cancellation")
}

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Provider {
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
	})

	p := New(option.WithBaseURL(server.URL + "/v1"))
	return p
}

func TestProvider_ChatCompletion(t *testing.T) {
	mockResp := openai.ChatCompletion{
		ID: "test-id",
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					Content: "Test response",
				},
			},
		},
		Usage: openai.CompletionUsage{
			PromptTokens:     12,
			CompletionTokens: 4,
			TotalTokens:      16,
		},
	}

	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockResp)
	})

	ctx := context.Background()
	runID := uuid.New()
	thread := messages.NewHistory()

	params := provider.CompletionParams{
		RunID:        runID,
		Instructions: "Test instructions",
		Thread:       thread,
		Stream:       false,
		Model:        GPT4oMini(),
	}

	events, err := p.ChatCompletion(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, events)

	// Read the response from the channel
	event := <-events
	resp, ok := event.(provider.Response[messages.AssistantMessage])
	require.True(t, ok)
	assert.Equal(t, "Test response", resp.Response.Content.Content)

	// Usage lands in the thread and in the event metadata
	assert.Equal(t, int64(16), thread.Usage().TotalTokens)
	assert.Equal(t, int64(12), resp.Meta.Get("usage.prompt_tokens").Int())

	// Channel should be closed after the response
	_, ok = <-events
	assert.False(t, ok)
}

func TestMessagesToOpenAI_EmptyMessages(t *testing.T) {
	result, user := messagesToOpenAI("Test instructions", slices.Values([]messages.Message[messages.ModelMessage]{}))

	assert.Len(t, result, 1) // Only system message
	systemMsg := result[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "Test instructions", systemMsg.Content.Value[0].Text.Value)
	assert.Empty(t, user)
}

func TestMessagesToOpenAI_ContentParts(t *testing.T) {
	runID := uuid.New()
	thread := messages.NewHistory()

	// A message with each kind of content part
	userMsg := messages.Message[messages.UserMessage]{
		RunID:  runID,
		TurnID: thread.ID(),
		Sender: "user1",
		Payload: messages.UserMessage{
			Content: messages.ContentOrParts{
				Parts: []messages.ContentPart{
					messages.TextContentPart{Text: "Hello"},
					messages.ImageContentPart{
						URL:    "http://example.com/image.jpg",
						Detail: "high",
					},
					messages.AudioContentPart{
						InputAudio: messages.InputAudio{
							Data:   []byte("audio data"),
							Format: "mp3",
						},
					},
				},
			},
		},
	}
	thread.AddUserPrompt(userMsg)

	result, user := messagesToOpenAI("Test instructions", thread.MessagesIter())

	// Verify the conversion
	assert.Equal(t, "user1", user)
	assert.Len(t, result, 2) // System message + user message with parts

	// Verify user message parts
	userMsgResult := result[1].(openai.ChatCompletionUserMessageParam)
	parts := userMsgResult.Content.Value
	assert.Len(t, parts, 3)

	// Verify text part
	textPart := parts[0].(openai.ChatCompletionContentPartTextParam)
	assert.Equal(t, "Hello", textPart.Text.Value)

	// Verify image part
	imagePart := parts[1].(openai.ChatCompletionContentPartImageParam)
	assert.Equal(t, "http://example.com/image.jpg", imagePart.ImageURL.Value.URL.Value)
	assert.Equal(t, openai.ChatCompletionContentPartImageImageURLDetailHigh, imagePart.ImageURL.Value.Detail.Value)

	// Verify audio part
	audioPart := parts[2].(openai.ChatCompletionContentPartInputAudioParam)
	assert.Equal(t, "mp3", string(audioPart.InputAudio.Value.Format.Value))
	decodedAudio, _ := base64.StdEncoding.DecodeString(audioPart.InputAudio.Value.Data.Value)
	assert.Equal(t, []byte("audio data"), decodedAudio)
}

func TestMessagesToOpenAI(t *testing.T) {
	runID := uuid.New()
	thread := messages.NewHistory()

	userMsg := messages.Message[messages.UserMessage]{
		RunID:  runID,
		TurnID: thread.ID(),
		Sender: "user1",
		Payload: messages.UserMessage{
			Content: messages.ContentOrParts{
				Content: "Hello",
			},
		},
	}
	thread.AddUserPrompt(userMsg)

	assistantMsg := messages.Message[messages.AssistantMessage]{
		RunID:  runID,
		TurnID: thread.ID(),
		Payload: messages.AssistantMessage{
			Content: messages.AssistantContentOrParts{
				Content: "Hi there",
			},
		},
	}
	thread.AddAssistantMessage(assistantMsg)

	toolCallMsg := messages.Message[messages.ToolCallMessage]{
		RunID:  runID,
		TurnID: thread.ID(),
		Payload: messages.ToolCallMessage{
			ToolCalls: []messages.ToolCallData{
				{
					ID:        "tool1",
					Name:      "test_tool",
					Arguments: `{"param": "value"}`,
				},
			},
		},
	}
	thread.AddToolCall(toolCallMsg)

	toolResponseMsg := messages.Message[messages.ToolResponse]{
		RunID:  runID,
		TurnID: thread.ID(),
		Payload: messages.ToolResponse{
			ToolCallID: "tool1",
			Content:    "Tool response",
		},
	}
	thread.AddToolResponse(toolResponseMsg)

	result, user := messagesToOpenAI("Test instructions", thread.MessagesIter())

	// Verify the conversion
	assert.Equal(t, "user1", user)
	assert.Len(t, result, 5) // System message + 4 messages
	firstMsg := result[0].(openai.ChatCompletionSystemMessageParam)
	assert.Equal(t, "Test instructions", firstMsg.Content.Value[0].Text.Value)
}

func TestCompletionChunkToStreamEvent(t *testing.T) {
	runID := uuid.New()
	thread := messages.NewHistory()

	tests := []struct {
		name     string
		chunk    *openai.ChatCompletionChunk
		command  *provider.CompletionParams
		validate func(t *testing.T, event provider.StreamEvent)
	}{
		{
			name: "assistant message chunk",
			chunk: &openai.ChatCompletionChunk{
				Choices: []openai.ChatCompletionChunkChoice{
					{
						Delta: openai.ChatCompletionChunkChoicesDelta{
							Content: "Test chunk",
						},
					},
				},
			},
			command: &provider.CompletionParams{
				RunID:  runID,
				Thread: thread,
			},
			validate: func(t *testing.T, event provider.StreamEvent) {
				chunk, ok := event.(provider.Chunk[messages.AssistantMessage])
				assert.True(t, ok)
				assert.Equal(t, "Test chunk", chunk.Chunk.Content.Content)
			},
		},
		{
			name: "tool call chunk",
			chunk: &openai.ChatCompletionChunk{
				Choices: []openai.ChatCompletionChunkChoice{
					{
						Delta: openai.ChatCompletionChunkChoicesDelta{
							ToolCalls: []openai.ChatCompletionChunkChoicesDeltaToolCall{
								{
									ID: "tool1",
									Function: openai.ChatCompletionChunkChoicesDeltaToolCallsFunction{
										Name:      "test_tool",
										Arguments: `{"param": "value"}`,
									},
								},
							},
						},
					},
				},
			},
			command: &provider.CompletionParams{
				RunID:  runID,
				Thread: thread,
			},
			validate: func(t *testing.T, event provider.StreamEvent) {
				chunk, ok := event.(provider.Chunk[messages.ToolCallMessage])
				assert.True(t, ok)
				assert.Len(t, chunk.Chunk.ToolCalls, 1)
				assert.Equal(t, "tool1", chunk.Chunk.ToolCalls[0].ID)
				assert.Equal(t, "test_tool", chunk.Chunk.ToolCalls[0].Name)
				assert.Equal(t, `{"param": "value"}`, chunk.Chunk.ToolCalls[0].Arguments)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := completionChunkToStreamEvent(tt.chunk, tt.command)
			tt.validate(t, event)
		})
	}
}

func TestProvider_ChatCompletion_Stream(t *testing.T) {
	mockEvents := []openai.ChatCompletionChunk{
		{
			ID: "test-id",
			Choices: []openai.ChatCompletionChunkChoice{
				{
					Delta: openai.ChatCompletionChunkChoicesDelta{
						Content: "Hello",
					},
				},
			},
		},
		{
			ID: "test-id",
			Choices: []openai.ChatCompletionChunkChoice{
				{
					Delta: openai.ChatCompletionChunkChoicesDelta{
						ToolCalls: []openai.ChatCompletionChunkChoicesDeltaToolCall{
							{
								ID: "tool1",
								Function: openai.ChatCompletionChunkChoicesDeltaToolCallsFunction{
									Name:      "test_tool",
									Arguments: `{"param": "value"}`,
								},
							},
						},
					},
				},
			},
		},
	}

	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		// Write each event with proper SSE format
		for _, event := range mockEvents {
			data, err := json.Marshal(event)
			require.NoError(t, err)
			_, err = fmt.Fprintf(w, "data: %s\n\n", data)
			require.NoError(t, err)
			flusher.Flush()
			time.Sleep(10 * time.Millisecond) // Small delay to ensure proper event handling
		}

		// Write completion
		_, err := fmt.Fprintf(w, "data: [DONE]\n\n")
		require.NoError(t, err)
		flusher.Flush()
	})

	ctx := context.Background()
	runID := uuid.New()
	thread := messages.NewHistory()

	params := provider.CompletionParams{
		RunID:        runID,
		Instructions: "Test instructions",
		Thread:       thread,
		Stream:       true,
		Model:        GPT4oMini(),
	}

	events, err := p.ChatCompletion(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, events)

	var responses []provider.StreamEvent //nolint:prealloc
	for event := range events {
		responses = append(responses, event)
	}

	// Verify we got start, chunks, end, and final response
	assert.Len(t, responses, 5)

	// Verify start delimiter
	assert.IsType(t, provider.Delim{}, responses[0])
	assert.Equal(t, "start", responses[0].(provider.Delim).Delim)

	// Verify first chunk (text)
	chunk1, ok := responses[1].(provider.Chunk[messages.AssistantMessage])
	assert.True(t, ok)
	assert.Equal(t, "Hello", chunk1.Chunk.Content.Content)

	// Verify second chunk (tool call)
	chunk2, ok := responses[2].(provider.Chunk[messages.ToolCallMessage])
	assert.True(t, ok)
	assert.Len(t, chunk2.Chunk.ToolCalls, 1)
	assert.Equal(t, "tool1", chunk2.Chunk.ToolCalls[0].ID)
	assert.Equal(t, "test_tool", chunk2.Chunk.ToolCalls[0].Name)

	// Verify end delimiter
	assert.IsType(t, provider.Delim{}, responses[3])
	assert.Equal(t, "end", responses[3].(provider.Delim).Delim)
}

func TestProvider_ChatCompletion_StreamError(t *testing.T) {
	p := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		chunk := openai.ChatCompletionChunk{
			ID: "test-id",
			Choices: []openai.ChatCompletionChunkChoice{
				{
					Delta: openai.ChatCompletionChunkChoicesDelta{
						Content: "Hel",
					},
				},
			},
		}
		data, err := json.Marshal(chunk)
		require.NoError(t, err)
		_, err = fmt.Fprintf(w, "data: %s\n\n", data)
		require.NoError(t, err)
		flusher.Flush()

		// Break the stream mid-completion; the connector has to report
		// this instead of pretending the answer finished.
		_, err = fmt.Fprintf(w, "data: {not json\n\n")
		require.NoError(t, err)
		flusher.Flush()
	})

	ctx := context.Background()
	params := provider.CompletionParams{
		RunID:        uuid.New(),
		Instructions: "Test instructions",
		Thread:       messages.NewHistory(),
		Stream:       true,
		Model:        GPT4oMini(),
	}

	events, err := p.ChatCompletion(ctx, params)
	require.NoError(t, err)

	var responses []provider.StreamEvent //nolint:prealloc
	for event := range events {
		responses = append(responses, event)
	}

	require.NotEmpty(t, responses)
	errEvent, ok := responses[len(responses)-1].(provider.Error)
	require.True(t, ok, "a broken stream must end in an error event, got %T", responses[len(responses)-1])
	assert.Error(t, errEvent.Err)

	// no end delimiter and no accumulated final response
	for _, event := range responses[:len(responses)-1] {
		if delim, ok := event.(provider.Delim); ok {
			assert.NotEqual(t, "end", delim.Delim)
		}
		_, ok := event.(provider.Response[messages.AssistantMessage])
		assert.False(t, ok)
	}
}

func TestCompletionToStreamEvent_MultipleToolCalls(t *testing.T) {
	runID := uuid.New()
	thread := messages.NewHistory()

	chat := &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					ToolCalls: []openai.ChatCompletionMessageToolCall{
						{
							ID: "tool1",
							Function: openai.ChatCompletionMessageToolCallFunction{
								Name:      "test_tool1",
								Arguments: `{"param": "value1"}`,
							},
						},
						{
							ID: "tool2",
							Function: openai.ChatCompletionMessageToolCallFunction{
								Name:      "test_tool2",
								Arguments: `{"param": "value2"}`,
							},
						},
					},
				},
			},
		},
	}

	command := &provider.CompletionParams{
		RunID:  runID,
		Thread: thread,
	}

	event := completionToStreamEvent(chat, command)
	resp, ok := event.(provider.Response[messages.ToolCallMessage])
	require.True(t, ok)
	assert.Len(t, resp.Response.ToolCalls, 2)

	// Verify first tool call
	assert.Equal(t, "tool1", resp.Response.ToolCalls[0].ID)
	assert.Equal(t, "test_tool1", resp.Response.ToolCalls[0].Name)
	assert.Equal(t, `{"param": "value1"}`, resp.Response.ToolCalls[0].Arguments)

	// Verify second tool call
	assert.Equal(t, "tool2", resp.Response.ToolCalls[1].ID)
	assert.Equal(t, "test_tool2", resp.Response.ToolCalls[1].Name)
	assert.Equal(t, `{"param": "value2"}`, resp.Response.ToolCalls[1].Arguments)
}

func TestCompletionToStreamEvent(t *testing.T) {
	runID := uuid.New()
	thread := messages.NewHistory()

	tests := []struct {
		name     string
		chat     *openai.ChatCompletion
		command  *provider.CompletionParams
		validate func(t *testing.T, event provider.StreamEvent)
	}{
		{
			name: "empty choices",
			chat: &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{},
			},
			command: &provider.CompletionParams{
				RunID:  runID,
				Thread: thread,
			},
			validate: func(t *testing.T, event provider.StreamEvent) {
				_, ok := event.(provider.Delim)
				assert.True(t, ok)
			},
		},
		{
			name: "assistant message",
			chat: &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{
					{
						Message: openai.ChatCompletionMessage{
							Content: "Test response",
						},
					},
				},
			},
			command: &provider.CompletionParams{
				RunID:  runID,
				Thread: thread,
			},
			validate: func(t *testing.T, event provider.StreamEvent) {
				resp, ok := event.(provider.Response[messages.AssistantMessage])
				assert.True(t, ok)
				assert.Equal(t, "Test response", resp.Response.Content.Content)
			},
		},
		{
			name: "tool calls",
			chat: &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{
					{
						Message: openai.ChatCompletionMessage{
							ToolCalls: []openai.ChatCompletionMessageToolCall{
								{
									ID: "tool1",
									Function: openai.ChatCompletionMessageToolCallFunction{
										Name:      "test_tool",
										Arguments: `{"param": "value"}`,
									},
								},
							},
						},
					},
				},
			},
			command: &provider.CompletionParams{
				RunID:  runID,
				Thread: thread,
			},
			validate: func(t *testing.T, event provider.StreamEvent) {
				resp, ok := event.(provider.Response[messages.ToolCallMessage])
				assert.True(t, ok)
				assert.Len(t, resp.Response.ToolCalls, 1)
				assert.Equal(t, "tool1", resp.Response.ToolCalls[0].ID)
				assert.Equal(t, "test_tool", resp.Response.ToolCalls[0].Name)
				assert.Equal(t, `{"param": "value"}`, resp.Response.ToolCalls[0].Arguments)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := completionToStreamEvent(tt.chat, tt.command)
			tt.validate(t, event)
		})
	}
}
