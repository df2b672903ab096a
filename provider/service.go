package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/quayside/gangway/messages"
)

// ChatService is the chat completion surface of a connector. Events arrive
// on the returned channel; the channel closes when the request resolves.
type ChatService interface {
	ChatCompletion(context.Context, CompletionParams) (<-chan StreamEvent, error)
}

// Model names a model and knows which connector serves it.
type Model interface {
	Name() string
	Provider() ChatService
}

// EmbeddingService generates vector embeddings for text inputs.
type EmbeddingService interface {
	GenerateEmbeddings(context.Context, EmbeddingParams) (*EmbeddingResult, error)
}

// EmbeddingParams configures one embedding request.
type EmbeddingParams struct {
	// Model is the embedding model name.
	Model string

	// Input holds the texts to embed; one vector comes back per entry.
	Input []string

	// Dimensions optionally truncates the output vectors, for models that
	// support shortened embeddings.
	Dimensions *int64

	// User is an opaque end-user identifier forwarded to the provider.
	User string

	_ struct{}
}

// Validate checks the request before it reaches the SDK.
func (p *EmbeddingParams) Validate() error {
	if len(p.Input) == 0 {
		return errors.New("embedding request requires at least one input")
	}
	if p.Dimensions != nil && *p.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", *p.Dimensions)
	}
	return nil
}

// EmbeddingResult carries one vector per input plus token usage.
type EmbeddingResult struct {
	Vectors [][]float32
	Usage   messages.Usage
	_       struct{}
}

// ImageService generates images from text prompts.
type ImageService interface {
	GenerateImages(context.Context, ImageParams) (*ImageResult, error)
}

// ImageParams configures one image generation request.
type ImageParams struct {
	Model  string
	Prompt string

	// Count is the number of images to generate; zero means one.
	Count int64

	// Size is a provider size string such as "1024x1024".
	Size string

	// Quality is a provider quality string such as "standard" or "hd".
	Quality string

	// ResponseFormat selects "url" or "b64_json" delivery.
	ResponseFormat string

	_ struct{}
}

// Validate checks the request before it reaches the SDK.
func (p *ImageParams) Validate() error {
	if p.Prompt == "" {
		return errors.New("image request requires a prompt")
	}
	if p.Count < 0 {
		return fmt.Errorf("image count must be positive, got %d", p.Count)
	}
	switch p.ResponseFormat {
	case "", "url", "b64_json":
	default:
		return fmt.Errorf("unknown image response format %q", p.ResponseFormat)
	}
	return nil
}

// GeneratedImage is one image out of an ImageService call. Either URL or
// Data is populated depending on the requested response format.
type GeneratedImage struct {
	URL           string
	Data          []byte
	RevisedPrompt string
	_             struct{}
}

// ImageResult carries the generated images.
type ImageResult struct {
	Images []GeneratedImage
	_      struct{}
}

// SpeechService renders text to audio.
type SpeechService interface {
	GenerateSpeech(context.Context, SpeechParams) ([]byte, error)
}

// SpeechParams configures one text-to-speech request.
type SpeechParams struct {
	Model string
	Input string
	Voice string

	// Format is the audio container, e.g. "mp3" or "wav".
	Format string

	// Speed scales playback between 0.25 and 4.0 when set.
	Speed *float64

	_ struct{}
}

// Validate checks the request before it reaches the SDK.
func (p *SpeechParams) Validate() error {
	if p.Input == "" {
		return errors.New("speech request requires input text")
	}
	if p.Speed != nil && (*p.Speed < 0.25 || *p.Speed > 4.0) {
		return fmt.Errorf("speech speed %0.2f out of range [0.25, 4.0]", *p.Speed)
	}
	return nil
}

// TranscriptionService converts audio to text.
type TranscriptionService interface {
	Transcribe(context.Context, TranscriptionParams) (*Transcription, error)
}

// TranscriptionParams configures one audio transcription request.
type TranscriptionParams struct {
	Model string

	// Filename hints the container format to the provider; the audio itself
	// streams from Audio.
	Filename string
	Audio    io.Reader

	Language    string
	Prompt      string
	Temperature *float64

	_ struct{}
}

// Validate checks the request before it reaches the SDK.
func (p *TranscriptionParams) Validate() error {
	if p.Audio == nil {
		return errors.New("transcription request requires audio data")
	}
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 1) {
		return fmt.Errorf("transcription temperature %0.2f out of range [0, 1]", *p.Temperature)
	}
	return nil
}

// Transcription is the text recovered from an audio input.
type Transcription struct {
	Text string
	_    struct{}
}
