package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/quayside/gangway/provider"
)

var (
	_ provider.SpeechService        = (*Provider)(nil)
	_ provider.TranscriptionService = (*Provider)(nil)
)

// GenerateSpeech renders the input text as audio and returns the raw bytes.
func (p *Provider) GenerateSpeech(ctx context.Context, params provider.SpeechParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	req := openai.AudioSpeechNewParams{
		Model: openai.F(params.Model),
		Input: openai.String(params.Input),
		Voice: openai.F(openai.AudioSpeechNewParamsVoice(params.Voice)),
	}
	if params.Format != "" {
		req.ResponseFormat = openai.F(openai.AudioSpeechNewParamsResponseFormat(params.Format))
	}
	if params.Speed != nil {
		req.Speed = openai.Float(*params.Speed)
	}

	resp, err := p.client.Audio.Speech.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech response: %w", err)
	}
	return audio, nil
}

// Transcribe converts the audio stream to text.
func (p *Provider) Transcribe(ctx context.Context, params provider.TranscriptionParams) (*provider.Transcription, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	filename := params.Filename
	if filename == "" {
		filename = "audio.mp3"
	}
	req := openai.AudioTranscriptionNewParams{
		Model: openai.F(params.Model),
		File:  openai.FileParam(params.Audio, filename, "application/octet-stream"),
	}
	if params.Language != "" {
		req.Language = openai.String(params.Language)
	}
	if params.Prompt != "" {
		req.Prompt = openai.String(params.Prompt)
	}
	if params.Temperature != nil {
		req.Temperature = openai.Float(*params.Temperature)
	}

	resp, err := p.client.Audio.Transcriptions.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe audio: %w", err)
	}

	return &provider.Transcription{Text: resp.Text}, nil
}
