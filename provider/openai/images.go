package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/quayside/gangway/provider"
)

var _ provider.ImageService = (*Provider)(nil)

// GenerateImages renders the prompt into one or more images.
func (p *Provider) GenerateImages(ctx context.Context, params provider.ImageParams) (*provider.ImageResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	req := openai.ImageGenerateParams{
		Prompt: openai.String(params.Prompt),
	}
	if params.Model != "" {
		req.Model = openai.F(params.Model)
	}
	if params.Count > 0 {
		req.N = openai.Int(params.Count)
	}
	if params.Size != "" {
		req.Size = openai.F(openai.ImageGenerateParamsSize(params.Size))
	}
	if params.Quality != "" {
		req.Quality = openai.F(openai.ImageGenerateParamsQuality(params.Quality))
	}
	if params.ResponseFormat != "" {
		req.ResponseFormat = openai.F(openai.ImageGenerateParamsResponseFormat(params.ResponseFormat))
	}

	resp, err := p.client.Images.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate images: %w", err)
	}

	images := make([]provider.GeneratedImage, len(resp.Data))
	for i, item := range resp.Data {
		img := provider.GeneratedImage{
			URL:           item.URL,
			RevisedPrompt: item.RevisedPrompt,
		}
		if item.B64JSON != "" {
			data, err := base64.StdEncoding.DecodeString(item.B64JSON)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image payload: %w", err)
			}
			img.Data = data
		}
		images[i] = img
	}

	return &provider.ImageResult{Images: images}, nil
}
