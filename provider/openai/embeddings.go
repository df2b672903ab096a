package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/quayside/gangway/messages"
	"github.com/quayside/gangway/provider"
)

var _ provider.EmbeddingService = (*Provider)(nil)

// GenerateEmbeddings embeds the inputs in a single request. The result keeps
// one vector per input, in input order.
func (p *Provider) GenerateEmbeddings(ctx context.Context, params provider.EmbeddingParams) (*provider.EmbeddingResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	req := openai.EmbeddingNewParams{
		Model:          openai.F(params.Model),
		Input:          openai.F[openai.EmbeddingNewParamsInputUnion](openai.EmbeddingNewParamsInputArrayOfStrings(params.Input)),
		EncodingFormat: openai.F(openai.EmbeddingNewParamsEncodingFormatFloat),
	}
	if params.Dimensions != nil {
		req.Dimensions = openai.Int(*params.Dimensions)
	}
	if params.User != "" {
		req.User = openai.String(params.User)
	}

	resp, err := p.client.Embeddings.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Data) != len(params.Input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(params.Input), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[item.Index] = vec
	}

	return &provider.EmbeddingResult{
		Vectors: vectors,
		Usage: messages.Usage{
			PromptTokens: resp.Usage.PromptTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}
