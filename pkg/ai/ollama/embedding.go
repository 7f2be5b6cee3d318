package ollama

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

// GenerateImageEmbedding is not supported by Ollama.
func (c *OllamaEmbeddingClient) GenerateImageEmbedding(
	ctx context.Context,
	image []byte,
	opts ...ai.EmbedOption,
) ([]float32, error) {
	return nil, ai.ErrImageEmbeddingUnsupported
}

// GenerateTextEmbeddings embeds all labels in a single Embed call.
func (c *OllamaEmbeddingClient) GenerateTextEmbeddings(
	ctx context.Context,
	labels []string,
	opts ...ai.EmbedOption,
) ([][]float32, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	o := ai.ApplyEmbedOptions(ai.EmbedOptions{Model: c.embeddingModel, Dimensions: c.dimensions}, opts...)

	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.EmbedRequest{
		Model: o.Model,
		Input: labels,
	}

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	res, err := c.Client.Embed(rCtx, req)
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		Requests:    1,
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	if len(res.Embeddings) != len(labels) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(res.Embeddings), len(labels))
	}
	out := make([][]float32, len(labels))
	for i, v := range res.Embeddings {
		out[i] = ai.FitDimensions(v, o.Dimensions)
	}
	return out, nil
}
