package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"

	"github.com/openai/openai-go/v3"
	"github.com/pkoukk/tiktoken-go"
)

// CLIP text towers have a 77 token context.
const defaultMaxLabelTokens = 77

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.GetEncoding("cl100k_base")
	})
	return enc, encErr
}

// truncateLabel shortens label to at most maxTokens tokens. Without an
// encoder it falls back to a rune budget of four runes per token.
func truncateLabel(label string, maxTokens int) string {
	label = strings.TrimSpace(label)
	if maxTokens <= 0 || label == "" {
		return label
	}
	e, err := encoding()
	if err != nil {
		runes := []rune(label)
		if len(runes) > maxTokens*4 {
			return string(runes[:maxTokens*4])
		}
		return label
	}
	tokens := e.Encode(label, nil, nil)
	if len(tokens) <= maxTokens {
		return label
	}
	return e.Decode(tokens[:maxTokens])
}

// GenerateTextEmbeddings embeds labels in one request and returns the vectors
// in input order.
func (c *OpenAIEmbeddingClient) GenerateTextEmbeddings(
	ctx context.Context,
	labels []string,
	opts ...ai.EmbedOption,
) ([][]float32, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	if c.EmbeddingClient == nil {
		return nil, errors.New("openai embedding client not configured")
	}
	o := ai.ApplyEmbedOptions(ai.EmbedOptions{Model: c.embeddingModel, Dimensions: c.dimensions}, opts...)

	inputs := make([]string, len(labels))
	for i, l := range labels {
		inputs[i] = truncateLabel(l, c.maxLabelTokens)
		if inputs[i] == "" {
			// The endpoint rejects empty strings.
			inputs[i] = " "
		}
	}

	return c.embed(ctx, c.EmbeddingClient, o, inputs)
}

// GenerateImageEmbedding resizes image and sends it as a base64 data URI.
func (c *OpenAIEmbeddingClient) GenerateImageEmbedding(
	ctx context.Context,
	image []byte,
	opts ...ai.EmbedOption,
) ([]float32, error) {
	if c.ImageClient == nil {
		return nil, ai.ErrImageEmbeddingUnsupported
	}
	o := ai.ApplyEmbedOptions(ai.EmbedOptions{
		Model:      c.imageModel,
		Dimensions: c.dimensions,
		ImageSize:  c.imageSize,
	}, opts...)

	prepared, err := ai.PrepareImage(image, o.ImageSize)
	if err != nil {
		return nil, err
	}
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(prepared)

	out, err := c.embed(ctx, c.ImageClient, o, []string{uri})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (c *OpenAIEmbeddingClient) embed(
	ctx context.Context,
	client *openai.Client,
	o ai.EmbedOptions,
	inputs []string,
) ([][]float32, error) {
	rCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: o.Model,
	}

	if err := c.reqLock.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	response, err := client.Embeddings.New(rCtx, body)
	if err != nil {
		logger.Warn("[AI] Embedding request failed", "model", o.Model, "inputs", len(inputs), "err", err)
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		Requests:    1,
		InputTokens: int(response.Usage.PromptTokens),
		TotalTokens: int(response.Usage.TotalTokens),
		DurationMs:  time.Since(start).Milliseconds(),
	})

	if len(response.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(response.Data), len(inputs))
	}

	out := make([][]float32, len(inputs))
	for _, embedding := range response.Data {
		idx := int(embedding.Index)
		if idx < 0 || idx >= len(inputs) {
			return nil, fmt.Errorf("embedding index out of range: %d", embedding.Index)
		}
		vec := make([]float32, len(embedding.Embedding))
		for i, v := range embedding.Embedding {
			vec[i] = float32(v)
		}
		out[idx] = ai.FitDimensions(vec, o.Dimensions)
	}
	for i := range out {
		if out[i] == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return out, nil
}
