package ai

import (
	"context"
	"errors"
)

var (
	// ErrImageEmbeddingUnsupported is returned by backends that can only
	// embed text.
	ErrImageEmbeddingUnsupported = errors.New("image embedding not supported by backend")
	// ErrDimensionMismatch is returned when two vectors of different length
	// (or empty vectors) are compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// ModelMetrics contains performance metrics from embedding model calls.
type ModelMetrics struct {
	Requests       int     `json:"requests"`
	InputTokens    int     `json:"input_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// EmbedOptions holds configuration for embedding requests.
type EmbedOptions struct {
	Model      string // Model identifier overriding the client default
	Dimensions int    // Truncate or pad the returned vectors to this size
	ImageSize  int    // Edge length images are resized to before upload
}

// EmbedOption is a functional option for configuring embedding requests.
type EmbedOption func(*EmbedOptions)

// WithModel returns an EmbedOption that overrides the model of the request.
func WithModel(model string) EmbedOption {
	return func(o *EmbedOptions) {
		o.Model = model
	}
}

// WithDimensions returns an EmbedOption that fixes the vector size.
func WithDimensions(dim int) EmbedOption {
	return func(o *EmbedOptions) {
		o.Dimensions = dim
	}
}

// WithImageSize returns an EmbedOption that sets the edge length images are
// resized to before they are sent to the model.
func WithImageSize(size int) EmbedOption {
	return func(o *EmbedOptions) {
		o.ImageSize = size
	}
}

// ApplyEmbedOptions folds opts over the given defaults.
func ApplyEmbedOptions(defaults EmbedOptions, opts ...EmbedOption) EmbedOptions {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// EmbeddingClient is the embedding capability consumed by the album pipeline.
// Images and text labels must be embedded into the same vector space so that
// a photo can be compared against category names.
//
// GenerateTextEmbeddings must preserve the order of labels.
type EmbeddingClient interface {
	GenerateImageEmbedding(ctx context.Context, image []byte, opts ...EmbedOption) ([]float32, error)
	GenerateTextEmbeddings(ctx context.Context, labels []string, opts ...EmbedOption) ([][]float32, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
