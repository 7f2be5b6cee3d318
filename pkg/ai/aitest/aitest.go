// Package aitest provides an in-memory ai.EmbeddingClient for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
)

// ErrUnknownLabel is returned when a label has no configured vector and the
// client runs in strict mode.
var ErrUnknownLabel = errors.New("aitest: unknown label")

// FakeClient maps images and labels to fixed vectors.
type FakeClient struct {
	mu sync.Mutex

	Images map[string][]float32
	Labels map[string][]float32

	// ImageErr and TextErr force failures of the respective calls.
	ImageErr error
	TextErr  error
	// Strict makes unknown labels an error instead of a zero vector.
	Strict bool

	ImageCalls int
	TextCalls  int
	LabelsSeen []string

	metrics ai.ModelMetrics
}

// NewFakeClient returns an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Images: map[string][]float32{},
		Labels: map[string][]float32{},
	}
}

func (f *FakeClient) GenerateImageEmbedding(ctx context.Context, image []byte, opts ...ai.EmbedOption) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ImageCalls++
	f.metrics.Requests++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ImageErr != nil {
		return nil, f.ImageErr
	}
	v, ok := f.Images[string(image)]
	if !ok {
		return nil, ai.ErrImageEmbeddingUnsupported
	}
	return v, nil
}

func (f *FakeClient) GenerateTextEmbeddings(ctx context.Context, labels []string, opts ...ai.EmbedOption) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TextCalls++
	f.metrics.Requests++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.TextErr != nil {
		return nil, f.TextErr
	}
	out := make([][]float32, len(labels))
	for i, l := range labels {
		f.LabelsSeen = append(f.LabelsSeen, l)
		v, ok := f.Labels[l]
		if !ok && f.Strict {
			return nil, ErrUnknownLabel
		}
		out[i] = v
	}
	return out, nil
}

func (f *FakeClient) ResetMetrics() {
	f.mu.Lock()
	f.metrics = ai.ModelMetrics{}
	f.mu.Unlock()
}

func (f *FakeClient) GetMetrics() ai.ModelMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics
}
