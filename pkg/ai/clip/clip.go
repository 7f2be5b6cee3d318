// Package clip talks to a small CLIP inference service that embeds images
// and texts into a shared vector space.
//
// The service exposes:
//
//	POST /embed       {"image_base64": "..."}      -> {"embedding": [...]}
//	POST /embed/text  {"texts": ["...", "..."]}    -> {"embeddings": [[...], ...]}
//	GET  /health                                   -> 200
package clip

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"
)

type ClipClient struct {
	client     *resty.Client
	dimensions int
	imageSize  int

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics
}

type NewClipClientParams struct {
	BaseURL    string
	ApiKey     string
	Dimensions int
	ImageSize  int
	Timeout    time.Duration

	MaxConcurrentRequests int64
}

type imageRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type imageResponse struct {
	Embedding []float32 `json:"embedding"`
}

type textRequest struct {
	Texts []string `json:"texts"`
}

type textResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func NewClipClient(params NewClipClientParams) *ClipClient {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	imageSize := params.ImageSize
	if imageSize <= 0 {
		imageSize = ai.DefaultImageSize
	}

	c := resty.New().
		SetBaseURL(params.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if params.ApiKey != "" {
		c.SetAuthToken(params.ApiKey)
	}

	return &ClipClient{
		client:     c,
		dimensions: params.Dimensions,
		imageSize:  imageSize,
		reqLock:    semaphore.NewWeighted(maxConcurrent),
	}
}

// Health returns nil when the service answers GET /health with 200.
func (c *ClipClient) Health(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("clip health: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("clip health status %d", resp.StatusCode())
	}
	return nil
}

func (c *ClipClient) GenerateImageEmbedding(
	ctx context.Context,
	image []byte,
	opts ...ai.EmbedOption,
) ([]float32, error) {
	o := ai.ApplyEmbedOptions(ai.EmbedOptions{Dimensions: c.dimensions, ImageSize: c.imageSize}, opts...)

	prepared, err := ai.PrepareImage(image, o.ImageSize)
	if err != nil {
		return nil, err
	}

	var out imageResponse
	if err := c.post(ctx, "/embed", &imageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(prepared),
	}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("clip returned an empty embedding")
	}
	return ai.FitDimensions(out.Embedding, o.Dimensions), nil
}

func (c *ClipClient) GenerateTextEmbeddings(
	ctx context.Context,
	labels []string,
	opts ...ai.EmbedOption,
) ([][]float32, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	o := ai.ApplyEmbedOptions(ai.EmbedOptions{Dimensions: c.dimensions}, opts...)

	var out textResponse
	if err := c.post(ctx, "/embed/text", &textRequest{Texts: labels}, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) != len(labels) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want %d", len(out.Embeddings), len(labels))
	}
	for i := range out.Embeddings {
		out.Embeddings[i] = ai.FitDimensions(out.Embeddings[i], o.Dimensions)
	}
	return out.Embeddings, nil
}

func (c *ClipClient) post(ctx context.Context, path string, body, result any) error {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.reqLock.Release(1)

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		Post(path)
	if err != nil {
		return fmt.Errorf("clip request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("clip status %d: %s", resp.StatusCode(), resp.String())
	}

	c.modifyMetrics(ai.ModelMetrics{
		Requests:   1,
		DurationMs: time.Since(start).Milliseconds(),
	})
	return nil
}

func (c *ClipClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

func (c *ClipClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *ClipClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.Requests += m.Requests
	c.metrics.DurationMs += m.DurationMs
	if c.metrics.DurationMs > 0 {
		rps := float64(c.metrics.Requests) * 1000.0 / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(rps*100) / 100)
	}
}
