package openai

import (
	"math"
	"sync"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// OpenAIEmbeddingClient embeds photos and category labels through an
// OpenAI compatible /v1/embeddings endpoint. Image support depends on the
// server: CLIP style deployments accept data URIs as input strings.
//
// A OpenAIEmbeddingClient should be created using NewOpenAIEmbeddingClient.
type OpenAIEmbeddingClient struct {
	embeddingModel string
	imageModel     string
	dimensions     int
	imageSize      int
	maxLabelTokens int
	timeout        time.Duration

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	EmbeddingClient *openai.Client
	ImageClient     *openai.Client
}

// NewOpenAIEmbeddingClientParams defines the configuration parameters for
// creating a new OpenAIEmbeddingClient.
//
// ImageURL and ImageKey default to the embedding endpoint when empty.
// Dimensions of 0 keeps whatever size the model returns.
type NewOpenAIEmbeddingClientParams struct {
	EmbeddingModel string
	ImageModel     string

	EmbeddingURL string
	EmbeddingKey string
	ImageURL     string
	ImageKey     string

	Dimensions     int
	ImageSize      int
	MaxLabelTokens int
	Timeout        time.Duration

	MaxConcurrentRequests int64
}

// NewOpenAIEmbeddingClient creates a client from params.
//
// Example:
//
//	client := openai.NewOpenAIEmbeddingClient(openai.NewOpenAIEmbeddingClientParams{
//		EmbeddingModel: "clip-vit-b-32",
//		EmbeddingURL:   "http://localhost:8000/v1",
//		EmbeddingKey:   os.Getenv("AI_EMBED_KEY"),
//	})
func NewOpenAIEmbeddingClient(params NewOpenAIEmbeddingClientParams) *OpenAIEmbeddingClient {
	imageURL, imageKey := params.ImageURL, params.ImageKey
	if imageKey == "" {
		imageURL, imageKey = params.EmbeddingURL, params.EmbeddingKey
	}
	imageModel := params.ImageModel
	if imageModel == "" {
		imageModel = params.EmbeddingModel
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	imageSize := params.ImageSize
	if imageSize <= 0 {
		imageSize = ai.DefaultImageSize
	}
	maxTokens := params.MaxLabelTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxLabelTokens
	}

	return &OpenAIEmbeddingClient{
		embeddingModel: params.EmbeddingModel,
		imageModel:     imageModel,
		dimensions:     params.Dimensions,
		imageSize:      imageSize,
		maxLabelTokens: maxTokens,
		timeout:        timeout,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		EmbeddingClient: newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey),
		ImageClient:     newOpenaiClient(imageURL, imageKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

// ResetMetrics clears all accumulated token and timing metrics to zero.
func (c *OpenAIEmbeddingClient) ResetMetrics() {
	c.metricsLock.Lock()
	c.metrics = ai.ModelMetrics{}
	c.metricsLock.Unlock()
}

// GetMetrics returns the accumulated token usage and timing metrics since the last reset.
func (c *OpenAIEmbeddingClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *OpenAIEmbeddingClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.Requests += m.Requests
	c.metrics.InputTokens += m.InputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs

	if c.metrics.DurationMs > 0 {
		tokensPerSecond := (float64(c.metrics.TotalTokens) * 1000.0) / float64(c.metrics.DurationMs)
		c.metrics.TokenPerSecond = float32(math.Round(tokensPerSecond*100) / 100)
	}
}
