// Package bootstrap builds the shared dependencies of the server, worker and
// command line binaries from the environment.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/storage"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai/clip"
	oai "github.com/OFFIS-RIT/tripalbum/backend/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/tripalbum/backend/pkg/ai/openai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger/console"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger/jsonlog"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/places"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store/sqlite"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// InitLogger installs the console logger, or the JSON logger when
// LOG_FORMAT=json.
func InitLogger(service string) {
	debug := util.GetEnvBool("DEBUG", false)
	level := util.GetEnvString("LOG_LEVEL", "")
	if level == "" && debug {
		level = "debug"
	}

	if util.GetEnvString("LOG_FORMAT", "console") == "json" {
		logger.Init(jsonlog.NewJSONLogger(jsonlog.JSONLoggerParams{
			Service: service,
			Level:   level,
		}))
		return
	}
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Level:  level,
		Prefix: service,
	}))
}

// NewEmbeddingClient selects the embedding backend named by AI_ADAPTER:
// openai (default), ollama or clip.
func NewEmbeddingClient() (ai.EmbeddingClient, error) {
	dimensions := int(util.GetEnvNumeric("AI_EMBED_DIMENSIONS", 0))
	imageSize := int(util.GetEnvNumeric("AI_IMAGE_SIZE", ai.DefaultImageSize))
	timeout := util.GetEnvDuration("AI_TIMEOUT", 30*time.Second)
	parallel := int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4))

	switch adapter := util.GetEnvString("AI_ADAPTER", "openai"); adapter {
	case "ollama":
		client, err := oai.NewOllamaEmbeddingClient(oai.NewOllamaEmbeddingClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			Dimensions:     dimensions,

			BaseURL: util.GetEnv("AI_EMBED_URL"),
			ApiKey:  util.GetEnv("AI_EMBED_KEY"),
			Timeout: timeout,

			MaxConcurrentRequests: parallel,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "clip":
		return clip.NewClipClient(clip.NewClipClientParams{
			BaseURL:    util.GetEnv("AI_EMBED_URL"),
			ApiKey:     util.GetEnv("AI_EMBED_KEY"),
			Dimensions: dimensions,
			ImageSize:  imageSize,
			Timeout:    timeout,

			MaxConcurrentRequests: parallel,
		}), nil
	case "openai":
		return gai.NewOpenAIEmbeddingClient(gai.NewOpenAIEmbeddingClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ImageModel:     util.GetEnv("AI_IMAGE_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ImageURL:     util.GetEnv("AI_IMAGE_URL"),
			ImageKey:     util.GetEnv("AI_IMAGE_KEY"),

			Dimensions: dimensions,
			ImageSize:  imageSize,
			Timeout:    timeout,

			MaxConcurrentRequests: parallel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}
}

// NewPlaceFinder returns the Google Places client, or nil when no API key is
// configured. Moments are then named "No Nearby Places".
func NewPlaceFinder() places.Finder {
	key := util.GetEnv("GOOGLE_PLACES_API_KEY")
	if key == "" {
		logger.Warn("GOOGLE_PLACES_API_KEY not set, place search disabled")
		return nil
	}
	return places.NewGoogleClient(places.GoogleClientParams{
		APIKey:          key,
		BaseURL:         util.GetEnv("GOOGLE_PLACES_URL"),
		LandmarkRadius:  int(util.GetEnvNumeric("PLACES_LANDMARK_RADIUS", 0)),
		ProximityRadius: int(util.GetEnvNumeric("PLACES_PROXIMITY_RADIUS", 0)),
		Timeout:         util.GetEnvDuration("PLACES_TIMEOUT", 10*time.Second),
		MaxTries:        int(util.GetEnvNumeric("PLACES_MAX_TRIES", 3)),
	})
}

// NewAssembler loads the ALBUM_* configuration and wires the pipeline.
func NewAssembler(embedder ai.EmbeddingClient, finder places.Finder, images album.ImageSource) (*album.Assembler, error) {
	cfg, err := album.LoadConfig()
	if err != nil {
		return nil, err
	}
	a := album.NewAssembler(embedder, finder, cfg)
	a.Images = images
	return a, nil
}

// NewPool connects to DATABASE_URL with the pgvector types registered on
// every connection.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		return nil, err
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// NewAlbumCache picks the album cache named by ALBUM_CACHE: s3 (default) or
// sqlite at ALBUM_CACHE_PATH. The returned func releases it.
func NewAlbumCache(ctx context.Context, client *s3.Client) (album.Cache, func(), error) {
	switch kind := util.GetEnvString("ALBUM_CACHE", "s3"); kind {
	case "s3":
		if client == nil {
			return nil, nil, fmt.Errorf("ALBUM_CACHE=s3 needs an S3 client")
		}
		return storage.NewS3AlbumCache(client, storage.Bucket()), func() {}, nil
	case "sqlite":
		c, err := sqlite.Open(ctx, util.GetEnvString("ALBUM_CACHE_PATH", "albums.db"))
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	case "memory":
		return album.NewMemoryCache(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown ALBUM_CACHE %q", kind)
	}
}
