package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/bootstrap"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/queue"
	mid "github.com/OFFIS-RIT/tripalbum/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/storage"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	pgstore "github.com/OFFIS-RIT/tripalbum/backend/pkg/store/pgx"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance with middlewares and routes around app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(util.GetEnvString("BODY_LIMIT", "256M")))

	RegisterRoutes(e)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &mid.App{
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
		MasterUserID:   util.GetEnv("MASTER_USER_ID"),
		MasterUserRole: util.GetEnv("MASTER_USER_ROLE"),
	}

	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err := keyfunc.NewDefault([]string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		app.Keyfunc = k.Keyfunc
	} else {
		logger.Warn("AUTH_URL not set, only the master API key is accepted")
	}

	if util.GetEnvBool("RUN_MIGRATIONS", true) {
		if err := pgstore.Migrate(util.GetEnv("DATABASE_URL"), util.GetEnv("MIGRATIONS_SOURCE")); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
	}

	conn, err := bootstrap.NewPool(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	app.Photos = pgstore.NewPhotoDBStorage(conn)
	app.Jobs = pgstore.NewJobDBStorage(conn)

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()
	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}
	app.Queue = ch

	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}
	cache, closeCache, err := bootstrap.NewAlbumCache(ctx, s3Client)
	if err != nil {
		logger.Fatal("Failed to open album cache", "err", err)
	}
	defer closeCache()
	app.Cache = cache

	embedder, err := bootstrap.NewEmbeddingClient()
	if err != nil {
		logger.Fatal("Failed to create embedding client", "err", err)
	}
	images := storage.NewS3ImageSource(s3Client, storage.Bucket(), int(util.GetEnvNumeric("IMAGE_CACHE_ENTRIES", 64)))
	app.Assembler, err = bootstrap.NewAssembler(embedder, bootstrap.NewPlaceFinder(), images)
	if err != nil {
		logger.Fatal("Invalid album configuration", "err", err)
	}

	e := New(app)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
