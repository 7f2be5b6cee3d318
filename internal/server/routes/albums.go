package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/queue"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

type albumsResponse struct {
	Message       string         `json:"message"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	AlbumKey      string         `json:"album_key,omitempty"`
	Albums        []common.Album `json:"albums,omitempty"`
}

// CreateAlbumsHandler generates the albums of a library. By default the job
// is queued for a worker; ?sync=true generates inline and returns the albums.
func CreateAlbumsHandler(c echo.Context) error {
	type createAlbumsBody struct {
		Strategy string `json:"strategy" validate:"omitempty,oneof=sequential density"`
		AlbumKey string `json:"album_key" validate:"omitempty,alphanum,max=64"`
	}

	libraryID := c.Param("id")
	data := new(createAlbumsBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, albumsResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, albumsResponse{Message: "Invalid request body"})
	}

	app := appOf(c)
	ctx := c.Request().Context()
	key := data.AlbumKey
	if key == "" {
		key = util.NewAlbumKey()
	}

	if c.QueryParam("sync") == "true" {
		photos, err := app.Photos.ListPhotos(ctx, libraryID)
		if errors.Is(err, store.ErrEmptyLibrary) {
			return c.JSON(http.StatusNotFound, albumsResponse{Message: "Library has no photos"})
		}
		if err != nil {
			logger.Error("[Albums] Failed to list photos", "library_id", libraryID, "err", err)
			return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Internal server error"})
		}

		albums, err := generateAlbums(ctx, app, photos, data.Strategy, nil)
		if err != nil {
			logger.Error("[Albums] Failed to generate albums", "library_id", libraryID, "err", err)
			return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Failed to generate albums"})
		}
		if err := album.SaveAll(ctx, app.Cache, key, albums); err != nil {
			logger.Error("[Albums] Failed to save albums", "album_key", key, "err", err)
			return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Internal server error"})
		}
		return c.JSON(http.StatusCreated, albumsResponse{Message: "Albums generated", AlbumKey: key, Albums: albums})
	}

	if app.Queue == nil {
		return c.JSON(http.StatusServiceUnavailable, albumsResponse{Message: "Queue unavailable, use sync=true"})
	}

	msg := queue.QueueAlbumMsg{
		CorrelationID: util.NewCorrelationID(),
		LibraryID:     libraryID,
		AlbumKey:      key,
		Strategy:      data.Strategy,
	}
	if app.Jobs != nil {
		err := app.Jobs.CreateJob(ctx, store.Job{
			CorrelationID: msg.CorrelationID,
			LibraryID:     libraryID,
			AlbumKey:      key,
			Status:        store.JobQueued,
		})
		if err != nil {
			logger.Error("[Albums] Failed to create job", "library_id", libraryID, "err", err)
			return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Internal server error"})
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Internal server error"})
	}
	if err := queue.PublishFIFO(app.Queue, queue.AlbumQueue, body); err != nil {
		logger.Error("[Albums] Failed to enqueue album job", "library_id", libraryID, "err", err)
		return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Failed to enqueue job"})
	}

	return c.JSON(http.StatusAccepted, albumsResponse{
		Message:       "Album generation queued",
		CorrelationID: msg.CorrelationID,
		AlbumKey:      key,
	})
}

func GetAlbumsHandler(c echo.Context) error {
	key := c.Param("key")
	albums, err := album.LoadAll(c.Request().Context(), appOf(c).Cache, key)
	if errors.Is(err, album.ErrNotFound) {
		return c.JSON(http.StatusNotFound, albumsResponse{Message: "Album not found"})
	}
	if err != nil {
		logger.Error("[Albums] Failed to load albums", "album_key", key, "err", err)
		return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Internal server error"})
	}
	return c.JSON(http.StatusOK, albumsResponse{Message: "OK", AlbumKey: key, Albums: albums})
}

func DeleteAlbumsHandler(c echo.Context) error {
	key := c.Param("key")
	n, err := album.DeleteAll(c.Request().Context(), appOf(c).Cache, key)
	if errors.Is(err, album.ErrNotFound) {
		return c.JSON(http.StatusNotFound, albumsResponse{Message: "Album not found"})
	}
	if err != nil {
		logger.Error("[Albums] Failed to delete albums", "album_key", key, "deleted", n, "err", err)
		return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Internal server error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func GetJobHandler(c echo.Context) error {
	jobs := appOf(c).Jobs
	if jobs == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Job tracking disabled"})
	}
	job, err := jobs.GetJob(c.Request().Context(), c.Param("correlation_id"))
	if errors.Is(err, store.ErrJobNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Job not found"})
	}
	if err != nil {
		logger.Error("[Albums] Failed to load job", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, job)
}

func GetAlbumSchemaHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, album.Schema())
}
