package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 500
)

type photosResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type searchPhotosResponse struct {
	Message string               `json:"message"`
	Photos  []common.PhotoRecord `json:"photos"`
}

// UpsertPhotosHandler stores photo records in the library catalog.
func UpsertPhotosHandler(c echo.Context) error {
	type upsertPhotosBody struct {
		Photos []common.PhotoRecord `json:"photos" validate:"required,min=1"`
	}

	libraryID := c.Param("id")
	data := new(upsertPhotosBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, photosResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, photosResponse{Message: "Invalid request body"})
	}
	if len(data.Photos) > maxPhotosPerRequest {
		return c.JSON(http.StatusRequestEntityTooLarge, photosResponse{Message: "Too many photos"})
	}

	n, err := appOf(c).Photos.UpsertPhotos(c.Request().Context(), libraryID, data.Photos)
	if errors.Is(err, store.ErrInvalidPhoto) {
		return c.JSON(http.StatusBadRequest, photosResponse{Message: err.Error()})
	}
	if err != nil {
		logger.Error("[Photos] Failed to upsert photos", "library_id", libraryID, "err", err)
		return c.JSON(http.StatusInternalServerError, photosResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, photosResponse{Message: "Photos stored", Count: n})
}

// DeletePhotosHandler removes the listed photos, or the whole library when
// no ids are given.
func DeletePhotosHandler(c echo.Context) error {
	type deletePhotosBody struct {
		IDs []string `json:"ids"`
	}

	libraryID := c.Param("id")
	data := new(deletePhotosBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, photosResponse{Message: "Invalid request body"})
	}

	n, err := appOf(c).Photos.DeletePhotos(c.Request().Context(), libraryID, data.IDs)
	if err != nil {
		logger.Error("[Photos] Failed to delete photos", "library_id", libraryID, "err", err)
		return c.JSON(http.StatusInternalServerError, photosResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, photosResponse{Message: "Photos deleted", Count: n})
}

// SearchPhotosHandler embeds the text query q and returns the library photos
// closest to it, nearest first.
func SearchPhotosHandler(c echo.Context) error {
	libraryID := c.Param("id")
	query := util.SanitizeText(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusBadRequest, searchPhotosResponse{Message: "Missing query"})
	}

	limit := defaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, searchPhotosResponse{Message: "Invalid limit"})
		}
		limit = min(n, maxSearchLimit)
	}

	app := appOf(c)
	if app.Assembler == nil || app.Assembler.Embedder == nil {
		return c.JSON(http.StatusServiceUnavailable, searchPhotosResponse{Message: "Embedding backend not configured"})
	}

	ctx := c.Request().Context()
	vectors, err := app.Assembler.Embedder.GenerateTextEmbeddings(ctx, []string{query})
	if err != nil || len(vectors) != 1 || len(vectors[0]) == 0 {
		logger.Warn("[Photos] Failed to embed search query", "library_id", libraryID, "err", err)
		return c.JSON(http.StatusBadGateway, searchPhotosResponse{Message: "Failed to embed query"})
	}

	photos, err := app.Photos.SearchPhotos(ctx, libraryID, vectors[0], limit)
	if err != nil {
		logger.Error("[Photos] Failed to search photos", "library_id", libraryID, "err", err)
		return c.JSON(http.StatusInternalServerError, searchPhotosResponse{Message: "Internal server error"})
	}
	if photos == nil {
		photos = []common.PhotoRecord{}
	}

	return c.JSON(http.StatusOK, searchPhotosResponse{Message: "Photos found", Photos: photos})
}
