package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type momentResponse struct {
	Message string         `json:"message"`
	Moment  *common.Moment `json:"moment,omitempty"`
}

// EditMomentHandler applies a user correction to one moment of a cached
// album and writes the album back.
func EditMomentHandler(c echo.Context) error {
	key := c.Param("key")
	momentID := c.Param("moment_id")

	data := new(album.MomentEdit)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, momentResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, momentResponse{Message: "Invalid request body"})
	}

	ctx := c.Request().Context()
	cache := appOf(c).Cache
	albums, err := album.LoadAll(ctx, cache, key)
	if errors.Is(err, album.ErrNotFound) {
		return c.JSON(http.StatusNotFound, momentResponse{Message: "Album not found"})
	}
	if err != nil {
		logger.Error("[Moments] Failed to load albums", "album_key", key, "err", err)
		return c.JSON(http.StatusInternalServerError, momentResponse{Message: "Internal server error"})
	}

	for n := range albums {
		if albums[n].FindMoment(momentID) == nil {
			continue
		}
		moment, err := album.EditMoment(&albums[n], momentID, *data)
		if errors.Is(err, album.ErrInvalidEdit) {
			return c.JSON(http.StatusBadRequest, momentResponse{Message: err.Error()})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, momentResponse{Message: "Internal server error"})
		}
		if err := cache.Save(ctx, album.EntryKey(key, n), &albums[n]); err != nil {
			logger.Error("[Moments] Failed to save album", "album_key", key, "n", n, "err", err)
			return c.JSON(http.StatusInternalServerError, momentResponse{Message: "Internal server error"})
		}
		logger.Info("[Moments] Moment edited", "album_key", key, "moment_id", momentID)
		return c.JSON(http.StatusOK, momentResponse{Message: "Moment updated", Moment: moment})
	}

	return c.JSON(http.StatusNotFound, momentResponse{Message: "Moment not found"})
}
