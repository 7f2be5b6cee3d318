package routes

import (
	"context"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"

	"github.com/labstack/echo/v4"
)

const maxPhotosPerRequest = 20000

func appOf(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

// generateAlbums runs the pipeline on a per request copy of the configured
// assembler so concurrent requests never share progress state.
func generateAlbums(
	ctx context.Context,
	app *middleware.App,
	photos []common.PhotoRecord,
	strategy string,
	progress func(util.Progress),
) ([]common.Album, error) {
	cfg := app.Assembler.Config
	if strategy != "" {
		cfg.Strategy = strategy
	}
	assembler := app.Assembler.Derive(cfg)
	assembler.Progress = progress
	return assembler.Assemble(ctx, photos)
}
