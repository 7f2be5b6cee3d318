package server

import (
	"github.com/OFFIS-RIT/tripalbum/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Library routes
	apiRoutes.POST("/libraries/:id/photos", routes.UpsertPhotosHandler, middleware.RequirePermission("photo.upload"))
	apiRoutes.DELETE("/libraries/:id/photos", routes.DeletePhotosHandler, middleware.RequirePermission("photo.delete"))
	apiRoutes.GET("/libraries/:id/photos/search", routes.SearchPhotosHandler, middleware.RequirePermission("album.view"))
	apiRoutes.POST("/libraries/:id/albums", routes.CreateAlbumsHandler, middleware.RequirePermission("album.create"))

	// Album routes
	apiRoutes.GET("/albums/schema", routes.GetAlbumSchemaHandler)
	apiRoutes.GET("/albums/jobs/:correlation_id", routes.GetJobHandler, middleware.RequirePermission("album.view"))
	apiRoutes.POST("/albums/preview", routes.PreviewAlbumsHandler, middleware.RequirePermission("album.create"))
	apiRoutes.GET("/albums/preview/ws", routes.PreviewAlbumsWSHandler, middleware.RequirePermission("album.create"))
	apiRoutes.GET("/albums/:key", routes.GetAlbumsHandler, middleware.RequirePermission("album.view"))
	apiRoutes.DELETE("/albums/:key", routes.DeleteAlbumsHandler, middleware.RequirePermission("album.delete"))

	// Moment routes
	apiRoutes.PATCH("/albums/:key/moments/:moment_id", routes.EditMomentHandler, middleware.RequirePermission("album.update"))
}
