package middleware

import (
	"github.com/OFFIS-RIT/tripalbum/backend/internal/queue"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// App holds the shared dependencies of every request. Queue and Jobs are
// nil when the server runs without a worker; generation is then sync only.
type App struct {
	Queue     queue.Publisher
	Keyfunc   jwt.Keyfunc
	Photos    store.PhotoStore
	Jobs      store.JobStore
	Cache     album.Cache
	Assembler *album.Assembler

	MasterAPIKey   string
	MasterUserID   string
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
