package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type previewBody struct {
	Photos   []common.PhotoRecord `json:"photos" validate:"required,min=1"`
	Strategy string               `json:"strategy" validate:"omitempty,oneof=sequential density"`
	Save     bool                 `json:"save"`
}

func validatePreview(c echo.Context, data *previewBody) error {
	if err := c.Validate(data); err != nil {
		return err
	}
	if len(data.Photos) > maxPhotosPerRequest {
		return errors.New("too many photos")
	}
	for _, p := range data.Photos {
		if err := store.ValidatePhoto(p); err != nil {
			return err
		}
	}
	return nil
}

// runPreview generates albums for posted photos. They are only cached when
// the caller asks for it, under a fresh key.
func runPreview(ctx context.Context, c echo.Context, data *previewBody, progress func(util.Progress)) (string, []common.Album, error) {
	app := appOf(c)
	albums, err := generateAlbums(ctx, app, data.Photos, data.Strategy, progress)
	if err != nil {
		return "", nil, err
	}
	if !data.Save {
		return "", albums, nil
	}
	key := util.NewAlbumKey()
	if err := album.SaveAll(ctx, app.Cache, key, albums); err != nil {
		return "", nil, err
	}
	return key, albums, nil
}

// PreviewAlbumsHandler generates albums from the photos in the request body
// without touching the photo catalog.
func PreviewAlbumsHandler(c echo.Context) error {
	data := new(previewBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, albumsResponse{Message: "Invalid request body"})
	}
	if err := validatePreview(c, data); err != nil {
		return c.JSON(http.StatusBadRequest, albumsResponse{Message: "Invalid request body: " + err.Error()})
	}

	key, albums, err := runPreview(c.Request().Context(), c, data, nil)
	if err != nil {
		logger.Error("[Preview] Failed to generate albums", "photos", len(data.Photos), "err", err)
		return c.JSON(http.StatusInternalServerError, albumsResponse{Message: "Failed to generate albums"})
	}
	return c.JSON(http.StatusOK, albumsResponse{Message: "Albums generated", AlbumKey: key, Albums: albums})
}

const (
	wsMaxMessageBytes = 64 << 20
	wsWriteTimeout    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 << 10,
	WriteBufferSize: 32 << 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type previewEvent struct {
	Type     string         `json:"type"`
	Step     string         `json:"step,omitempty"`
	Current  int            `json:"current,omitempty"`
	Total    int            `json:"total,omitempty"`
	Percent  int32          `json:"percent,omitempty"`
	AlbumKey string         `json:"album_key,omitempty"`
	Albums   []common.Album `json:"albums,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// PreviewAlbumsWSHandler is the streaming variant of PreviewAlbumsHandler.
// The client sends one request message and receives progress events followed
// by a single albums or error event. Closing the socket cancels generation.
func PreviewAlbumsWSHandler(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(wsMaxMessageBytes)

	send := func(ev previewEvent) error {
		_ = ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return ws.WriteJSON(ev)
	}

	data := new(previewBody)
	if err := ws.ReadJSON(data); err != nil {
		_ = send(previewEvent{Type: "error", Error: "invalid request message"})
		return nil
	}
	if err := validatePreview(c, data); err != nil {
		_ = send(previewEvent{Type: "error", Error: "invalid request: " + err.Error()})
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go func() {
		// any read after the request means the client went away or spoke out of turn
		for {
			if _, _, err := ws.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	progress := func(p util.Progress) {
		ev := previewEvent{Type: "progress", Step: p.Step, Current: p.Current, Total: p.Total, Percent: p.Percentage()}
		if err := send(ev); err != nil {
			cancel()
		}
	}

	key, albums, err := runPreview(ctx, c, data, progress)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("[Preview] Failed to generate albums", "photos", len(data.Photos), "err", err)
		}
		_ = send(previewEvent{Type: "error", Error: "failed to generate albums"})
		return nil
	}

	if err := send(previewEvent{Type: "albums", AlbumKey: key, Albums: albums}); err != nil {
		return nil
	}
	_ = ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(wsWriteTimeout),
	)
	return nil
}
