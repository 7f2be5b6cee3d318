package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/queue"
	mid "github.com/OFFIS-RIT/tripalbum/backend/internal/server/middleware"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai/aitest"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/geo/geotest"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/places"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store/storetest"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterKey = "master-secret"

var (
	jwtSecret      = []byte("signing-secret")
	louvre         = common.Coordinate{Lat: 48.8606, Lng: 2.3376}
	day            = time.Date(2024, 4, 12, 9, 0, 0, 0, time.UTC)
	photoEmbedding = []float32{0.2, 0.9, 0.1}
)

type capturePublisher struct {
	mu   sync.Mutex
	keys []string
	body [][]byte
}

func (p *capturePublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.body = append(p.body, msg.Body)
	return nil
}

func newTestApp(t *testing.T) *mid.App {
	t.Helper()
	cfg := album.DefaultConfig()
	cfg.TimeZone = "UTC"
	cfg.Location = time.UTC

	embedder := aitest.NewFakeClient()
	embedder.Labels["museum"] = photoEmbedding
	embedder.Labels["tourist attraction"] = photoEmbedding

	finder := places.Static{{PlaceID: "louvre", Name: "Louvre Museum", Types: []string{"museum", "tourist_attraction"}, Location: geotest.Offset(louvre, 15, 0)}}
	return &mid.App{
		Keyfunc:   func(token *jwt.Token) (any, error) { return jwtSecret, nil },
		Photos:    storetest.NewPhotos(),
		Jobs:      storetest.NewJobs(),
		Cache:     album.NewMemoryCache(),
		Assembler: album.NewAssembler(embedder, finder, cfg),

		MasterAPIKey:   masterKey,
		MasterUserID:   "1",
		MasterUserRole: "admin",
	}
}

func signToken(t *testing.T, permissions ...string) string {
	t.Helper()
	perms := make([]any, len(permissions))
	for i, p := range permissions {
		perms[i] = p
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         "user-7",
		"role":        "user",
		"permissions": perms,
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString(jwtSecret)
	require.NoError(t, err)
	return s
}

func samplePhotos() []common.PhotoRecord {
	emb := photoEmbedding
	return []common.PhotoRecord{
		{ID: "p1", Location: louvre, CreatedAt: day, Embedding: emb},
		{ID: "p2", Location: geotest.Offset(louvre, 3, 4), CreatedAt: day.Add(2 * time.Minute), Embedding: emb},
	}
}

func do(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type albumsBody struct {
	Message       string         `json:"message"`
	CorrelationID string         `json:"correlation_id"`
	AlbumKey      string         `json:"album_key"`
	Albums        []common.Album `json:"albums"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	e := New(newTestApp(t))
	rec := do(t, e, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAuth(t *testing.T) {
	e := New(newTestApp(t))

	rec := do(t, e, http.MethodGet, "/api/albums/k", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/albums/k", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/albums/k", signToken(t, "photo.upload"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/albums/k", signToken(t, "album.view"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/albums/k", masterKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertPhotos(t *testing.T) {
	app := newTestApp(t)
	e := New(app)

	rec := do(t, e, http.MethodPost, "/api/libraries/lib1/photos", masterKey, map[string]any{"photos": samplePhotos()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := app.Photos.ListPhotos(t.Context(), "lib1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	bad := samplePhotos()[:1]
	bad[0].Location.Lat = 120
	rec = do(t, e, http.MethodPost, "/api/libraries/lib1/photos", masterKey, map[string]any{"photos": bad})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/libraries/lib1/photos", masterKey, map[string]any{"photos": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodDelete, "/api/libraries/lib1/photos", masterKey, map[string]any{"ids": []string{"p1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	stored, _ = app.Photos.ListPhotos(t.Context(), "lib1")
	assert.Len(t, stored, 1)
}

func TestSearchPhotos(t *testing.T) {
	app := newTestApp(t)
	fake := app.Assembler.Embedder.(*aitest.FakeClient)
	fake.Labels["tower"] = []float32{0, 0.1, 1}
	e := New(app)

	photos := append(samplePhotos(),
		common.PhotoRecord{ID: "t1", Location: louvre, CreatedAt: day.Add(time.Hour), Embedding: []float32{0.1, 0, 1}},
		common.PhotoRecord{ID: "bare", Location: louvre, CreatedAt: day.Add(2 * time.Hour)},
	)
	_, err := app.Photos.UpsertPhotos(t.Context(), "lib1", photos)
	require.NoError(t, err)

	type searchResponse struct {
		Photos []common.PhotoRecord `json:"photos"`
	}
	resultIDs := func(rec *httptest.ResponseRecorder) []string {
		var out []string
		for _, p := range decode[searchResponse](t, rec).Photos {
			out = append(out, p.ID)
		}
		return out
	}

	rec := do(t, e, http.MethodGet, "/api/libraries/lib1/photos/search?q=tower", signToken(t, "album.view"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"t1", "p1", "p2"}, resultIDs(rec))
	assert.Contains(t, fake.LabelsSeen, "tower")

	rec = do(t, e, http.MethodGet, "/api/libraries/lib1/photos/search?q=tower&limit=1", masterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"t1"}, resultIDs(rec))

	rec = do(t, e, http.MethodGet, "/api/libraries/empty/photos/search?q=tower", masterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, resultIDs(rec))

	rec = do(t, e, http.MethodGet, "/api/libraries/lib1/photos/search?q=tower", signToken(t, "photo.upload"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/libraries/lib1/photos/search?q=%20", masterKey, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/libraries/lib1/photos/search?q=tower&limit=zero", masterKey, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown labels embed to an empty vector in the fake
	rec = do(t, e, http.MethodGet, "/api/libraries/lib1/photos/search?q=volcano", masterKey, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	app.Assembler = nil
	rec = do(t, e, http.MethodGet, "/api/libraries/lib1/photos/search?q=tower", masterKey, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAlbumLifecycle(t *testing.T) {
	app := newTestApp(t)
	e := New(app)
	_, err := app.Photos.UpsertPhotos(t.Context(), "lib1", samplePhotos())
	require.NoError(t, err)

	rec := do(t, e, http.MethodPost, "/api/libraries/lib1/albums?sync=true", masterKey, map[string]any{"album_key": "paris"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[albumsBody](t, rec)
	assert.Equal(t, "paris", created.AlbumKey)
	require.Len(t, created.Albums, 1)

	moment := created.Albums[0].Days[0].Moments[0]
	assert.Equal(t, "Louvre Museum", moment.Name)
	require.Len(t, moment.Highlights, 1)

	rec = do(t, e, http.MethodPatch, "/api/albums/paris/moments/"+moment.ID, masterKey, map[string]any{
		"name":    "Museum day",
		"caption": "Mona Lisa",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/albums/paris", masterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decode[albumsBody](t, rec)
	got := loaded.Albums[0].Days[0].Moments[0]
	assert.Equal(t, "Museum day", got.Name)
	assert.Equal(t, "Mona Lisa", got.Caption)

	rec = do(t, e, http.MethodPatch, "/api/albums/paris/moments/"+moment.ID, masterKey, map[string]any{"poi_candidate_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPatch, "/api/albums/paris/moments/missing", masterKey, map[string]any{"caption": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodDelete, "/api/albums/paris", masterKey, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodGet, "/api/albums/paris", masterKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, e, http.MethodDelete, "/api/albums/paris", masterKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAlbumsSyncEmptyLibrary(t *testing.T) {
	e := New(newTestApp(t))
	rec := do(t, e, http.MethodPost, "/api/libraries/empty/albums?sync=true", masterKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAlbumsQueued(t *testing.T) {
	app := newTestApp(t)
	pub := &capturePublisher{}
	app.Queue = pub
	e := New(app)

	rec := do(t, e, http.MethodPost, "/api/libraries/lib1/albums", masterKey, map[string]any{"strategy": "density"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	resp := decode[albumsBody](t, rec)
	assert.NotEmpty(t, resp.CorrelationID)
	assert.NotEmpty(t, resp.AlbumKey)

	require.Equal(t, []string{queue.AlbumQueue}, pub.keys)
	var msg queue.QueueAlbumMsg
	require.NoError(t, json.Unmarshal(pub.body[0], &msg))
	assert.Equal(t, "lib1", msg.LibraryID)
	assert.Equal(t, "density", msg.Strategy)
	assert.Equal(t, resp.AlbumKey, msg.AlbumKey)

	rec = do(t, e, http.MethodGet, "/api/albums/jobs/"+resp.CorrelationID, masterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	job := decode[store.Job](t, rec)
	assert.Equal(t, store.JobQueued, job.Status)

	rec = do(t, e, http.MethodPost, "/api/libraries/lib1/albums", masterKey, map[string]any{"strategy": "random"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAlbumsWithoutQueue(t *testing.T) {
	e := New(newTestApp(t))
	rec := do(t, e, http.MethodPost, "/api/libraries/lib1/albums", masterKey, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPreview(t *testing.T) {
	app := newTestApp(t)
	e := New(app)

	rec := do(t, e, http.MethodPost, "/api/albums/preview", masterKey, map[string]any{"photos": samplePhotos()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[albumsBody](t, rec)
	assert.Empty(t, resp.AlbumKey)
	require.Len(t, resp.Albums, 1)

	rec = do(t, e, http.MethodPost, "/api/albums/preview", masterKey, map[string]any{"photos": samplePhotos(), "save": true})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[albumsBody](t, rec)
	require.NotEmpty(t, resp.AlbumKey)
	_, err := album.LoadAll(t.Context(), app.Cache, resp.AlbumKey)
	assert.NoError(t, err)

	_, err = app.Photos.ListPhotos(t.Context(), "lib1")
	assert.ErrorIs(t, err, store.ErrEmptyLibrary)
}

func TestAlbumSchema(t *testing.T) {
	e := New(newTestApp(t))
	rec := do(t, e, http.MethodGet, "/api/albums/schema", masterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "album_title")
}

func TestPreviewWebSocket(t *testing.T) {
	srv := httptest.NewServer(New(newTestApp(t)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/albums/preview/ws?access_token=" + masterKey
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(map[string]any{"photos": samplePhotos()}))

	var steps []string
	for {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev struct {
			Type   string         `json:"type"`
			Step   string         `json:"step"`
			Albums []common.Album `json:"albums"`
			Error  string         `json:"error"`
		}
		require.NoError(t, ws.ReadJSON(&ev))
		if ev.Type == "progress" {
			steps = append(steps, ev.Step)
			continue
		}
		require.Equal(t, "albums", ev.Type, ev.Error)
		require.Len(t, ev.Albums, 1)
		break
	}
	assert.Contains(t, steps, album.StepTrips)
	assert.Equal(t, album.StepDone, steps[len(steps)-1])
}

func TestPreviewWebSocketRejectsBadRequest(t *testing.T) {
	srv := httptest.NewServer(New(newTestApp(t)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/albums/preview/ws?access_token=" + masterKey
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(map[string]any{"photos": []any{}}))
	var ev map[string]any
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, "error", ev["type"])
}
