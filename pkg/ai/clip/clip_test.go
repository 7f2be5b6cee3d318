package clip

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for x := range 32 {
		for y := range 16 {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y * 10), B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /embed", func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := base64.StdEncoding.DecodeString(req.ImageBase64); err != nil {
			http.Error(w, "bad base64", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(imageResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	})
	mux.HandleFunc("POST /embed/text", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req textRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out := textResponse{}
		for i := range req.Texts {
			out.Embeddings = append(out.Embeddings, []float32{float32(i)})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClipClient(t *testing.T) {
	srv := newService(t)
	c := NewClipClient(NewClipClientParams{BaseURL: srv.URL, ApiKey: "k"})

	require.NoError(t, c.Health(t.Context()))

	vec, err := c.GenerateImageEmbedding(t.Context(), pngFixture(t))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)

	vecs, err := c.GenerateTextEmbeddings(t.Context(), []string{"cafe", "park", "museum"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, float32(2), vecs[2][0])

	assert.Equal(t, 2, c.GetMetrics().Requests)
	c.ResetMetrics()
	assert.Zero(t, c.GetMetrics().Requests)
}

func TestClipClient_Errors(t *testing.T) {
	srv := newService(t)
	c := NewClipClient(NewClipClientParams{BaseURL: srv.URL})

	_, err := c.GenerateTextEmbeddings(t.Context(), []string{"cafe"})
	assert.ErrorContains(t, err, "clip status 401")

	_, err = c.GenerateImageEmbedding(t.Context(), []byte("garbage"))
	assert.Error(t, err)

	vecs, err := c.GenerateTextEmbeddings(t.Context(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vecs)
}
