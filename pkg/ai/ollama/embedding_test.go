package ollama

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
)

func TestGenerateTextEmbeddings(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			embeddings[i] = []float32{float32(i), 1}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             req.Model,
			"embeddings":        embeddings,
			"prompt_eval_count": 4,
			"total_duration":    int64(2_000_000),
		})
	}))
	defer srv.Close()

	client, err := NewOllamaEmbeddingClient(NewOllamaEmbeddingClientParams{
		EmbeddingModel: "nomic-embed-text",
		BaseURL:        srv.URL,
		ApiKey:         "secret",
		Dimensions:     3,
	})
	if err != nil {
		t.Fatalf("NewOllamaEmbeddingClient: %v", err)
	}

	vecs, err := client.GenerateTextEmbeddings(t.Context(), []string{"museum", "beach"})
	if err != nil {
		t.Fatalf("GenerateTextEmbeddings: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 1 || len(vecs[1]) != 3 {
		t.Fatalf("unexpected vectors %v", vecs)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("missing auth header, got %q", gotAuth)
	}
	if m := client.GetMetrics(); m.Requests != 1 || m.InputTokens != 4 || m.DurationMs != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestGenerateImageEmbeddingUnsupported(t *testing.T) {
	client, err := NewOllamaEmbeddingClient(NewOllamaEmbeddingClientParams{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.GenerateImageEmbedding(t.Context(), nil); !errors.Is(err, ai.ErrImageEmbeddingUnsupported) {
		t.Fatalf("expected ErrImageEmbeddingUnsupported, got %v", err)
	}
}
