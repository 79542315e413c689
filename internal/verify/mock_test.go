package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/qwex/breedcheck/pkg/ollama"
)

// --- Ollama Mock ---

type mockOllamaClient struct {
	mock.Mock
}

func (m *mockOllamaClient) Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ollama.GenerateResponse), args.Error(1)
}

func (m *mockOllamaClient) URL() string {
	return "http://mock/api/generate"
}

// fenced wraps a verdict object the way models usually answer.
func fenced(body string) string {
	return "Here is my analysis:\n```json\n" + body + "\n```\nHope this helps."
}

// fakeOllama serves /api/generate, answering by breed name found in the
// prompt. Unknown names get a 500.
type fakeOllama struct {
	mu      sync.Mutex
	answers map[string]string
	prompts []string
}

func newFakeOllama(t *testing.T, answers map[string]string) (*fakeOllama, *httptest.Server) {
	t.Helper()
	f := &fakeOllama{answers: answers}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollama.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		f.mu.Unlock()

		for name, answer := range f.answers {
			if strings.Contains(req.Prompt, `"name": "`+name+`"`) {
				_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "response": answer, "done": true})
				return
			}
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model crashed"}`))
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input_breeds.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
