package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

func TestHTTPGenerator_RoundTrip(t *testing.T) {
	var got ports.GenerationRequest
	var auth, idem string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		idem = r.Header.Get("Idempotency-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"summary":"done","title":"Page","files":{"app/page.tsx":"x"},"sandboxUrl":"https://s"}`))
	}))
	defer srv.Close()

	g := NewHTTPGenerator(srv.URL, WithBearerToken("tok"))
	out, err := g.Generate(context.Background(), ports.GenerationRequest{
		JobID:   "job-1",
		Prompt:  "make a page",
		History: []ports.HistoryMessage{{Role: domain.RoleUser, Content: "earlier"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", out.Summary)
	assert.Equal(t, map[string]string{"app/page.tsx": "x"}, out.Files)
	assert.Equal(t, "https://s", out.SandboxURL)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "job-1", idem)
	assert.Equal(t, "make a page", got.Prompt)
	require.Len(t, got.History, 1)
}

func TestHTTPGenerator_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sandbox exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPGenerator(srv.URL).Generate(context.Background(), ports.GenerationRequest{JobID: "j"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "sandbox exploded")
}

func TestStaticGenerator(t *testing.T) {
	out, err := StaticGenerator{SandboxBaseURL: "https://sandbox.local/"}.Generate(context.Background(), ports.GenerationRequest{
		JobID:  "abc",
		Prompt: "<b>todo app</b>",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Summary)
	assert.Equal(t, "<b>todo app</b>", out.Title)
	assert.Contains(t, out.Files["app/page.tsx"], "&lt;b&gt;todo app&lt;/b&gt;")
	assert.Equal(t, "https://sandbox.local/abc", out.SandboxURL)
}

func TestStaticGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := StaticGenerator{}.Generate(ctx, ports.GenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
