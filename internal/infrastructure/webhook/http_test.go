package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

func TestHTTPEmitter_SignsBody(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
		gotTS   string
		gotKey  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotTS = r.Header.Get(TimestampHeader)
		gotKey = r.Header.Get("X-Api-Key")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e := NewHTTPEmitter(srv.URL, WithSigningSecret("s3cret"), WithHeader("X-Api-Key", "k"))
	e.now = func() time.Time { return time.Unix(1700000000, 0) }

	ev := ports.AuditEvent{Event: "generation.completed", ProjectID: "p1", MessageID: "m1", Success: true}
	require.NoError(t, e.Emit(context.Background(), ev))

	var decoded ports.AuditEvent
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, ev, decoded)
	assert.Equal(t, "1700000000", gotTS)
	assert.Equal(t, Sign([]byte("s3cret"), "1700000000", gotBody), gotSig)
	assert.Equal(t, "k", gotKey)
}

func TestHTTPEmitter_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPEmitter(srv.URL).Emit(context.Background(), ports.AuditEvent{Event: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
