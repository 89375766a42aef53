package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/amirhosseinghanipour/scaffold/internal/application/admission"
	"github.com/amirhosseinghanipour/scaffold/internal/application/generation"
	"github.com/amirhosseinghanipour/scaffold/internal/application/message"
	"github.com/amirhosseinghanipour/scaffold/internal/application/project"
	"github.com/amirhosseinghanipour/scaffold/internal/application/usage"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/agent"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/auth"
	httprouter "github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/queue"
)

// startServer runs the API in memory mode and writes a scaffoldctl config
// pointing at it. It returns the config path.
func startServer(t *testing.T, allowance int64) string {
	t.Helper()
	log := zerolog.Nop()
	key, pemBytes, err := auth.GenerateDevKey()
	require.NoError(t, err)

	store := memory.NewStore()
	ledger := memory.NewCreditLedger(domain.CreditPolicy{FreePoints: allowance, ProPoints: allowance, Window: time.Hour})
	runner := generation.NewRunCodeAgent(store, store, agent.StaticGenerator{SandboxBaseURL: "https://sandbox.test"}, nil, log)
	q, err := queue.NewLocalQueue(runner.Handle, queue.LocalOptions{Workers: 2}, log)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go q.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = q.Close(time.Second)
	})

	ctrl := admission.NewController(store, store, ledger, q, 1, log)
	srv := httptest.NewServer(httprouter.NewRouter(httprouter.RouterConfig{
		MessagesHandler: handlers.NewMessagesHandler(ctrl, message.NewListMessages(store, store), nil, log),
		ProjectsHandler: handlers.NewProjectsHandler(ctrl, project.NewListProjects(store), project.NewGetProject(store), nil, log),
		UsageHandler:    handlers.NewUsageHandler(usage.NewGetStatus(ledger), log),
		RequireJWT:      middleware.NewAuthValidator(auth.NewTokenIssuer(key, "", ""), log).Handler,
		Log:             log,
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(keyPath, pemBytes, 0o600))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveConfig(&Config{
		APIURL:          srv.URL,
		KeyPath:         keyPath,
		PollIntervalSec: 1,
		MaxAttempts:     20,
		HTTPTimeoutSec:  5,
	}, cfgPath))
	return cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestEndToEnd_NewTreeCatUsage(t *testing.T) {
	cfgPath := startServer(t, 5)

	out, err := run(t, cfgPath, "token", "--user", "user_1", "--save")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = run(t, cfgPath, "new", "a", "todo", "app")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ Project")
	assert.Contains(t, out, "Fragment: a todo app")
	assert.Contains(t, out, "Preview:  https://sandbox.test/")
	assert.Contains(t, out, "app/\n  page.tsx\n")

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.ProjectID, "new remembers the project")
	assert.NotEmpty(t, cfg.Token)

	out, err = run(t, cfgPath, "tree", "--format", "yaml")
	require.NoError(t, err)
	var items []any
	require.NoError(t, yaml.Unmarshal([]byte(out), &items))
	assert.Equal(t, []any{"README.md", []any{"app", "page.tsx"}}, items)

	out, err = run(t, cfgPath, "cat", "app/page.tsx")
	require.NoError(t, err)
	assert.Contains(t, out, "── app › page.tsx [tsx]")
	assert.Contains(t, out, "export default function Page()")

	out, err = run(t, cfgPath, "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "4 credits remaining")

	out, err = run(t, cfgPath, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "* "+cfg.ProjectID)

	out, err = run(t, cfgPath, "watch")
	require.NoError(t, err)
	assert.Contains(t, out, "Fragment: a todo app")
}

func TestSend_QuotaExceeded(t *testing.T) {
	cfgPath := startServer(t, 1)
	_, err := run(t, cfgPath, "token", "--user", "user_1", "--save")
	require.NoError(t, err)
	_, err = run(t, cfgPath, "new", "--no-watch", "first")
	require.NoError(t, err)

	_, err = run(t, cfgPath, "send", "--no-watch", "second")
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrQuotaExceeded)
	assert.Contains(t, describe(err), "scaffoldctl usage")
}

func TestSend_WithoutTokenIsUnauthorized(t *testing.T) {
	cfgPath := startServer(t, 1)
	_, err := run(t, cfgPath, "send", "--project", "00000000-0000-0000-0000-000000000000", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrUnauthorized)
}

func TestSend_RequiresProject(t *testing.T) {
	cfgPath := startServer(t, 1)
	_, err := run(t, cfgPath, "send", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project")
}

func TestConfig_SetAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	_, err := run(t, cfgPath, "config", "set", "api_url", "http://example.test")
	require.NoError(t, err)
	_, err = run(t, cfgPath, "config", "set", "token", "abcdefghijkl")
	require.NoError(t, err)
	_, err = run(t, cfgPath, "config", "set", "max_attempts", "0")
	require.Error(t, err)

	out, err := run(t, cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "api_url: http://example.test")
	assert.Contains(t, out, "token: abc****jkl")
	assert.Contains(t, out, "max_attempts: 90")
}

func TestHashSecret(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "c.yaml"), "hash-secret", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "$argon2id$v=19$")
}
