package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/scaffold/internal/application/admission"
	"github.com/amirhosseinghanipour/scaffold/internal/application/generation"
	"github.com/amirhosseinghanipour/scaffold/internal/application/message"
	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/application/project"
	"github.com/amirhosseinghanipour/scaffold/internal/application/usage"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/agent"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/auth"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/lockout"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/memory"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/security"
)

const adminSecret = "admin-s3cret"

type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []domain.GenerationJob
}

func (e *recordingEnqueuer) EnqueueCodeAgentRun(ctx context.Context, job domain.GenerationJob) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
	return nil
}

func adminVerifier(t *testing.T) *security.SharedSecret {
	t.Helper()
	s, err := security.NewSharedSecret(adminSecret)
	require.NoError(t, err)
	return s
}

type faultyLedger struct{ ports.CreditLedger }

func (faultyLedger) Consume(ctx context.Context, userID domain.UserID, plan domain.Plan, cost int64) (domain.CreditBalance, error) {
	return domain.CreditBalance{}, errors.New("ledger unavailable")
}

type testServer struct {
	handler  http.Handler
	store    *memory.Store
	enqueuer *recordingEnqueuer
	issuer   *auth.TokenIssuer
}

func newTestServer(t *testing.T, allowance int64, ledger ports.CreditLedger) *testServer {
	t.Helper()
	key, _, err := auth.GenerateDevKey()
	require.NoError(t, err)
	issuer := auth.NewTokenIssuer(key, "scaffold-test", "")

	store := memory.NewStore()
	if ledger == nil {
		ledger = memory.NewCreditLedger(domain.CreditPolicy{FreePoints: allowance, ProPoints: allowance * 10, Window: time.Hour})
	}
	enq := &recordingEnqueuer{}
	log := zerolog.Nop()
	ctrl := admission.NewController(store, store, ledger, enq, 1, log)

	handler := NewRouter(RouterConfig{
		MessagesHandler: handlers.NewMessagesHandler(ctrl, message.NewListMessages(store, store), nil, log),
		ProjectsHandler: handlers.NewProjectsHandler(ctrl, project.NewListProjects(store), project.NewGetProject(store), nil, log),
		UsageHandler:    handlers.NewUsageHandler(usage.NewGetStatus(ledger), log),
		AdminHandler:    handlers.NewAdminHandler(usage.NewGrantCredits(ledger), log),
		RequireJWT:      middleware.NewAuthValidator(issuer, log).Handler,
		RequireAdmin:    middleware.RequireAdminSecret(adminVerifier(t), lockout.NewMemoryStore(3, time.Minute)),
		Log:             log,
	})
	return &testServer{handler: handler, store: store, enqueuer: enq, issuer: issuer}
}

func (s *testServer) token(t *testing.T, userID, plan string) string {
	t.Helper()
	tok, err := s.issuer.IssueAccessToken(userID, plan, 300)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedProject(owner domain.UserID) *domain.Project {
	p := domain.NewProject(owner, time.Now().Add(-time.Minute))
	s.store.AddProject(p)
	return p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestCreateMessage_LastCreditThenQuota(t *testing.T) {
	s := newTestServer(t, 1, nil)
	p := s.seedProject("user_1")
	tok := s.token(t, "user_1", "free")
	path := "/projects/" + p.ID.String() + "/messages"

	rec := s.do(t, http.MethodPost, path, tok, map[string]string{"value": "build a landing page"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	msg := decode[handlers.MessageResponse](t, rec)
	assert.Equal(t, "USER", msg.Role)
	assert.Equal(t, "RESULT", msg.Type)
	assert.Equal(t, "build a landing page", msg.Content)
	require.Len(t, s.enqueuer.jobs, 1)
	assert.Equal(t, msg.ID, s.enqueuer.jobs[0].JobID.String())
	assert.Equal(t, APIVersion, rec.Header().Get("X-API-Version"))

	rec = s.do(t, http.MethodPost, path, tok, map[string]string{"value": "and a pricing page"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	e := decode[errBody](t, rec)
	assert.Equal(t, handlers.ErrCodeQuotaExceeded, e.Code)
	assert.Equal(t, "you have run out of credits", e.Error)
	assert.Len(t, s.enqueuer.jobs, 1)

	rec = s.do(t, http.MethodGet, path, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Messages []handlers.MessageResponse `json:"messages"`
	}](t, rec)
	assert.Len(t, list.Messages, 1)
}

func TestCreateMessage_Errors(t *testing.T) {
	s := newTestServer(t, 5, nil)
	p := s.seedProject("user_1")
	tok := s.token(t, "user_1", "free")
	path := "/projects/" + p.ID.String() + "/messages"

	rec := s.do(t, http.MethodPost, path, "", map[string]string{"value": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handlers.ErrCodeUnauthorized, decode[errBody](t, rec).Code)

	rec = s.do(t, http.MethodPost, path, "garbage", map[string]string{"value": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, path, s.token(t, "user_2", "free"), map[string]string{"value": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handlers.ErrCodeNotFound, decode[errBody](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/projects/not-a-uuid/messages", tok, map[string]string{"value": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, path, tok, map[string]string{"value": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handlers.ErrCodeInvalidRequest, decode[errBody](t, rec).Code)

	rec = s.do(t, http.MethodPost, path, tok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, s.enqueuer.jobs)
}

func TestCreateMessage_LedgerFault(t *testing.T) {
	s := newTestServer(t, 5, faultyLedger{memory.NewCreditLedger(domain.DefaultCreditPolicy())})
	p := s.seedProject("user_1")

	rec := s.do(t, http.MethodPost, "/projects/"+p.ID.String()+"/messages", s.token(t, "user_1", "free"), map[string]string{"value": "hi"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	e := decode[errBody](t, rec)
	assert.Equal(t, handlers.ErrCodeAdmissionFailed, e.Code)
	assert.Equal(t, "something went wrong", e.Error)
	assert.NotContains(t, rec.Body.String(), "ledger unavailable")
}

func TestListMessages_WithFragmentAfterWorker(t *testing.T) {
	s := newTestServer(t, 5, nil)
	p := s.seedProject("user_1")
	tok := s.token(t, "user_1", "free")
	path := "/projects/" + p.ID.String() + "/messages"

	rec := s.do(t, http.MethodPost, path, tok, map[string]string{"value": "todo app"})
	require.Equal(t, http.StatusCreated, rec.Code)

	worker := generation.NewRunCodeAgent(s.store, s.store, agent.StaticGenerator{}, nil, zerolog.Nop())
	require.NoError(t, worker.Execute(context.Background(), s.enqueuer.jobs[0]))

	rec = s.do(t, http.MethodGet, path, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Messages []handlers.MessageResponse `json:"messages"`
	}](t, rec)
	require.Len(t, list.Messages, 2)
	assert.Equal(t, "USER", list.Messages[0].Role)
	assert.Nil(t, list.Messages[0].Fragment)
	reply := list.Messages[1]
	assert.Equal(t, "ASSISTANT", reply.Role)
	assert.Equal(t, list.Messages[0].ID, reply.SourceMessageID)
	require.NotNil(t, reply.Fragment)
	assert.Contains(t, reply.Fragment.Files, "app/page.tsx")

	rec = s.do(t, http.MethodGet, path, s.token(t, "user_2", "free"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjects_CreateListGet(t *testing.T) {
	s := newTestServer(t, 5, nil)
	tok := s.token(t, "user_1", "free")

	rec := s.do(t, http.MethodPost, "/projects", tok, map[string]string{"value": "a blog"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		Project handlers.ProjectResponse `json:"project"`
		Message handlers.MessageResponse `json:"message"`
	}](t, rec)
	assert.NotEmpty(t, created.Project.Name)
	assert.Equal(t, created.Project.ID, created.Message.ProjectID)
	require.Len(t, s.enqueuer.jobs, 1)

	rec = s.do(t, http.MethodGet, "/projects", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Projects []handlers.ProjectResponse `json:"projects"`
	}](t, rec)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, created.Project.ID, list.Projects[0].ID)

	rec = s.do(t, http.MethodGet, "/projects/"+created.Project.ID, tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/projects/"+created.Project.ID, s.token(t, "user_2", "free"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsageAndAdminGrant(t *testing.T) {
	s := newTestServer(t, 2, nil)
	p := s.seedProject("user_1")
	tok := s.token(t, "user_1", "free")

	rec := s.do(t, http.MethodPost, "/projects/"+p.ID.String()+"/messages", tok, map[string]string{"value": "x"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/usage", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[handlers.UsageResponse](t, rec).Remaining)

	grant := func(secret string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, "/admin/users/user_1/credits", &buf)
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set(middleware.AdminSecretHeader, secret)
		}
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, grant("", map[string]int{"amount": 3}).Code)
	assert.Equal(t, http.StatusUnauthorized, grant("wrong", map[string]int{"amount": 3}).Code)
	assert.Equal(t, http.StatusBadRequest, grant(adminSecret, map[string]int{"amount": 0}).Code)

	rec = grant(adminSecret, map[string]int{"amount": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(4), decode[handlers.UsageResponse](t, rec).Remaining)
}

func TestAdmin_LockoutAfterRepeatedFailures(t *testing.T) {
	s := newTestServer(t, 1, nil)
	grant := func(secret string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/users/user_1/credits", bytes.NewBufferString(`{"amount":1}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.AdminSecretHeader, secret)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, grant("wrong").Code)
	}
	rec := grant(adminSecret)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t, 1, nil)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/templates", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tpl := decode[struct {
		Templates []project.Template `json:"templates"`
	}](t, rec)
	assert.NotEmpty(t, tpl.Templates)

	rec = s.do(t, http.MethodGet, "/usage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
