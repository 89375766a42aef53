// Package api is a typed client for the scaffold HTTP API. Error responses
// unwrap to the server's sentinel errors, so callers classify them with
// errors.Is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
)

// ErrRateLimited is returned for 429 responses that are not quota rejections.
var ErrRateLimited = errors.New("rate limited")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("api error: status=%d code=%s request_id=%s message=%s", e.StatusCode, e.Code, e.RequestID, msg)
	}
	return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, msg)
}

// Unwrap maps the response to a sentinel. The code field wins over the status.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "quota_exceeded":
		return domerrors.ErrQuotaExceeded
	case "unauthorized":
		return domerrors.ErrUnauthorized
	case "not_found":
		return domerrors.ErrProjectNotFound
	case "invalid_request":
		return domerrors.ErrInvalidPrompt
	case "admission_failed":
		return domerrors.ErrAdmissionFailed
	case "rate_limited":
		return ErrRateLimited
	}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return domerrors.ErrUnauthorized
	case http.StatusNotFound:
		return domerrors.ErrProjectNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	token       string
	adminSecret string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithToken sets the bearer identity token.
func WithToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}

// WithAdminSecret sets X-Scaffold-Admin-Secret for the admin endpoints.
func WithAdminSecret(secret string) Option {
	return func(cl *Client) { cl.adminSecret = secret }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type promptRequest struct {
	Value string `json:"value"`
}

// CreateProject starts a project from its first prompt.
func (c *Client) CreateProject(ctx context.Context, value string) (*Project, *Message, error) {
	var out struct {
		Project Project `json:"project"`
		Message Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/projects", promptRequest{Value: value}, &out); err != nil {
		return nil, nil, err
	}
	return &out.Project, &out.Message, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var out Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMessage submits a prompt against an existing project.
func (c *Client) CreateMessage(ctx context.Context, projectID, value string) (*Message, error) {
	var out Message
	if err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/messages", promptRequest{Value: value}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages returns the project's messages oldest first.
func (c *Client) ListMessages(ctx context.Context, projectID string) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	var out Usage
	if err := c.do(ctx, http.MethodGet, "/usage", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Templates(ctx context.Context) ([]Template, error) {
	var out struct {
		Templates []Template `json:"templates"`
	}
	if err := c.do(ctx, http.MethodGet, "/templates", nil, &out); err != nil {
		return nil, err
	}
	return out.Templates, nil
}

// GrantCredits adds amount to userID's balance. Needs WithAdminSecret.
func (c *Client) GrantCredits(ctx context.Context, userID string, amount int64, plan string) (*Usage, error) {
	body := struct {
		Amount int64  `json:"amount"`
		Plan   string `json:"plan,omitempty"`
	}{amount, plan}
	var out Usage
	if err := c.do(ctx, http.MethodPost, "/admin/users/"+url.PathEscape(userID)+"/credits", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.adminSecret != "" {
		req.Header.Set("X-Scaffold-Admin-Secret", c.adminSecret)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get("X-Request-Id")}
		var env struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Code, apiErr.Message = env.Code, env.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
