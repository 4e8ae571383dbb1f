package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LesCam/barstock-sub005/internal/config"
)

const userAgent = "barsync/0.1.0"

// HTTP executes mutations as JSON requests against the backend.
type HTTP struct {
	baseURL   string
	authToken string
	client    *http.Client
	routes    map[string]Route
}

// NewHTTP builds an executor from application config using the default
// mutation routes.
func NewHTTP(cfg *config.Config) *HTTP {
	timeout := time.Duration(cfg.Backend.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTP{
		baseURL:   cfg.Backend.BaseURL,
		authToken: cfg.Backend.AuthToken,
		client:    &http.Client{Timeout: timeout},
		routes:    DefaultRoutes(),
	}
}

// Execute performs the remote call for a queued mutation. Transport
// errors and non-2xx responses are returned as *ExecError so the
// failure message can be stored on the entry.
func (h *HTTP) Execute(ctx context.Context, mutation string, payload json.RawMessage) error {
	route, ok := h.routes[mutation]
	if !ok {
		return &ExecError{Mutation: mutation, Message: fmt.Sprintf("unknown mutation %q", mutation)}
	}

	body := payload
	if len(body) == 0 {
		body = json.RawMessage(`{}`)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, h.baseURL+route.Path, bytes.NewReader(body))
	if err != nil {
		return &ExecError{Mutation: mutation, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	if h.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.authToken)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &ExecError{Mutation: mutation, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return &ExecError{
		Mutation: mutation,
		Status:   resp.StatusCode,
		Message:  readErrorMessage(resp.Body, resp.StatusCode),
	}
}

// readErrorMessage extracts a short failure message from an error
// response, preferring the backend's {"detail": ...} shape.
func readErrorMessage(body io.Reader, status int) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return fmt.Sprintf("backend returned %d", status)
	}

	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && strings.TrimSpace(detail.Detail) != "" {
		return strings.TrimSpace(detail.Detail)
	}
	return trimmed
}
