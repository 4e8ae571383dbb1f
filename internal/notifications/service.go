package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LesCam/barstock-sub005/internal/config"
)

const userAgent = "barsync/0.1.0"

// Service defines the warning surface exposed to the queue and sync
// engine. Every method is best-effort; failures are the caller's to
// log, never to act on.
type Service interface {
	NotifySaveFailure(ctx context.Context, saveErr error) error
	NotifyMutationFailed(ctx context.Context, mutation, message string, attempts int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when
// configured. When no ntfy topic is configured, a noop implementation
// is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySaveFailure(ctx context.Context, saveErr error) error {
	data := payload{
		title:    "Barsync - Storage Warning",
		message:  fmt.Sprintf("Queue snapshot could not be saved: %v\nQueued counts are held in memory only until the next successful save.", saveErr),
		tags:     []string{"barsync", "storage", "warning"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMutationFailed(ctx context.Context, mutation, message string, attempts int) error {
	mutation = strings.TrimSpace(mutation)
	data := payload{
		title:   "Barsync - Sync Failure",
		message: fmt.Sprintf("%s failed after %d attempt(s): %s", mutation, attempts, message),
		tags:    []string{"barsync", "sync", "failed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Barsync - Test",
		message:  "Notification system test",
		tags:     []string{"barsync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySaveFailure(context.Context, error) error { return nil }

func (noopService) NotifyMutationFailed(context.Context, string, string, int) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
