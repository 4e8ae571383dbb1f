package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LesCam/barstock-sub005/internal/config"
	"github.com/LesCam/barstock-sub005/internal/notifications"
)

func TestUnconfiguredTopicYieldsNoop(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)

	if err := svc.NotifySaveFailure(context.Background(), errors.New("disk full")); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestSaveFailureNotificationPostsToTopic(t *testing.T) {
	var gotTitle, gotPriority, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifySaveFailure(context.Background(), errors.New("disk full")); err != nil {
		t.Fatalf("NotifySaveFailure failed: %v", err)
	}
	if gotTitle != "Barsync - Storage Warning" {
		t.Fatalf("title = %q", gotTitle)
	}
	if gotPriority != "high" {
		t.Fatalf("priority = %q", gotPriority)
	}
	if !strings.Contains(gotBody, "disk full") {
		t.Fatalf("body missing cause: %q", gotBody)
	}
}

func TestMutationFailedNotificationIncludesAttempts(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyMutationFailed(context.Background(), "session.close", "conflict", 2); err != nil {
		t.Fatalf("NotifyMutationFailed failed: %v", err)
	}
	if !strings.Contains(gotBody, "session.close") || !strings.Contains(gotBody, "2 attempt") || !strings.Contains(gotBody, "conflict") {
		t.Fatalf("body incomplete: %q", gotBody)
	}
}

func TestServerErrorSurfacesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx ntfy response")
	}
}
