package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"broom/internal/config"
	"broom/internal/notifications"
)

type recordedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newRecordingServer(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]recordedRequest, len(requests))
		copy(out, requests)
		return out
	}
}

func newServiceFor(t *testing.T, endpoint string) notifications.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Watch.VendorPrefix = "com.acme."
	cfg.Notifications.NtfyTopic = endpoint
	return notifications.NewService(&cfg)
}

func TestNotifyCleanupCompletedMatched(t *testing.T) {
	server, recorded := newRecordingServer(t)
	service := newServiceFor(t, server.URL)

	outcome := notifications.CleanupOutcome{Pattern: "com.acme.", ExitCode: 0, Matched: true}
	if err := service.NotifyCleanupCompleted(context.Background(), outcome); err != nil {
		t.Fatalf("NotifyCleanupCompleted: %v", err)
	}

	requests := recorded()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	if requests[0].title != "Broom - Cleanup Complete" {
		t.Fatalf("unexpected title %q", requests[0].title)
	}
	if !strings.Contains(requests[0].body, "com.acme.") {
		t.Fatalf("expected pattern in body, got %q", requests[0].body)
	}
}

func TestNotifyCleanupCompletedFailureRaisesPriority(t *testing.T) {
	server, recorded := newRecordingServer(t)
	service := newServiceFor(t, server.URL)

	outcome := notifications.CleanupOutcome{
		Pattern:   "com.acme.",
		ExitCode:  2,
		Survivors: []string{"com.acme.crash-reporter"},
	}
	if err := service.NotifyCleanupCompleted(context.Background(), outcome); err != nil {
		t.Fatalf("NotifyCleanupCompleted: %v", err)
	}

	requests := recorded()
	if requests[0].priority != "high" {
		t.Fatalf("expected high priority for failed sweep, got %q", requests[0].priority)
	}
	if !strings.Contains(requests[0].body, "Crash Reporter") {
		t.Fatalf("expected display name in body, got %q", requests[0].body)
	}
}

func TestNotifyWatcherDegraded(t *testing.T) {
	server, recorded := newRecordingServer(t)
	service := newServiceFor(t, server.URL)

	if err := service.NotifyWatcherDegraded(context.Background(), context.DeadlineExceeded); err != nil {
		t.Fatalf("NotifyWatcherDegraded: %v", err)
	}

	requests := recorded()
	if requests[0].priority != "high" {
		t.Fatalf("expected high priority, got %q", requests[0].priority)
	}
	if !strings.Contains(requests[0].tags, "alert") {
		t.Fatalf("expected alert tag, got %q", requests[0].tags)
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "topic unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	service := newServiceFor(t, server.URL)

	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Watch.VendorPrefix = "com.acme."
	service := notifications.NewService(&cfg)

	if err := service.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop TestNotification: %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"com.acme.crash-reporter": "Crash Reporter",
		"com.acme.Writer":         "Writer",
		"updater_service":         "Updater Service",
		"":                        "Unknown",
	}
	for in, want := range cases {
		if got := notifications.DisplayName(in); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
