package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"broom/internal/config"
)

const userAgent = "Broom-Go/0.1.0"

// CleanupOutcome summarizes one finished cleanup pass for notification purposes.
type CleanupOutcome struct {
	Pattern   string
	ExitCode  int
	Matched   bool
	Survivors []string
}

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyCleanupCompleted(ctx context.Context, outcome CleanupOutcome) error
	NotifyWatcherDegraded(ctx context.Context, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
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

func (n *ntfyService) NotifyCleanupCompleted(ctx context.Context, outcome CleanupOutcome) error {
	var builder strings.Builder
	switch {
	case outcome.Matched:
		builder.WriteString(fmt.Sprintf("🧹 Swept lingering processes matching %s", outcome.Pattern))
	case outcome.ExitCode == 1:
		builder.WriteString("🧹 Nothing to sweep; background processes already gone")
	default:
		builder.WriteString(fmt.Sprintf("🧹 Sweep finished with exit %d", outcome.ExitCode))
	}
	if len(outcome.Survivors) > 0 {
		names := make([]string, 0, len(outcome.Survivors))
		for _, id := range outcome.Survivors {
			names = append(names, DisplayName(id))
		}
		builder.WriteString("\nStill running: ")
		builder.WriteString(strings.Join(names, ", "))
	}

	data := payload{
		title:   "Broom - Cleanup Complete",
		message: builder.String(),
		tags:    []string{"broom", "cleanup", "completed"},
	}
	if outcome.ExitCode > 1 {
		data.title = "Broom - Cleanup Complete (with errors)"
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyWatcherDegraded(ctx context.Context, cause error) error {
	message := "⚠️ Application watcher degraded"
	if cause != nil {
		message = fmt.Sprintf("%s: %s", message, strings.TrimSpace(cause.Error()))
	}
	data := payload{
		title:    "Broom - Watcher Degraded",
		message:  message,
		tags:     []string{"broom", "watcher", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Broom - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"broom", "test"},
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

func (noopService) NotifyCleanupCompleted(context.Context, CleanupOutcome) error { return nil }
func (noopService) NotifyWatcherDegraded(context.Context, error) error           { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
