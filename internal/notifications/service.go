package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hitstudio/internal/config"
)

const userAgent = "hitstudio/0.1.0"

// Event names a notification-worthy occurrence.
type Event string

const (
	EventGenerationCompleted Event = "generation_completed"
	EventGenerationFailed    Event = "generation_failed"
	EventAnalysisCompleted   Event = "analysis_completed"
	EventError               Event = "error"
	EventTest                Event = "test"
)

// Payload carries event details keyed by field name.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
		enabled: map[Event]bool{
			EventGenerationCompleted: cfg.Notifications.Generation,
			EventGenerationFailed:    cfg.Notifications.Generation,
			EventAnalysisCompleted:   cfg.Notifications.Analysis,
			EventError:               cfg.Notifications.Errors,
			EventTest:                true,
		},
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
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, data Payload) (payload, bool) {
	switch event {
	case EventGenerationCompleted:
		message := fmt.Sprintf("🎵 Track ready: %s", str(data, "trackID"))
		if prompt := str(data, "prompt"); prompt != "" {
			message = fmt.Sprintf("%s\nPrompt: %s", message, prompt)
		}
		return payload{
			title:   "hitstudio - Track Ready",
			message: message,
			tags:    []string{"hitstudio", "generation", "completed"},
		}, true
	case EventGenerationFailed:
		reason := str(data, "reason")
		if reason == "" {
			reason = "unknown"
		}
		return payload{
			title:    "hitstudio - Generation Failed",
			message:  fmt.Sprintf("❌ Generation failed: %s", reason),
			tags:     []string{"hitstudio", "generation", "failed"},
			priority: "high",
		}, true
	case EventAnalysisCompleted:
		return payload{
			title:   "hitstudio - Analysis Complete",
			message: fmt.Sprintf("📊 %s scored %s (%s)", str(data, "trackID"), str(data, "score"), str(data, "tier")),
			tags:    []string{"hitstudio", "meter", "completed"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := str(data, "context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if msg := str(data, "error"); msg != "" {
			builder.WriteString(msg)
		} else {
			builder.WriteString("unknown")
		}
		return payload{
			title:    "hitstudio - Error",
			message:  builder.String(),
			tags:     []string{"hitstudio", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "hitstudio - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"hitstudio", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func str(data Payload, key string) string {
	value, ok := data[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.1f", v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
