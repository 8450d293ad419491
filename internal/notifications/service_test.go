package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"hitstudio/internal/config"
	"hitstudio/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventGenerationCompleted, notifications.Payload{"trackID": "t1"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "generation completed",
			event:         notifications.EventGenerationCompleted,
			payload:       notifications.Payload{"trackID": "t1", "prompt": "lofi rain"},
			expectTitle:   "hitstudio - Track Ready",
			expectMessage: "🎵 Track ready: t1\nPrompt: lofi rain",
			expectTags:    "hitstudio,generation,completed",
		},
		{
			name:           "generation failed",
			event:          notifications.EventGenerationFailed,
			payload:        notifications.Payload{"reason": "Generation quota exceeded. Please upgrade your plan."},
			expectTitle:    "hitstudio - Generation Failed",
			expectMessage:  "❌ Generation failed: Generation quota exceeded. Please upgrade your plan.",
			expectTags:     "hitstudio,generation,failed",
			expectPriority: "high",
		},
		{
			name:          "analysis completed",
			event:         notifications.EventAnalysisCompleted,
			payload:       notifications.Payload{"trackID": "t1", "score": 72.0, "tier": "Hit Potential"},
			expectTitle:   "hitstudio - Analysis Complete",
			expectMessage: "📊 t1 scored 72.0 (Hit Potential)",
			expectTags:    "hitstudio,meter,completed",
		},
		{
			name:           "error",
			event:          notifications.EventError,
			payload:        notifications.Payload{"context": "dashboard", "error": "backend unreachable"},
			expectTitle:    "hitstudio - Error",
			expectMessage:  "❌ Error with dashboard: backend unreachable",
			expectTags:     "hitstudio,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			type request struct {
				title, tags, priority, body string
			}
			captured := make(chan request, 1)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				body, _ := io.ReadAll(r.Body)
				captured <- request{
					title:    r.Header.Get("Title"),
					tags:     r.Header.Get("Tags"),
					priority: r.Header.Get("Priority"),
					body:     string(body),
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			got := <-captured
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for disabled event")
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Generation = false
	cfg.Notifications.Analysis = false

	svc := notifications.NewService(&cfg)
	for _, event := range []notifications.Event{
		notifications.EventGenerationCompleted,
		notifications.EventGenerationFailed,
		notifications.EventAnalysisCompleted,
		notifications.Event("unknown"),
	} {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"trackID": "ignored"}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic is read-only", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
