package alert

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/docguard/internal/model"
)

func testEvent() model.SecurityEvent {
	ev := model.NewSecurityEvent(model.EventSecretDetected, model.SeverityCritical,
		"svc-digest", "docs/runbook.md", "detected secret AWS_ACCESS_KEY_ID at offset 42")
	ev.DetectedTypes = []string{"AWS_ACCESS_KEY_ID"}
	return ev
}

func TestSendGenericPayload(t *testing.T) {
	var got model.SecurityEvent
	var contentType, authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := WebhookConfig{
		URL:     srv.URL,
		Format:  "generic",
		Headers: map[string]string{"Authorization": "Bearer tok"},
	}
	if err := Send(cfg, testEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", contentType)
	}
	if authHeader != "Bearer tok" {
		t.Errorf("Authorization = %q, want Bearer tok", authHeader)
	}
	if got.EventType != model.EventSecretDetected {
		t.Errorf("event_type = %q, want %q", got.EventType, model.EventSecretDetected)
	}
	if got.Severity != model.SeverityCritical {
		t.Errorf("severity = %q", got.Severity)
	}
}

func TestSendRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := Send(WebhookConfig{URL: srv.URL}, testEvent()); err != nil {
		t.Fatalf("Send after retries: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestSendNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := Send(WebhookConfig{URL: srv.URL}, testEvent())
	if err == nil {
		t.Fatal("expected error on 4xx")
	}
	if !strings.Contains(err.Error(), "webhook rejected: HTTP 400") {
		t.Errorf("error = %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", n)
	}
}

func TestFormatSlack(t *testing.T) {
	body, err := FormatPayload("slack", testEvent())
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	blocks, ok := payload["blocks"].([]any)
	if !ok || len(blocks) != 2 {
		t.Fatalf("blocks = %v", payload["blocks"])
	}
	s := string(body)
	for _, want := range []string{"docguard: secret_detected", "svc-digest", "docs/runbook.md", "AWS_ACCESS_KEY_ID"} {
		if !strings.Contains(s, want) {
			t.Errorf("slack payload missing %q", want)
		}
	}
}

func TestFormatPagerDutySeverityMapping(t *testing.T) {
	tests := []struct {
		severity string
		want     string
	}{
		{model.SeverityCritical, "critical"},
		{model.SeverityHigh, "error"},
		{model.SeverityMedium, "warning"},
		{"unknown", "info"},
	}
	for _, tt := range tests {
		ev := testEvent()
		ev.Severity = tt.severity
		body, err := FormatPayload("pagerduty", ev)
		if err != nil {
			t.Fatalf("FormatPayload: %v", err)
		}
		var payload struct {
			EventAction string `json:"event_action"`
			Payload     struct {
				Severity string `json:"severity"`
				Source   string `json:"source"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if payload.EventAction != "trigger" {
			t.Errorf("event_action = %q", payload.EventAction)
		}
		if payload.Payload.Severity != tt.want {
			t.Errorf("severity %s -> %q, want %q", tt.severity, payload.Payload.Severity, tt.want)
		}
		if payload.Payload.Source != "docguard" {
			t.Errorf("source = %q", payload.Payload.Source)
		}
	}
}

func TestDispatcherMatching(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		want   bool
	}{
		{"empty matches all", nil, true},
		{"event type match", []string{model.EventSecretDetected}, true},
		{"severity match", []string{model.SeverityCritical}, true},
		{"no match", []string{model.EventManualReview, model.SeverityMedium}, false},
	}
	ev := testEvent()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(tt.events, ev); got != tt.want {
				t.Errorf("matches(%v) = %v, want %v", tt.events, got, tt.want)
			}
		})
	}
}

func TestNewDispatcherEmpty(t *testing.T) {
	if d := NewDispatcher(nil); d != nil {
		t.Error("expected nil dispatcher for empty config")
	}
}

// Emit returns before delivery completes, so a process exiting right
// after Emit would drop the alert. Flush is the join point.
func TestDispatcherFlushWaitsForDelivery(t *testing.T) {
	release := make(chan struct{})
	var delivered atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		delivered.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]WebhookConfig{{URL: srv.URL}})
	d.Emit(testEvent())

	if n := delivered.Load(); n != 0 {
		t.Fatalf("delivered = %d before Flush, want 0", n)
	}
	if d.Flush(20 * time.Millisecond) {
		t.Error("Flush reported complete while delivery was blocked")
	}

	close(release)
	if !d.Flush(5 * time.Second) {
		t.Fatal("Flush timed out after delivery was released")
	}
	if n := delivered.Load(); n != 1 {
		t.Errorf("delivered = %d after Flush, want 1", n)
	}
}
