package alert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/docguard/internal/model"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event model.SecurityEvent) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event model.SecurityEvent) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event model.SecurityEvent) ([]byte, error) {
	fields := []any{
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Event:* %s", event.EventType)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Severity:* %s", event.Severity)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Requester:* %s", event.RequestingIdentity)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", event.Reason)},
	}
	if event.Document != "" {
		fields = append(fields, map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Document:* %s", event.Document)})
	}
	if len(event.DetectedTypes) > 0 {
		fields = append(fields, map[string]any{"type": "mrkdwn",
			"text": fmt.Sprintf("*Detected:* %s", strings.Join(event.DetectedTypes, ", "))})
	}

	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("docguard: %s", event.EventType),
				},
			},
			map[string]any{
				"type":   "section",
				"fields": fields,
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event model.SecurityEvent) ([]byte, error) {
	severity := "info"
	switch event.Severity {
	case model.SeverityCritical:
		severity = "critical"
	case model.SeverityHigh:
		severity = "error"
	case model.SeverityMedium:
		severity = "warning"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("docguard %s: %s", event.EventType, event.Reason),
			"severity": severity,
			"source":   "docguard",
			"custom_details": map[string]any{
				"event_id":            event.EventID,
				"document":            event.Document,
				"requesting_identity": event.RequestingIdentity,
				"detected_types":      event.DetectedTypes,
			},
		},
	}
	return json.Marshal(payload)
}
