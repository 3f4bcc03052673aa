package model

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the pipeline's security gates.
const (
	EventSensitivityRejection = "sensitivity_rejection"
	EventSecretDetected       = "secret_detected"
	EventDistributionBlocked  = "distribution_blocked"
	EventManualReview         = "manual_review_required"
)

// Event severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

// SecurityEvent is the structured audit record for any observable
// security decision: a hierarchy rejection, a detected secret, or a
// distribution block.
type SecurityEvent struct {
	EventID            string    `json:"event_id"`
	EventType          string    `json:"event_type"`
	Severity           string    `json:"severity"`
	DetectedTypes      []string  `json:"detected_types,omitempty"`
	RequestingIdentity string    `json:"requesting_identity"`
	Document           string    `json:"document,omitempty"`
	Reason             string    `json:"reason"`
	Timestamp          time.Time `json:"timestamp"`
}

// NewSecurityEvent builds an event with a fresh ID and UTC timestamp.
func NewSecurityEvent(eventType, severity, identity, document, reason string) SecurityEvent {
	return SecurityEvent{
		EventID:            uuid.NewString(),
		EventType:          eventType,
		Severity:           severity,
		RequestingIdentity: identity,
		Document:           document,
		Reason:             reason,
		Timestamp:          time.Now().UTC(),
	}
}

// EventSink receives security events synchronously. Implementations:
// the hash-chained audit log, the webhook alert dispatcher, and the
// fan-out sink that combines them.
type EventSink interface {
	Emit(event SecurityEvent)
}

// MultiSink fans one event out to several sinks. A nil or empty
// MultiSink is a valid no-op sink.
type MultiSink []EventSink

func (m MultiSink) Emit(event SecurityEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(event)
		}
	}
}
