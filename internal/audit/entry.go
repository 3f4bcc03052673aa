package audit

import (
	"time"

	"github.com/ppiankov/docguard/internal/model"
)

// Entry is one line in the hash-chained JSONL security-event log.
// All fields are scalars or slices (no map[string]any) to guarantee
// deterministic json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp     string   `json:"ts"`
	EventID       string   `json:"event_id"`
	EventType     string   `json:"event_type"`
	Severity      string   `json:"severity"`
	DetectedTypes []string `json:"detected_types,omitempty"`
	Identity      string   `json:"requesting_identity"`
	Document      string   `json:"document,omitempty"`
	Reason        string   `json:"reason"`
	ConfigHash    string   `json:"config_hash,omitempty"`
	PrevHash      string   `json:"prev_hash"`
}

// FromEvent flattens a SecurityEvent into a log entry.
func FromEvent(ev model.SecurityEvent, configHash string) Entry {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return Entry{
		Timestamp:     ts.Format("2006-01-02T15:04:05.000Z"),
		EventID:       ev.EventID,
		EventType:     ev.EventType,
		Severity:      ev.Severity,
		DetectedTypes: ev.DetectedTypes,
		Identity:      ev.RequestingIdentity,
		Document:      ev.Document,
		Reason:        ev.Reason,
		ConfigHash:    configHash,
	}
}
