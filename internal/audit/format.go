package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReadEntries loads the last n entries from a log file (all entries
// when n <= 0). Unparseable lines are skipped rather than fatal so a
// partially corrupted log can still be inspected.
func ReadEntries(path string, n int) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan log: %w", err)
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// FormatText renders entries one per line for terminal display.
func FormatText(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("%s  %-24s %-8s %s", e.Timestamp, e.EventType, e.Severity, e.Reason))
		if len(e.DetectedTypes) > 0 {
			b.WriteString(" [" + strings.Join(e.DetectedTypes, ", ") + "]")
		}
		if e.Identity != "" {
			b.WriteString(" requester=" + e.Identity)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
