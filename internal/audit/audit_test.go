package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/docguard/internal/model"
)

func testEntry(reason string) Entry {
	return Entry{
		EventID:   "ev-1",
		EventType: model.EventDistributionBlocked,
		Severity:  model.SeverityCritical,
		Identity:  "svc-digest",
		Reason:    reason,
	}
}

func TestRecordAndChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := Open(path, "sha256:cfg")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for i, reason := range []string{"first", "second", "third"} {
		e := testEntry(reason)
		e.EventID = string(rune('a' + i))
		if err := log.Record(e); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var prevLine []byte
	line := 0
	for scanner.Scan() {
		line++
		raw := make([]byte, len(scanner.Bytes()))
		copy(raw, scanner.Bytes())

		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			t.Fatalf("line %d: %v", line, err)
		}
		if line == 1 {
			if e.PrevHash != GenesisHash {
				t.Errorf("first entry prev_hash = %s", e.PrevHash)
			}
		} else if e.PrevHash != HashLine(prevLine) {
			t.Errorf("line %d: chain broken", line)
		}
		if e.ConfigHash != "sha256:cfg" {
			t.Errorf("line %d: config hash not stamped", line)
		}
		prevLine = raw
	}
	if line != 3 {
		t.Errorf("expected 3 lines, got %d", line)
	}
}

func TestReopenContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	log, err := Open(path, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := log.Record(testEntry("before restart")); err != nil {
		t.Fatalf("record: %v", err)
	}
	log.Close()

	log, err = Open(path, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := log.Record(testEntry("after restart")); err != nil {
		t.Fatalf("record: %v", err)
	}
	log.Close()

	result := Verify(path)
	if !result.Valid {
		t.Errorf("chain should survive reopen: %+v", result)
	}
	if result.Lines != 2 {
		t.Errorf("expected 2 lines, got %d", result.Lines)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	log, err := Open(path, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, r := range []string{"one", "two", "three"} {
		if err := log.Record(testEntry(r)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	tampered := strings.Replace(string(data), "two", "TWO", 1)
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	result := Verify(path)
	if result.Valid {
		t.Fatal("tampered log must not verify")
	}
	if result.ErrorLine != 3 {
		t.Errorf("tampering in line 2 is detected at line 3, got %d", result.ErrorLine)
	}
}

func TestEmitFromSecurityEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := Open(path, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ev := model.NewSecurityEvent(model.EventSensitivityRejection, model.SeverityHigh,
		"svc-digest", "notes.md", "confidential context rejected")
	ev.DetectedTypes = []string{"GITHUB_TOKEN"}
	log.Emit(ev)
	log.Close()

	entries, err := ReadEntries(path, 0)
	if err != nil {
		t.Fatalf("read entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.EventType != model.EventSensitivityRejection || e.Identity != "svc-digest" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if len(e.DetectedTypes) != 1 {
		t.Errorf("detected types lost: %+v", e)
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000Z", e.Timestamp); err != nil {
		t.Errorf("timestamp format: %v", err)
	}
}

func TestReadEntriesTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, _ := Open(path, "")
	for _, r := range []string{"one", "two", "three", "four"} {
		_ = log.Record(testEntry(r))
	}
	log.Close()

	entries, err := ReadEntries(path, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 2 || entries[0].Reason != "three" || entries[1].Reason != "four" {
		t.Errorf("tail wrong: %+v", entries)
	}
}
