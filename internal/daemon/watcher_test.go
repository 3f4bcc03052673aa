package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestInboxWatcherDetectsNewFile(t *testing.T) {
	inbox := t.TempDir()

	var mu sync.Mutex
	var received []string

	w := NewInboxWatcher(inbox, func(path string) {
		mu.Lock()
		received = append(received, path)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Run(ctx) }()

	// Give watcher time to start.
	time.Sleep(100 * time.Millisecond)

	// Write a document atomically.
	docPath := filepath.Join(inbox, "notes-001.md")
	tmpPath := docPath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte("release notes"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmpPath, docPath); err != nil {
		t.Fatal(err)
	}

	// Wait for debounce + processing.
	time.Sleep(500 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 file, got %d", len(received))
	}
	if received[0] != docPath {
		t.Errorf("got path %q, want %q", received[0], docPath)
	}
}

func TestInboxWatcherIgnoresTmpAndUnknownFiles(t *testing.T) {
	inbox := t.TempDir()

	var mu sync.Mutex
	var received []string

	w := NewInboxWatcher(inbox, func(path string) {
		mu.Lock()
		received = append(received, path)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	for _, name := range []string{"doc.md.tmp", "data.json", "image.png"} {
		if err := os.WriteFile(filepath.Join(inbox, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(500 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 0 {
		t.Errorf("expected 0 files, got %d: %v", len(received), received)
	}
}

func TestInboxWatcherContextCancellation(t *testing.T) {
	inbox := t.TempDir()
	w := NewInboxWatcher(inbox, func(string) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestPollWatcherDetectsFiles(t *testing.T) {
	inbox := t.TempDir()

	var mu sync.Mutex
	var received []string

	w := NewPollWatcher(inbox, func(path string) {
		mu.Lock()
		received = append(received, path)
		mu.Unlock()
	}, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	docPath := filepath.Join(inbox, "notes.txt")
	if err := os.WriteFile(docPath, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0] != docPath {
		t.Errorf("received = %v", received)
	}
}

func TestScanExisting(t *testing.T) {
	inbox := t.TempDir()
	if err := os.WriteFile(filepath.Join(inbox, "a.md"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "b.json"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	var received []string
	if err := ScanExisting(inbox, func(path string) {
		received = append(received, filepath.Base(path))
	}); err != nil {
		t.Fatal(err)
	}
	if len(received) != 1 || received[0] != "a.md" {
		t.Errorf("received = %v", received)
	}
}

func TestIsDocumentFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"notes.md", true},
		{"notes.markdown", true},
		{"notes.txt", true},
		{"NOTES.MD", true},
		{"notes.md.tmp", false},
		{"notes.json", false},
		{"notes", false},
	}
	for _, tt := range tests {
		if got := isDocumentFile(tt.path); got != tt.want {
			t.Errorf("isDocumentFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
