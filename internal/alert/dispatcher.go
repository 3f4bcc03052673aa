// Package alert delivers security events to webhook destinations so a
// distribution block or hierarchy rejection reaches a human channel,
// not only the audit log.
package alert

import (
	"sync"
	"time"

	"github.com/ppiankov/docguard/internal/model"
)

// Dispatcher fans out security events to matching webhook
// configurations. It implements model.EventSink.
type Dispatcher struct {
	configs []WebhookConfig
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty (callers should nil-check).
func NewDispatcher(configs []WebhookConfig) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	return &Dispatcher{configs: configs}
}

// Emit sends the event to all webhooks whose Events list matches the
// event's type or severity. Deliveries run in goroutines so the
// caller's gate decision is not blocked; call Flush before process
// exit to join them.
func (d *Dispatcher) Emit(event model.SecurityEvent) {
	for _, cfg := range d.configs {
		if matches(cfg.Events, event) {
			d.wg.Add(1)
			go func(cfg WebhookConfig) {
				defer d.wg.Done()
				_ = Send(cfg, event)
			}(cfg)
		}
	}
}

// Flush waits for in-flight deliveries to finish, up to timeout.
// Returns false when deliveries were still pending at the deadline.
func (d *Dispatcher) Flush(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func matches(events []string, event model.SecurityEvent) bool {
	if len(events) == 0 {
		return true
	}
	for _, e := range events {
		if e == event.EventType || e == event.Severity {
			return true
		}
	}
	return false
}
