package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ppiankov/docguard/internal/model"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 2 // attempts = 1 + maxRetries
)

var httpClient = &http.Client{Timeout: requestTimeout}

// Send posts a security event to a webhook endpoint, retrying with
// backoff on network failures and 5xx responses. 4xx responses are
// permanent: the endpoint rejected the payload, retrying won't help.
func Send(cfg WebhookConfig, event model.SecurityEvent) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	b := retry.NewFibonacci(500 * time.Millisecond)
	return retry.Do(context.Background(), retry.WithMaxRetries(maxRetries, b), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode))
		default:
			return fmt.Errorf("webhook rejected: HTTP %d", resp.StatusCode)
		}
	})
}
