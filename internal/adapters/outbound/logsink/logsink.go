// Package logsink provides alert sink implementations: structured log output,
// webhook delivery, and a fan-out combining several sinks.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/skillcoder/dockguard/internal/logic/alert"
)

const (
	webhookTimeout     = 10 * time.Second
	maxErrorBodyLength = 512
)

// Log delivers alerts to the structured logger. It never fails, which makes
// it the safe default sink when no webhook is configured.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a sink writing alerts at warn level.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (s *Log) Deliver(ctx context.Context, title, body string, category alert.Category) error {
	s.logger.WarnContext(ctx, "alert",
		"title", title,
		"body", body,
		"category", string(category),
	)

	return nil
}

// Webhook posts alerts as JSON to a configured URL.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook sink for the given URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
	}
}

type webhookPayload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Category string `json:"category"`
	SentAt   string `json:"sentAt"`
}

func (s *Webhook) Deliver(ctx context.Context, title, body string, category alert.Category) error {
	payload, err := json.Marshal(webhookPayload{
		Title:    title,
		Body:     body,
		Category: string(category),
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyLength))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Multi fans an alert out to every sink and joins their failures. One failing
// sink does not block the others.
type Multi struct {
	sinks []alert.Sink
}

// NewMulti combines sinks into one.
func NewMulti(sinks ...alert.Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (s *Multi) Deliver(ctx context.Context, title, body string, category alert.Category) error {
	var errs []error

	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, title, body, category); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
