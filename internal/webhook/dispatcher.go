// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook posts event notifications to registered endpoints so
// external systems (CRM, notification bots) learn about new enquiries
// without polling.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/traveldesk-go/internal/store"
)

const (
	maxAttempts    = 3
	initialBackoff = 5 * time.Second
	requestTimeout = 15 * time.Second
	maxResponseLen = 4 * 1024
	userAgent      = "TravelDesk/1.0"
	queueSize      = 100
)

// Event is the envelope posted to webhook endpoints.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// queuedDelivery is one pending HTTP POST to one endpoint.
type queuedDelivery struct {
	eventID  string
	event    string
	payload  []byte
	url      string
	secret   string
	attempts int
}

// Dispatcher fans events out to all subscribed endpoints using a small
// worker pool. Failed deliveries are retried with exponential backoff
// up to maxAttempts.
type Dispatcher struct {
	queries *store.Queries
	logger  *slog.Logger
	client  *http.Client
	queue   chan *queuedDelivery
	workers int
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// Config holds dispatcher configuration.
type Config struct {
	Workers int
}

// NewDispatcher creates a webhook dispatcher backed by db.
func NewDispatcher(db *sql.DB, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries: store.New(db),
		logger:  logger,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		queue:   make(chan *queuedDelivery, queueSize),
		workers: cfg.Workers,
		done:    make(chan struct{}),
	}
}

// Start launches the delivery workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting webhook dispatcher", "workers", d.workers)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop signals the workers and waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	d.logger.Info("webhook dispatcher stopped")
}

// Dispatch queues the event for every active endpoint subscribed to it.
// It never blocks the caller: when the queue is full the delivery is
// dropped with a warning.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, data any) {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		return
	}

	hooks, err := d.queries.ListActiveWebhooks(ctx)
	if err != nil {
		d.logger.Error("failed to list webhooks", "error", err, "event", event)
		return
	}
	if len(hooks) == 0 {
		return
	}

	envelope := Event{
		ID:        uuid.NewString(),
		Type:      event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		d.logger.Error("failed to marshal webhook payload", "error", err, "event", event)
		return
	}

	for _, hook := range hooks {
		if !subscribed(hook.Events, event) {
			continue
		}
		qd := &queuedDelivery{
			eventID: envelope.ID,
			event:   event,
			payload: payload,
			url:     hook.Url,
			secret:  hook.Secret,
		}
		select {
		case d.queue <- qd:
		default:
			d.logger.Warn("webhook queue full, dropping delivery",
				"webhook_id", hook.ID, "event", event)
		}
	}
}

// subscribed reports whether the JSON event list contains event. An
// empty list subscribes to everything.
func subscribed(eventsJSON, event string) bool {
	if eventsJSON == "" || eventsJSON == "[]" {
		return true
	}
	var events []string
	if err := json.Unmarshal([]byte(eventsJSON), &events); err != nil {
		return false
	}
	for _, e := range events {
		if e == event || strings.HasSuffix(e, ".*") && strings.HasPrefix(event, strings.TrimSuffix(e, "*")) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case delivery := <-d.queue:
			d.deliver(ctx, delivery)
		}
	}
}

// deliver posts the payload, requeueing on retryable failures with
// exponential backoff.
func (d *Dispatcher) deliver(ctx context.Context, delivery *queuedDelivery) {
	delivery.attempts++

	status, retryable, err := d.post(ctx, delivery)
	if err == nil {
		d.logger.Info("webhook delivered",
			"event_id", delivery.eventID,
			"event", delivery.event,
			"status_code", status)
		return
	}

	if !retryable || delivery.attempts >= maxAttempts {
		d.logger.Warn("webhook delivery abandoned",
			"event_id", delivery.eventID,
			"event", delivery.event,
			"attempts", delivery.attempts,
			"error", err)
		return
	}

	backoff := initialBackoff << (delivery.attempts - 1)
	d.logger.Info("webhook delivery failed, retrying",
		"event_id", delivery.eventID,
		"attempt", delivery.attempts,
		"backoff", backoff.String(),
		"error", err)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case <-time.After(backoff):
			select {
			case d.queue <- delivery:
			default:
				d.logger.Warn("webhook queue full, dropping retry", "event_id", delivery.eventID)
			}
		case <-d.done:
		case <-ctx.Done():
		}
	}()
}

// post performs a single HTTP POST attempt. The bool result reports
// whether a failure is worth retrying.
func (d *Dispatcher) post(ctx context.Context, delivery *queuedDelivery) (int, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.url, bytes.NewReader(delivery.payload))
	if err != nil {
		return 0, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Signature", Sign(delivery.payload, delivery.secret))
	req.Header.Set("X-Webhook-Event", delivery.event)
	req.Header.Set("X-Webhook-ID", delivery.eventID)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseLen))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.StatusCode, false, nil
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests:
		return resp.StatusCode, true, fmt.Errorf("HTTP %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return resp.StatusCode, true, fmt.Errorf("HTTP %d", resp.StatusCode)
	default:
		return resp.StatusCode, false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

// Sign computes the hex HMAC-SHA256 signature receivers use to verify
// payload authenticity.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature in constant time.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := Sign(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
