// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olegiv/traveldesk-go/internal/store"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		secret  string
	}{
		{"empty payload", []byte{}, "secret"},
		{"simple payload", []byte(`{"event":"enquiry.submitted"}`), "mysecret"},
		{"empty secret", []byte("test"), ""},
		{"unicode payload", []byte(`{"name":"Žofie"}`), "key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Sign(tt.payload, tt.secret)
			if len(sig) != 64 {
				t.Errorf("Sign() length = %d, want 64 hex chars", len(sig))
			}
			if sig != Sign(tt.payload, tt.secret) {
				t.Error("Sign() not deterministic")
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"enquiry.submitted","data":{"id":1}}`)
	secret := "webhook-secret"
	sig := Sign(payload, secret)

	if !VerifySignature(payload, sig, secret) {
		t.Error("VerifySignature() = false for valid signature")
	}
	if VerifySignature(payload, sig, "wrong-secret") {
		t.Error("VerifySignature() = true with wrong secret")
	}
	if VerifySignature([]byte("tampered"), sig, secret) {
		t.Error("VerifySignature() = true with tampered payload")
	}
	if VerifySignature(payload, "", secret) {
		t.Error("VerifySignature() = true with empty signature")
	}
}

func TestSubscribed(t *testing.T) {
	tests := []struct {
		name   string
		events string
		event  string
		want   bool
	}{
		{"empty list matches all", "", "enquiry.submitted", true},
		{"empty array matches all", "[]", "enquiry.submitted", true},
		{"exact match", `["enquiry.submitted"]`, "enquiry.submitted", true},
		{"no match", `["blog.published"]`, "enquiry.submitted", false},
		{"wildcard prefix", `["enquiry.*"]`, "enquiry.submitted", true},
		{"wildcard other prefix", `["blog.*"]`, "enquiry.submitted", false},
		{"invalid json", `not-json`, "enquiry.submitted", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subscribed(tt.events, tt.event); got != tt.want {
				t.Errorf("subscribed(%q, %q) = %v, want %v", tt.events, tt.event, got, tt.want)
			}
		})
	}
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE webhooks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		secret TEXT NOT NULL,
		events TEXT NOT NULL DEFAULT '[]',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	if err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestDispatcherDelivers(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	var gotSig, gotEvent string
	received := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = body
		gotSig = r.Header.Get("X-Webhook-Signature")
		gotEvent = r.Header.Get("X-Webhook-Event")
		mu.Unlock()
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	db := newTestDB(t)
	queries := store.New(db)
	ctx := context.Background()

	now := time.Now()
	_, err := queries.CreateWebhook(ctx, store.CreateWebhookParams{
		Name:      "crm",
		Url:       srv.URL,
		Secret:    "topsecret",
		Events:    `["enquiry.submitted"]`,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating webhook: %v", err)
	}

	d := NewDispatcher(db, nil, Config{Workers: 1})
	d.Start(ctx)
	defer d.Stop()

	d.Dispatch(ctx, "enquiry.submitted", map[string]any{"id": 42, "name": "Priya"})

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook endpoint was not called")
	}

	mu.Lock()
	defer mu.Unlock()

	if gotEvent != "enquiry.submitted" {
		t.Errorf("X-Webhook-Event = %q, want enquiry.submitted", gotEvent)
	}
	if !VerifySignature(gotBody, gotSig, "topsecret") {
		t.Error("delivered signature does not verify against payload")
	}

	var envelope Event
	if err := json.Unmarshal(gotBody, &envelope); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if envelope.Type != "enquiry.submitted" {
		t.Errorf("envelope type = %q", envelope.Type)
	}
	if envelope.ID == "" {
		t.Error("envelope missing event id")
	}
}

func TestDispatcherSkipsUnsubscribed(t *testing.T) {
	called := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	db := newTestDB(t)
	queries := store.New(db)
	ctx := context.Background()

	now := time.Now()
	_, err := queries.CreateWebhook(ctx, store.CreateWebhookParams{
		Name:      "blog-bot",
		Url:       srv.URL,
		Secret:    "s",
		Events:    `["blog.published"]`,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating webhook: %v", err)
	}

	d := NewDispatcher(db, nil, Config{Workers: 1})
	d.Start(ctx)
	defer d.Stop()

	d.Dispatch(ctx, "enquiry.submitted", map[string]any{"id": 1})

	select {
	case <-called:
		t.Error("unsubscribed webhook was called")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDispatcherNotRunning(t *testing.T) {
	db := newTestDB(t)
	d := NewDispatcher(db, nil, Config{})

	// must not panic or block before Start
	d.Dispatch(context.Background(), "enquiry.submitted", nil)
	d.Stop()
}
