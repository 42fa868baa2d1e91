// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "blog:slug:bali-guide", []byte(`{"title":"Bali Guide"}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := c.Get(ctx, "blog:slug:bali-guide")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"title":"Bali Guide"}` {
		t.Errorf("Get = %q, want stored value", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()

	if _, err := c.Get(context.Background(), "missing"); err != ErrCacheMiss {
		t.Errorf("Get missing key: err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "short", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); err != ErrCacheMiss {
		t.Errorf("Get expired key: err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrCacheMiss {
		t.Errorf("Get after delete: err = %v, want ErrCacheMiss", err)
	}

	// deleting again is fine
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

func TestMemoryCacheClear(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, err := c.Get(ctx, k); err != ErrCacheMiss {
			t.Errorf("Get %s after clear: err = %v, want ErrCacheMiss", k, err)
		}
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	c := NewMemory(time.Minute)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ctx := context.Background()
	if _, err := c.Get(ctx, "k"); err != ErrCacheClosed {
		t.Errorf("Get after close: err = %v, want ErrCacheClosed", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != ErrCacheClosed {
		t.Errorf("Set after close: err = %v, want ErrCacheClosed", err)
	}

	// double close is a no-op
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestMemoryCacheValueIsolation(t *testing.T) {
	c := NewMemory(time.Minute)
	defer c.Close()
	ctx := context.Background()

	original := []byte("immutable")
	if err := c.Set(ctx, "k", original, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	original[0] = 'X'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "immutable" {
		t.Errorf("stored value mutated: %q", got)
	}

	got[0] = 'Y'
	again, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(again) != "immutable" {
		t.Errorf("returned value mutated cache: %q", again)
	}
}
