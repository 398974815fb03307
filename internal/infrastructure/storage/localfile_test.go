package storage

import (
	"context"
	"testing"
)

func TestLocalFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewLocalFileStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if v, err := store.Get(ctx, "location_id"); err != nil || v != "" {
		t.Fatalf("expected empty value on fresh store, got %q err %v", v, err)
	}

	if err := store.Set(ctx, "location_id", "loc-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := store.Get(ctx, "location_id"); v != "loc-1" {
		t.Errorf("expected loc-1, got %q", v)
	}

	if err := store.Delete(ctx, "location_id"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v, _ := store.Get(ctx, "location_id"); v != "" {
		t.Errorf("expected empty after delete, got %q", v)
	}
}

func TestLocalFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewLocalFileStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Set(ctx, "tool_cart_draft", `[{"catalog_id":"cat-1","quantity":2}]`); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := NewLocalFileStore(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	v, err := reopened.Get(ctx, "tool_cart_draft")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != `[{"catalog_id":"cat-1","quantity":2}]` {
		t.Errorf("expected draft preserved across reopen, got %q", v)
	}
}
