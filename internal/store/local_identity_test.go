package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MKhiriev/chat-guard/internal/logger"
)

func newTestIdentityCache(t *testing.T) LocalIdentityCache {
	t.Helper()
	cache, err := NewLocalIdentityCache(filepath.Join(t.TempDir(), "identity.db"), logger.NewLogger("test"))
	if err != nil {
		t.Fatalf("failed to open identity cache: %v", err)
	}
	return cache
}

func TestLocalIdentityCache_PutGet(t *testing.T) {
	cache := newTestIdentityCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, CacheKeyUserID, "uid-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.Get(ctx, CacheKeyUserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "uid-1" {
		t.Errorf("expected uid-1, got %s", got)
	}
}

func TestLocalIdentityCache_PutOverwrites(t *testing.T) {
	cache := newTestIdentityCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, CacheKeyAnonymousID, "anon_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cache.Put(ctx, CacheKeyAnonymousID, "anon_2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := cache.Get(ctx, CacheKeyAnonymousID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "anon_2" {
		t.Errorf("expected anon_2, got %s", got)
	}
}

func TestLocalIdentityCache_GetMissing(t *testing.T) {
	cache := newTestIdentityCache(t)

	_, err := cache.Get(context.Background(), "never-stored")
	if !errors.Is(err, ErrSubjectNotCached) {
		t.Fatalf("expected ErrSubjectNotCached, got %v", err)
	}
}

func TestLocalIdentityCache_DeleteMissingIsNoop(t *testing.T) {
	cache := newTestIdentityCache(t)

	if err := cache.Delete(context.Background(), "never-stored"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
