package ml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read %s: %v", src, err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", dst, err)
	}
}

func TestStoreCurrentBeforeLoad(t *testing.T) {
	store := NewStore("", "testdata/forest.json", nil)
	if _, err := store.Current(); !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected ErrModelNotLoaded, got %v", err)
	}
}

func TestStoreLoad(t *testing.T) {
	store := NewStore(ModelTypeRandomForest, "testdata/forest.json", nil)
	installed, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := store.Current()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if installed != loaded {
		t.Fatalf("Load returned %p, Current returned %p", installed, loaded)
	}
	if loaded.Generation != 1 || loaded.Encoder == nil || loaded.Source != "testdata/forest.json" {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}
}

func TestStoreLoadFailureIsReported(t *testing.T) {
	store := NewStore("", "testdata/malformed.json", nil)
	loaded, err := store.Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if loaded != nil {
		t.Fatalf("expected no snapshot on failure, got %+v", loaded)
	}
	if _, err := store.Current(); !errors.Is(err, ErrModelNotLoaded) {
		t.Fatalf("expected no model after failed load, got %v", err)
	}
}

func TestStoreWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	copyFile(t, "testdata/tree.json", path)

	store := NewStore("", path, nil)
	if _, err := store.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	results := make(chan error, 4)
	store.OnReload(func(err error) { results <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()
	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	copyFile(t, "testdata/malformed.json", path)
	select {
	case err := <-results:
		if err == nil {
			t.Fatal("expected reload of malformed file to fail")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	loaded, _ := store.Current()
	if loaded.Classifier.Info().Type != ModelTypeDecisionTree {
		t.Fatalf("failed reload must keep previous model, got %s", loaded.Classifier.Info().Type)
	}

	copyFile(t, "testdata/forest.json", path)
	select {
	case err := <-results:
		if err != nil {
			t.Fatalf("unexpected reload error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	loaded, _ = store.Current()
	if loaded.Classifier.Info().Type != ModelTypeRandomForest || loaded.Generation < 2 {
		t.Fatalf("expected reloaded forest, got %+v", loaded)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("unexpected watch error: %v", err)
	}
}
