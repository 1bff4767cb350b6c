package kvstore

import (
	"context"
	"testing"

	"yield-ledger-go/internal/filestore"
	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"github.com/alicebob/miniredis/v2"
)

func setupFallback(t *testing.T) (*FallbackBackend, *miniredis.Miniredis, *filestore.Service) {
	files, err := filestore.NewService(models.FileConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("filestore.NewService failed: %v", err)
	}
	primary, server := setupRedis(t, "")
	return NewFallbackBackend(primary, files), server, files
}

func TestFallback_MirrorsPrimaryWrites(t *testing.T) {
	backend, server, files := setupFallback(t)
	ctx := context.Background()

	revision, err := backend.Save(ctx, "users", []byte(`["kv"]`), store.NoRevision)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if revision != 1 {
		t.Errorf("Expected primary revision 1, got %d", revision)
	}
	if got := server.HGet("users", fieldData); got != `["kv"]` {
		t.Errorf("Expected primary document, got %q", got)
	}
	mirrored, _, err := files.Load(ctx, "users")
	if err != nil || string(mirrored) != `["kv"]` {
		t.Errorf("Expected mirrored document, got %q (%v)", string(mirrored), err)
	}

	data, loaded, err := backend.Load(ctx, "users")
	if err != nil || string(data) != `["kv"]` || loaded != revision {
		t.Errorf("Expected primary document at %d, got %q at %d (%v)", revision, string(data), loaded, err)
	}
}

func TestFallback_FailedPrimaryWriteIsNotMirrored(t *testing.T) {
	backend, server, files := setupFallback(t)
	ctx := context.Background()

	revision, err := backend.Save(ctx, "users", []byte(`{"balance":"1000"}`), store.NoRevision)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	server.SetError("LOADING redis is loading the dataset")
	if _, err := backend.Save(ctx, "users", []byte(`{"balance":"600"}`), revision); err == nil {
		t.Fatal("Expected save to fail while the primary is down")
	}

	// reads during the outage come from the mirror and still show the last committed state
	data, _, err := backend.Load(ctx, "users")
	if err != nil || string(data) != `{"balance":"1000"}` {
		t.Errorf("Expected mirrored 1000 during outage, got %q (%v)", string(data), err)
	}
	mirrored, _, _ := files.Load(ctx, "users")
	if string(mirrored) != `{"balance":"1000"}` {
		t.Errorf("Expected mirror untouched by the failed write, got %q", string(mirrored))
	}

	server.SetError("")
	data, loaded, err := backend.Load(ctx, "users")
	if err != nil || string(data) != `{"balance":"1000"}` || loaded != revision {
		t.Errorf("Expected 1000 at revision %d after recovery, got %q at %d (%v)", revision, string(data), loaded, err)
	}
}

func TestFallback_SeedsEmptyPrimaryFromMirror(t *testing.T) {
	backend, server, files := setupFallback(t)
	ctx := context.Background()

	if _, err := files.Save(ctx, "withdrawals", []byte(`[1]`), store.AnyRevision); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, revision, err := backend.Load(ctx, "withdrawals")
	if err != nil || string(data) != `[1]` {
		t.Fatalf("Expected mirrored document, got %q (%v)", string(data), err)
	}
	if revision != store.NoRevision {
		t.Errorf("Expected NoRevision while the primary is empty, got %d", revision)
	}

	if _, err := backend.Save(ctx, "withdrawals", []byte(`[1,2]`), revision); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := server.HGet("withdrawals", fieldData); got != `[1,2]` {
		t.Errorf("Expected primary to be created, got %q", got)
	}
}
