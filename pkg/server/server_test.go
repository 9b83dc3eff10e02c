package server

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/smarterbotcl/smarterhub/pkg/models"
	"github.com/smarterbotcl/smarterhub/pkg/ratelimit"
	"github.com/smarterbotcl/smarterhub/pkg/storage"
	"github.com/smarterbotcl/smarterhub/pkg/tools"
)

func setupTestStorage(t *testing.T) (storage.Storage, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "server-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	cfg := storage.Config{
		DatabasePath: tmpFile.Name(),
		Debug:        false,
	}

	store, err := storage.NewSQLiteStorage(cfg)
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create storage: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return store, cleanup
}

func newTestServer(store storage.Storage) *Server {
	impl := &mcp.Implementation{
		Name:    "test-server",
		Version: "1.0.0",
	}
	limiter := ratelimit.New(time.Minute, 30)
	recorder := tools.NewRecorder(zerolog.New(os.Stdout), store, false)
	return NewServer(impl, store, limiter, recorder)
}

func TestNewServer(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	srv := newTestServer(store)

	if srv == nil {
		t.Fatal("expected non-nil server")
	}
	if srv.storage == nil {
		t.Fatal("expected non-nil storage in server")
	}
	if srv.Registry() == nil {
		t.Fatal("expected non-nil registry")
	}
	if srv.Limiter() == nil {
		t.Fatal("expected non-nil limiter")
	}
	if srv.Recorder() == nil {
		t.Fatal("expected non-nil recorder")
	}
}

func TestServer_Storage(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	srv := newTestServer(store)

	retrievedStorage := srv.Storage()
	if retrievedStorage == nil {
		t.Fatal("Storage() returned nil")
	}

	// Verify it's the same storage by using it
	ctx := context.Background()
	inv := &models.Invocation{
		UserID:  "u1",
		Tool:    "tenants.list",
		Success: true,
	}
	if err := retrievedStorage.CreateInvocation(ctx, inv); err != nil {
		t.Fatalf("failed to use retrieved storage: %v", err)
	}
}

func TestServer_Registry_StartsEmpty(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	srv := newTestServer(store)
	if srv.Registry().Len() != 0 {
		t.Errorf("expected empty registry, got %d entries", srv.Registry().Len())
	}
}

func TestServer_Shutdown(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	srv := newTestServer(store)

	ctx := context.Background()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() returned error: %v", err)
	}
}

func TestServer_Shutdown_NilStorage(t *testing.T) {
	impl := &mcp.Implementation{
		Name:    "test-server",
		Version: "1.0.0",
	}
	srv := NewServer(impl, nil, ratelimit.New(time.Minute, 30), nil)

	ctx := context.Background()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() with nil storage returned error: %v", err)
	}
}
