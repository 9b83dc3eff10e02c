package storage

import (
	"context"
	"os"
	"testing"

	"github.com/smarterbotcl/smarterhub/pkg/models"
	"gorm.io/datatypes"
)

func setupTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "storage-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	cfg := Config{
		DatabasePath: tmpFile.Name(),
		Debug:        false,
	}

	store, err := NewSQLiteStorage(cfg)
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

func createTestTenant(t *testing.T, store *SQLiteStorage, ownerID string) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{
		RUT:          "12345678-9",
		BusinessName: "Acme",
		OwnerID:      ownerID,
		Active:       true,
	}
	if err := store.CreateTenant(context.Background(), tenant); err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}
	return tenant
}

func TestCreateTenant_AssignsUUID(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	tenant := createTestTenant(t, store, "u1")
	if tenant.ID == "" {
		t.Fatal("expected tenant ID to be assigned")
	}
}

func TestGetTenant(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	created := createTestTenant(t, store, "u1")

	got, err := store.GetTenant(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("failed to get tenant: %v", err)
	}
	if got.RUT != "12345678-9" {
		t.Errorf("expected rut '12345678-9', got '%s'", got.RUT)
	}
	if got.BusinessName != "Acme" {
		t.Errorf("expected business name 'Acme', got '%s'", got.BusinessName)
	}
}

func TestGetTenant_NotFound(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := store.GetTenant(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err == nil {
		t.Fatal("expected error for missing tenant")
	}
}

func TestListTenantsForOwner_ScopedAndActiveOnly(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	createTestTenant(t, store, "u1")
	createTestTenant(t, store, "u2")

	inactive := &models.Tenant{
		RUT:          "98765432-1",
		BusinessName: "Dormant",
		OwnerID:      "u1",
		Active:       false,
	}
	if err := store.CreateTenant(ctx, inactive); err != nil {
		t.Fatalf("failed to create inactive tenant: %v", err)
	}

	tenants, err := store.ListTenantsForOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to list tenants: %v", err)
	}
	if len(tenants) != 1 {
		t.Fatalf("expected 1 tenant for u1, got %d", len(tenants))
	}
	if tenants[0].OwnerID != "u1" {
		t.Errorf("expected owner 'u1', got '%s'", tenants[0].OwnerID)
	}
}

func TestUpdateTenantServices_MergesFlags(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	tenant := &models.Tenant{
		RUT:             "12345678-9",
		BusinessName:    "Acme",
		OwnerID:         "u1",
		Active:          true,
		ServicesEnabled: datatypes.NewJSONType(models.ServiceFlags{CRM: true}),
	}
	if err := store.CreateTenant(ctx, tenant); err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	updated, err := store.UpdateTenantServices(ctx, tenant.ID, map[string]bool{"crm": false, "bot": true})
	if err != nil {
		t.Fatalf("failed to update services: %v", err)
	}

	flags := updated.ServicesEnabled.Data()
	if flags.CRM {
		t.Error("expected crm to be disabled")
	}
	if !flags.Bot {
		t.Error("expected bot to be enabled")
	}
	if flags.ERP || flags.Workflows || flags.KPI {
		t.Error("expected unnamed flags to stay disabled")
	}
}

func TestUpdateTenantServices_UnknownFlag(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	tenant := createTestTenant(t, store, "u1")

	_, err := store.UpdateTenantServices(context.Background(), tenant.ID, map[string]bool{"billing": true})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestUpdateTenantIntegrations_PartialPatch(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	tenant := createTestTenant(t, store, "u1")

	inbox := int64(42)
	workspace := "ws-1"
	updated, err := store.UpdateTenantIntegrations(ctx, tenant.ID, models.IntegrationPatch{
		ChatwootInboxID:     &inbox,
		BotpressWorkspaceID: &workspace,
	})
	if err != nil {
		t.Fatalf("failed to update integrations: %v", err)
	}

	if updated.ChatwootInboxID == nil || *updated.ChatwootInboxID != 42 {
		t.Error("expected chatwoot inbox id 42")
	}
	if updated.BotpressWorkspaceID == nil || *updated.BotpressWorkspaceID != "ws-1" {
		t.Error("expected botpress workspace 'ws-1'")
	}
	if updated.OdooCompanyID != nil {
		t.Error("expected odoo company id to remain unset")
	}
}

func TestCreateInvocation_And_Recent(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		inv := &models.Invocation{
			UserID:     "u1",
			Tool:       "tenants.list",
			Args:       "{}",
			DurationMs: int64(i),
			Success:    true,
		}
		if err := store.CreateInvocation(ctx, inv); err != nil {
			t.Fatalf("failed to create invocation: %v", err)
		}
	}
	other := &models.Invocation{UserID: "u2", Tool: "tenants.list", Success: true}
	if err := store.CreateInvocation(ctx, other); err != nil {
		t.Fatalf("failed to create invocation: %v", err)
	}

	recent, err := store.RecentInvocations(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("failed to list invocations: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 invocations for u1, got %d", len(recent))
	}
	for _, inv := range recent {
		if inv.UserID != "u1" {
			t.Errorf("expected invocations scoped to u1, got '%s'", inv.UserID)
		}
	}
}

func TestRecentInvocations_LimitClamped(t *testing.T) {
	store, cleanup := setupTestStorage(t)
	defer cleanup()

	recent, err := store.RecentInvocations(context.Background(), "u1", 100000)
	if err != nil {
		t.Fatalf("failed to list invocations: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected no invocations, got %d", len(recent))
	}
}
