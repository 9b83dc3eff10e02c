package models

import (
	"testing"

	"gorm.io/datatypes"
)

func TestServiceFlags_ApplyPatch(t *testing.T) {
	flags := ServiceFlags{CRM: true}

	merged, err := flags.ApplyPatch(map[string]bool{"crm": false, "bot": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.CRM {
		t.Error("expected crm to be disabled")
	}
	if !merged.Bot {
		t.Error("expected bot to be enabled")
	}
	// Flags not named in the patch keep their prior values.
	if merged.ERP || merged.Workflows || merged.KPI {
		t.Error("expected untouched flags to remain disabled")
	}
}

func TestServiceFlags_ApplyPatch_UnknownFlag(t *testing.T) {
	flags := ServiceFlags{CRM: true}

	_, err := flags.ApplyPatch(map[string]bool{"billing": true})
	if err == nil {
		t.Fatal("expected error for unknown flag name")
	}
	// The receiver is never mutated.
	if !flags.CRM {
		t.Error("expected receiver to be unchanged after failed patch")
	}
}

func TestServiceFlags_ApplyPatch_Empty(t *testing.T) {
	flags := ServiceFlags{Workflows: true}

	merged, err := flags.ApplyPatch(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged != flags {
		t.Error("expected empty patch to be a no-op")
	}
}

func TestTenant_BeforeCreate_AssignsID(t *testing.T) {
	tenant := &Tenant{RUT: "12345678-9", BusinessName: "Acme"}

	if err := tenant.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.ID == "" {
		t.Error("expected a generated UUID")
	}
}

func TestTenant_BeforeCreate_KeepsExistingID(t *testing.T) {
	tenant := &Tenant{ID: "fixed-id"}

	if err := tenant.BeforeCreate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.ID != "fixed-id" {
		t.Errorf("expected ID to be preserved, got %s", tenant.ID)
	}
}

func TestTenant_Summary_OmitsIntegrations(t *testing.T) {
	inbox := int64(42)
	tenant := &Tenant{
		ID:              "t1",
		RUT:             "12345678-9",
		BusinessName:    "Acme",
		Active:          true,
		ChatwootInboxID: &inbox,
		ServicesEnabled: datatypes.NewJSONType(ServiceFlags{CRM: true}),
	}

	summary := tenant.Summary()
	if summary.ID != "t1" || summary.RUT != "12345678-9" || summary.BusinessName != "Acme" {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if !summary.Active {
		t.Error("expected active flag in summary")
	}
}
