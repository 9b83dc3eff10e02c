package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ServiceFlags is the per-tenant service enablement map stored as a JSON column.
type ServiceFlags struct {
	CRM       bool `json:"crm"`
	Bot       bool `json:"bot"`
	ERP       bool `json:"erp"`
	Workflows bool `json:"workflows"`
	KPI       bool `json:"kpi"`
}

// ApplyPatch merges the named flags into a copy of f. Unknown flag names
// are rejected so a typo cannot silently drop an update.
func (f ServiceFlags) ApplyPatch(patch map[string]bool) (ServiceFlags, error) {
	merged := f
	for name, value := range patch {
		switch name {
		case "crm":
			merged.CRM = value
		case "bot":
			merged.Bot = value
		case "erp":
			merged.ERP = value
		case "workflows":
			merged.Workflows = value
		case "kpi":
			merged.KPI = value
		default:
			return f, fmt.Errorf("unknown service flag: %s", name)
		}
	}
	return merged, nil
}

// Tenant is a business entity (identified by its Chilean RUT) owning a
// bundle of integration configurations.
type Tenant struct {
	ID                  string                           `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt           time.Time                        `json:"created_at"`
	UpdatedAt           time.Time                        `json:"updated_at"`
	RUT                 string                           `gorm:"type:varchar(32);not null" json:"rut"`
	BusinessName        string                           `gorm:"type:varchar(255);not null" json:"business_name"`
	ContactEmail        string                           `gorm:"type:varchar(255)" json:"contact_email"`
	OwnerID             string                           `gorm:"type:varchar(64);index;not null" json:"owner_id"`
	OwnerEmail          string                           `gorm:"type:varchar(255)" json:"owner_email,omitempty"`
	ServicesEnabled     datatypes.JSONType[ServiceFlags] `json:"services_enabled"`
	ChatwootInboxID     *int64                           `json:"chatwoot_inbox_id"`
	BotpressWorkspaceID *string                          `gorm:"type:varchar(64)" json:"botpress_workspace_id"`
	OdooCompanyID       *int64                           `json:"odoo_company_id"`
	N8nProjectID        *string                          `gorm:"type:varchar(64)" json:"n8n_project_id"`
	MetabaseDashboardID *string                          `gorm:"type:varchar(64)" json:"metabase_dashboard_id"`
	Active              bool                             `gorm:"index;default:true" json:"active"`
}

func (t *Tenant) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TenantSummary is the projection returned by tenants.list. Integration
// identifiers are deliberately omitted.
type TenantSummary struct {
	ID           string    `json:"id"`
	RUT          string    `json:"rut"`
	BusinessName string    `json:"business_name"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary projects the tenant to its list shape.
func (t *Tenant) Summary() TenantSummary {
	return TenantSummary{
		ID:           t.ID,
		RUT:          t.RUT,
		BusinessName: t.BusinessName,
		Active:       t.Active,
		CreatedAt:    t.CreatedAt,
	}
}

// IntegrationPatch carries the nullable integration identifiers assigned
// after provisioning. Nil fields are left untouched.
type IntegrationPatch struct {
	ChatwootInboxID     *int64  `json:"chatwoot_inbox_id,omitempty"`
	BotpressWorkspaceID *string `json:"botpress_workspace_id,omitempty"`
	OdooCompanyID       *int64  `json:"odoo_company_id,omitempty"`
	N8nProjectID        *string `json:"n8n_project_id,omitempty"`
	MetabaseDashboardID *string `json:"metabase_dashboard_id,omitempty"`
}
