// Package tenants exposes tenant-management tools backed by the
// persistence layer, scoped to the authenticated caller.
package tenants

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/smarterbotcl/smarterhub/pkg/models"
	"github.com/smarterbotcl/smarterhub/pkg/server"
	"github.com/smarterbotcl/smarterhub/pkg/storage"
	"github.com/smarterbotcl/smarterhub/pkg/tools"
	"gorm.io/datatypes"
)

type GetInput struct {
	ID string `json:"id" validate:"required,uuid"`
}

type CreateInput struct {
	RUT          string `json:"rut" validate:"required,min=3"`
	BusinessName string `json:"businessName" validate:"required,min=2"`
}

type UpdateServicesInput struct {
	ID       string          `json:"id" validate:"required,uuid"`
	Services map[string]bool `json:"services" validate:"required"`
}

type UpdateIntegrationsInput struct {
	ID           string                  `json:"id" validate:"required,uuid"`
	Integrations models.IntegrationPatch `json:"integrations"`
}

type Tool struct {
	logger    zerolog.Logger
	validator *validator.Validate
	store     storage.Storage
}

func New(logger zerolog.Logger) *Tool {
	return &Tool{
		logger:    logger.With().Str("tool", "tenants").Logger(),
		validator: validator.New(),
	}
}

func (t *Tool) Register(srv *server.Server) error {
	t.store = srv.Storage()

	entries := []struct {
		name        string
		description string
		handler     tools.Handler
	}{
		{"tenants.list", "List active tenants for the authenticated user", t.List},
		{"tenants.get", "Get a tenant by UUID (must belong to authenticated user)", t.Get},
		{"tenants.create", "Create a new tenant (rut, businessName)", t.Create},
		{"tenants.updateServices", "Update tenant services_enabled flags", t.UpdateServices},
		{"tenants.updateIntegrations", "Update tenant integration identifiers after provisioning", t.UpdateIntegrations},
	}

	for _, entry := range entries {
		if err := srv.Registry().Register(entry.name, entry.handler); err != nil {
			return err
		}
		mcp.AddTool(&srv.Server, &mcp.Tool{
			Name:        entry.name,
			Description: entry.description,
		}, tools.MCPHandler(srv.Recorder(), srv.Limiter(), entry.name, entry.handler))
	}
	t.logger.Debug().Msg("tenant tools registered")

	return nil
}

// List returns the caller's active tenants, newest first, projected to
// the summary shape without integration identifiers.
func (t *Tool) List(ctx context.Context, userID string, _ json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	tenants, err := t.store.ListTenantsForOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	summaries := make([]models.TenantSummary, 0, len(tenants))
	for i := range tenants {
		summaries = append(summaries, tenants[i].Summary())
	}
	return summaries, nil
}

// Get returns the full tenant record. Ownership enforcement is the
// persistence policy's job; only identity presence is checked here.
func (t *Tool) Get(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input GetInput
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	tenant, err := t.store.GetTenant(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("tenant not found: %w", err)
	}
	return tenant, nil
}

// Create registers a tenant owned by the caller with every service flag
// disabled and an empty contact email.
func (t *Tool) Create(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input CreateInput
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	tenant := &models.Tenant{
		RUT:             input.RUT,
		BusinessName:    input.BusinessName,
		ContactEmail:    "",
		OwnerID:         userID,
		Active:          true,
		ServicesEnabled: datatypes.NewJSONType(models.ServiceFlags{}),
	}
	if err := t.store.CreateTenant(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	t.logger.Info().Msgf("tenant %s created for user %s", tenant.ID, userID)
	return tenant, nil
}

// UpdateServices patches the named service flags; unnamed flags keep
// their current values.
func (t *Tool) UpdateServices(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input UpdateServicesInput
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	tenant, err := t.store.UpdateTenantServices(ctx, input.ID, input.Services)
	if err != nil {
		return nil, fmt.Errorf("failed to update services: %w", err)
	}
	return tenant, nil
}

// UpdateIntegrations records the external identifiers assigned by the
// provisioning backend.
func (t *Tool) UpdateIntegrations(ctx context.Context, userID string, args json.RawMessage) (any, error) {
	if userID == "" {
		return nil, tools.ErrUnauthorized
	}

	var input UpdateIntegrationsInput
	if err := tools.DecodeArgs(args, &input); err != nil {
		return nil, err
	}
	if err := t.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	tenant, err := t.store.UpdateTenantIntegrations(ctx, input.ID, input.Integrations)
	if err != nil {
		return nil, fmt.Errorf("failed to update integrations: %w", err)
	}
	return tenant, nil
}
