package storage

import (
	"context"

	"github.com/smarterbotcl/smarterhub/pkg/models"
)

type Storage interface {
	// Tenant operations
	ListTenantsForOwner(ctx context.Context, ownerID string) ([]models.Tenant, error)
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	UpdateTenantServices(ctx context.Context, id string, services map[string]bool) (*models.Tenant, error)
	UpdateTenantIntegrations(ctx context.Context, id string, patch models.IntegrationPatch) (*models.Tenant, error)

	// Invocation log operations
	CreateInvocation(ctx context.Context, inv *models.Invocation) error
	RecentInvocations(ctx context.Context, userID string, limit int) ([]models.Invocation, error)

	// Lifecycle
	Close() error
}
