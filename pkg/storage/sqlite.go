package storage

import (
	"context"
	"fmt"

	"github.com/smarterbotcl/smarterhub/pkg/models"
	"github.com/smarterbotcl/smarterhub/pkg/types"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SQLiteStorage struct {
	db *gorm.DB
}

type Config struct {
	DatabasePath string
	Debug        bool
}

func NewSQLiteStorage(cfg Config) (*SQLiteStorage, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	database, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// Auto-migrate schema
	if err := database.AutoMigrate(&models.Tenant{}, &models.Invocation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{db: database}, nil
}

func (s *SQLiteStorage) ListTenantsForOwner(ctx context.Context, ownerID string) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&tenants).Error
	return tenants, err
}

func (s *SQLiteStorage) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *SQLiteStorage) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	return s.db.WithContext(ctx).Create(tenant).Error
}

// UpdateTenantServices merges the named flags into the stored set. Flags
// absent from the patch keep their current values.
func (s *SQLiteStorage) UpdateTenantServices(ctx context.Context, id string, services map[string]bool) (*models.Tenant, error) {
	tenant, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := tenant.ServicesEnabled.Data().ApplyPatch(services)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Model(tenant).
		Update("services_enabled", datatypes.NewJSONType(merged)).Error
	if err != nil {
		return nil, err
	}
	return s.GetTenant(ctx, id)
}

func (s *SQLiteStorage) UpdateTenantIntegrations(ctx context.Context, id string, patch models.IntegrationPatch) (*models.Tenant, error) {
	tenant, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.ChatwootInboxID != nil {
		updates["chatwoot_inbox_id"] = *patch.ChatwootInboxID
	}
	if patch.BotpressWorkspaceID != nil {
		updates["botpress_workspace_id"] = *patch.BotpressWorkspaceID
	}
	if patch.OdooCompanyID != nil {
		updates["odoo_company_id"] = *patch.OdooCompanyID
	}
	if patch.N8nProjectID != nil {
		updates["n8n_project_id"] = *patch.N8nProjectID
	}
	if patch.MetabaseDashboardID != nil {
		updates["metabase_dashboard_id"] = *patch.MetabaseDashboardID
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(tenant).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetTenant(ctx, id)
}

func (s *SQLiteStorage) CreateInvocation(ctx context.Context, inv *models.Invocation) error {
	return s.db.WithContext(ctx).Create(inv).Error
}

func (s *SQLiteStorage) RecentInvocations(ctx context.Context, userID string, limit int) ([]models.Invocation, error) {
	if limit <= 0 || limit > types.MaxRecentLimit {
		limit = types.DefaultRecentLimit
	}
	var invocations []models.Invocation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&invocations).Error
	return invocations, err
}

func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
