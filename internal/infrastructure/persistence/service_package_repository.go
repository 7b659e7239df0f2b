package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormServicePackageRepository implements billing.PackageRepository using GORM
type GormServicePackageRepository struct {
	db *gorm.DB
}

// NewGormServicePackageRepository creates a new GormServicePackageRepository
func NewGormServicePackageRepository(db *gorm.DB) *GormServicePackageRepository {
	return &GormServicePackageRepository{db: db}
}

// FindByIDForTenant finds a service package by ID within a tenant
func (r *GormServicePackageRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.ServicePackage, error) {
	var model models.ServicePackageModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all service packages for a tenant
func (r *GormServicePackageRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.ServicePackage, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ServicePackageModel{}).
		Where("tenant_id = ?", tenantID)

	if active, ok := filter.Filters["is_active"]; ok {
		query = query.Where("is_active = ?", active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var packageModels []models.ServicePackageModel
	if err := query.Order("created_at DESC").Find(&packageModels).Error; err != nil {
		return nil, 0, err
	}

	packages := make([]billing.ServicePackage, len(packageModels))
	for i, model := range packageModels {
		packages[i] = *model.ToDomain()
	}
	return packages, total, nil
}

// Save persists a service package
func (r *GormServicePackageRepository) Save(ctx context.Context, p *billing.ServicePackage) error {
	model := models.ServicePackageModelFromDomain(p)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormServicePackageRepository implements billing.PackageRepository
var _ billing.PackageRepository = (*GormServicePackageRepository)(nil)
