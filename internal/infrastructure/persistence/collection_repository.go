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

// GormCollectionRepository implements billing.CollectionRepository using GORM
type GormCollectionRepository struct {
	db *gorm.DB
}

// NewGormCollectionRepository creates a new GormCollectionRepository
func NewGormCollectionRepository(db *gorm.DB) *GormCollectionRepository {
	return &GormCollectionRepository{db: db}
}

// Create persists a new batch collection header
func (r *GormCollectionRepository) Create(ctx context.Context, c *billing.Collection) error {
	model := models.CollectionModelFromDomain(c)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByIDForTenant finds a collection by ID within a tenant
func (r *GormCollectionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Collection, error) {
	var model models.CollectionModel
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

// FindAllForTenant finds all collections for a tenant, newest first
func (r *GormCollectionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Collection, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CollectionModel{}).
		Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var collectionModels []models.CollectionModel
	if err := query.Order("created_at DESC").Find(&collectionModels).Error; err != nil {
		return nil, 0, err
	}

	collections := make([]billing.Collection, len(collectionModels))
	for i, model := range collectionModels {
		collections[i] = *model.ToDomain()
	}
	return collections, total, nil
}

// Save persists an updated collection header
func (r *GormCollectionRepository) Save(ctx context.Context, c *billing.Collection) error {
	model := models.CollectionModelFromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormCollectionRepository implements billing.CollectionRepository
var _ billing.CollectionRepository = (*GormCollectionRepository)(nil)
