package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBillingRecordRepository implements billing.BillingRecordRepository using GORM.
// Billing records are append-only history.
type GormBillingRecordRepository struct {
	db *gorm.DB
}

// NewGormBillingRecordRepository creates a new GormBillingRecordRepository
func NewGormBillingRecordRepository(db *gorm.DB) *GormBillingRecordRepository {
	return &GormBillingRecordRepository{db: db}
}

// Create appends a billing record
func (r *GormBillingRecordRepository) Create(ctx context.Context, record *billing.BillingRecord) error {
	model := models.BillingRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByCustomerID returns a customer's billing history, newest first
func (r *GormBillingRecordRepository) FindByCustomerID(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]*billing.BillingRecord, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BillingRecordModel{}).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID)

	if recordType, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", recordType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var recordModels []models.BillingRecordModel
	if err := query.Order("created_at DESC").Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}

	records := make([]*billing.BillingRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, total, nil
}

// Ensure GormBillingRecordRepository implements billing.BillingRecordRepository
var _ billing.BillingRecordRepository = (*GormBillingRecordRepository)(nil)
