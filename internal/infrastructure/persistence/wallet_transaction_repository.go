package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormWalletTransactionRepository implements reseller.TransactionRepository using GORM.
// Ledger rows are append-only so the repository exposes no update or delete.
type GormWalletTransactionRepository struct {
	db *gorm.DB
}

// NewGormWalletTransactionRepository creates a new GormWalletTransactionRepository
func NewGormWalletTransactionRepository(db *gorm.DB) *GormWalletTransactionRepository {
	return &GormWalletTransactionRepository{db: db}
}

// Create appends a ledger row
func (r *GormWalletTransactionRepository) Create(ctx context.Context, tx *reseller.WalletTransaction) error {
	model := models.WalletTransactionModelFromDomain(tx)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrDuplicateRequest
		}
		return err
	}
	return nil
}

// FindByID finds a ledger row by ID within a tenant
func (r *GormWalletTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reseller.WalletTransaction, error) {
	var model models.WalletTransactionModel
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

// FindByResellerID returns ledger rows for a reseller, newest first
func (r *GormWalletTransactionRepository) FindByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID, filter reseller.TransactionFilter) ([]*reseller.WalletTransaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WalletTransactionModel{}).
		Where("tenant_id = ? AND reseller_id = ?", tenantID, resellerID)

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.DateFrom != nil {
		query = query.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("created_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var txModels []models.WalletTransactionModel
	if err := query.Order("created_at DESC").Find(&txModels).Error; err != nil {
		return nil, 0, err
	}

	transactions := make([]*reseller.WalletTransaction, len(txModels))
	for i := range txModels {
		transactions[i] = txModels[i].ToDomain()
	}
	return transactions, total, nil
}

// FindByIdempotencyKey looks up an already-applied request by its key
func (r *GormWalletTransactionRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*reseller.WalletTransaction, error) {
	var model models.WalletTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetLatestByResellerID returns the most recent ledger row for a reseller
func (r *GormWalletTransactionRepository) GetLatestByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID) (*reseller.WalletTransaction, error) {
	var model models.WalletTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reseller_id = ?", tenantID, resellerID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SumByResellerIDAndType totals signed amounts of one transaction type
func (r *GormWalletTransactionRepository) SumByResellerIDAndType(ctx context.Context, tenantID, resellerID uuid.UUID, txType reseller.TransactionType) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransactionModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("tenant_id = ? AND reseller_id = ? AND type = ?", tenantID, resellerID, txType).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormWalletTransactionRepository implements reseller.TransactionRepository
var _ reseller.TransactionRepository = (*GormWalletTransactionRepository)(nil)
