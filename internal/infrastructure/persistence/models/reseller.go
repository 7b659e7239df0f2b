package models

import (
	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ResellerModel is the persistence model for the Reseller aggregate
type ResellerModel struct {
	TenantAggregateModel
	Name                 string          `gorm:"type:varchar(200);not null"`
	Phone                string          `gorm:"type:varchar(50);index"`
	Email                string          `gorm:"type:varchar(200);index"`
	PasswordHash         string          `gorm:"type:varchar(100)"`
	ParentID             *uuid.UUID      `gorm:"type:uuid;index"`
	Level                int             `gorm:"not null;check:level >= 1 AND level <= 3"`
	Role                 reseller.Role   `gorm:"type:varchar(30);not null"`
	Balance              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCollections     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CommissionType       string          `gorm:"type:varchar(20);not null;default:'percentage'"`
	CommissionValue      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RateType             string          `gorm:"type:varchar(20);not null;default:'discount'"`
	CustomerRate         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CanCreateSubReseller bool            `gorm:"not null;default:false"`
	CanAddCustomers      bool            `gorm:"not null;default:true"`
	CanEditCustomers     bool            `gorm:"not null;default:true"`
	CanDeleteCustomers   bool            `gorm:"not null;default:false"`
	CanRechargeCustomers bool            `gorm:"not null;default:true"`
	CanViewSubCustomers  bool            `gorm:"not null;default:false"`
	MaxSubResellers      *int            `gorm:""`
	MaxCustomers         *int            `gorm:""`
	IsActive             bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ResellerModel) TableName() string {
	return "resellers"
}

// ToDomain converts the persistence model to a domain Reseller aggregate
func (m *ResellerModel) ToDomain() *reseller.Reseller {
	r := &reseller.Reseller{
		Name:             m.Name,
		Phone:            m.Phone,
		Email:            m.Email,
		PasswordHash:     m.PasswordHash,
		ParentID:         m.ParentID,
		Level:            m.Level,
		Role:             m.Role,
		Balance:          m.Balance,
		TotalCollections: m.TotalCollections,
		Policy: reseller.CommissionPolicy{
			CommissionType:  reseller.CommissionType(m.CommissionType),
			CommissionValue: m.CommissionValue,
			RateType:        reseller.RateType(m.RateType),
			CustomerRate:    m.CustomerRate,
		},
		Capabilities: reseller.Capabilities{
			CanCreateSubReseller: m.CanCreateSubReseller,
			CanAddCustomers:      m.CanAddCustomers,
			CanEditCustomers:     m.CanEditCustomers,
			CanDeleteCustomers:   m.CanDeleteCustomers,
			CanRechargeCustomers: m.CanRechargeCustomers,
			CanViewSubCustomers:  m.CanViewSubCustomers,
		},
		Limits: reseller.Limits{
			MaxSubResellers: m.MaxSubResellers,
			MaxCustomers:    m.MaxCustomers,
		},
		IsActive: m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&r.TenantAggregateRoot)
	return r
}

// FromDomain populates the persistence model from a domain Reseller aggregate
func (m *ResellerModel) FromDomain(r *reseller.Reseller) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.Name = r.Name
	m.Phone = r.Phone
	m.Email = r.Email
	m.PasswordHash = r.PasswordHash
	m.ParentID = r.ParentID
	m.Level = r.Level
	m.Role = r.Role
	m.Balance = r.Balance
	m.TotalCollections = r.TotalCollections
	m.CommissionType = string(r.Policy.CommissionType)
	m.CommissionValue = r.Policy.CommissionValue
	m.RateType = string(r.Policy.RateType)
	m.CustomerRate = r.Policy.CustomerRate
	m.CanCreateSubReseller = r.Capabilities.CanCreateSubReseller
	m.CanAddCustomers = r.Capabilities.CanAddCustomers
	m.CanEditCustomers = r.Capabilities.CanEditCustomers
	m.CanDeleteCustomers = r.Capabilities.CanDeleteCustomers
	m.CanRechargeCustomers = r.Capabilities.CanRechargeCustomers
	m.CanViewSubCustomers = r.Capabilities.CanViewSubCustomers
	m.MaxSubResellers = r.Limits.MaxSubResellers
	m.MaxCustomers = r.Limits.MaxCustomers
	m.IsActive = r.IsActive
}

// ResellerModelFromDomain creates a new persistence model from a domain Reseller
func ResellerModelFromDomain(r *reseller.Reseller) *ResellerModel {
	m := &ResellerModel{}
	m.FromDomain(r)
	return m
}

// WalletTransactionModel is the persistence model for ledger rows.
// Rows are append-only; the repository exposes no update or delete.
type WalletTransactionModel struct {
	BaseModel
	TenantID       uuid.UUID                `gorm:"type:uuid;not null;index:idx_wallet_tx_tenant_reseller,priority:1"`
	ResellerID     uuid.UUID                `gorm:"type:uuid;not null;index:idx_wallet_tx_tenant_reseller,priority:2"`
	Type           reseller.TransactionType `gorm:"type:varchar(30);not null;index"`
	Amount         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	BalanceBefore  decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	BalanceAfter   decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	CustomerID     *uuid.UUID               `gorm:"type:uuid;index"`
	FromResellerID *uuid.UUID               `gorm:"type:uuid"`
	ToResellerID   *uuid.UUID               `gorm:"type:uuid"`
	ReferenceType  string                   `gorm:"type:varchar(50)"`
	ReferenceID    *string                  `gorm:"type:varchar(100)"`
	IdempotencyKey *string                  `gorm:"type:varchar(200);uniqueIndex:idx_wallet_tx_idem,where:idempotency_key IS NOT NULL"`
	Description    string                   `gorm:"type:text"`
	OperatorID     *uuid.UUID               `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (WalletTransactionModel) TableName() string {
	return "wallet_transactions"
}

// ToDomain converts the persistence model to a domain WalletTransaction
func (m *WalletTransactionModel) ToDomain() *reseller.WalletTransaction {
	return &reseller.WalletTransaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:       m.TenantID,
		ResellerID:     m.ResellerID,
		Type:           m.Type,
		Amount:         m.Amount,
		BalanceBefore:  m.BalanceBefore,
		BalanceAfter:   m.BalanceAfter,
		CustomerID:     m.CustomerID,
		FromResellerID: m.FromResellerID,
		ToResellerID:   m.ToResellerID,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		IdempotencyKey: m.IdempotencyKey,
		Description:    m.Description,
		OperatorID:     m.OperatorID,
	}
}

// FromDomain populates the persistence model from a domain WalletTransaction
func (m *WalletTransactionModel) FromDomain(t *reseller.WalletTransaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.TenantID = t.TenantID
	m.ResellerID = t.ResellerID
	m.Type = t.Type
	m.Amount = t.Amount
	m.BalanceBefore = t.BalanceBefore
	m.BalanceAfter = t.BalanceAfter
	m.CustomerID = t.CustomerID
	m.FromResellerID = t.FromResellerID
	m.ToResellerID = t.ToResellerID
	m.ReferenceType = t.ReferenceType
	m.ReferenceID = t.ReferenceID
	m.IdempotencyKey = t.IdempotencyKey
	m.Description = t.Description
	m.OperatorID = t.OperatorID
}

// WalletTransactionModelFromDomain creates a new persistence model from a domain WalletTransaction
func WalletTransactionModelFromDomain(t *reseller.WalletTransaction) *WalletTransactionModel {
	m := &WalletTransactionModel{}
	m.FromDomain(t)
	return m
}
