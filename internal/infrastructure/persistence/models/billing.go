package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	TenantAggregateModel
	Name            string                 `gorm:"type:varchar(200);not null"`
	Phone           string                 `gorm:"type:varchar(50);index"`
	ResellerID      *uuid.UUID             `gorm:"type:uuid;index"`
	PackageID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	ExpiryDate      *time.Time             `gorm:"index"`
	MonthlyBill     decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	DueAmount       decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Status          billing.CustomerStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	LastPaymentDate *time.Time             `gorm:""`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *billing.Customer {
	c := &billing.Customer{
		Name:            m.Name,
		Phone:           m.Phone,
		ResellerID:      m.ResellerID,
		PackageID:       m.PackageID,
		ExpiryDate:      m.ExpiryDate,
		MonthlyBill:     m.MonthlyBill,
		DueAmount:       m.DueAmount,
		Status:          m.Status,
		LastPaymentDate: m.LastPaymentDate,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *billing.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Name = c.Name
	m.Phone = c.Phone
	m.ResellerID = c.ResellerID
	m.PackageID = c.PackageID
	m.ExpiryDate = c.ExpiryDate
	m.MonthlyBill = c.MonthlyBill
	m.DueAmount = c.DueAmount
	m.Status = c.Status
	m.LastPaymentDate = c.LastPaymentDate
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *billing.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// ServicePackageModel is the persistence model for the ServicePackage aggregate
type ServicePackageModel struct {
	TenantAggregateModel
	Name         string          `gorm:"type:varchar(200);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ValidityDays int             `gorm:"not null;default:30"`
	IsActive     bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ServicePackageModel) TableName() string {
	return "service_packages"
}

// ToDomain converts the persistence model to a domain ServicePackage
func (m *ServicePackageModel) ToDomain() *billing.ServicePackage {
	p := &billing.ServicePackage{
		Name:         m.Name,
		Price:        m.Price,
		ValidityDays: m.ValidityDays,
		IsActive:     m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain ServicePackage
func (m *ServicePackageModel) FromDomain(p *billing.ServicePackage) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Name = p.Name
	m.Price = p.Price
	m.ValidityDays = p.ValidityDays
	m.IsActive = p.IsActive
}

// ServicePackageModelFromDomain creates a new persistence model from a domain ServicePackage
func ServicePackageModelFromDomain(p *billing.ServicePackage) *ServicePackageModel {
	m := &ServicePackageModel{}
	m.FromDomain(p)
	return m
}

// BillingRecordModel is the persistence model for customer billing history rows
type BillingRecordModel struct {
	BaseModel
	TenantID        uuid.UUID                 `gorm:"type:uuid;not null;index:idx_billing_record_tenant_customer,priority:1"`
	CustomerID      uuid.UUID                 `gorm:"type:uuid;not null;index:idx_billing_record_tenant_customer,priority:2"`
	Type            billing.BillingRecordType `gorm:"type:varchar(20);not null"`
	Amount          decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Months          int                       `gorm:"not null;default:0"`
	PaymentMethod   string                    `gorm:"type:varchar(50)"`
	Discount        decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Notes           string                    `gorm:"type:text"`
	CollectedByType string                    `gorm:"type:varchar(30)"`
	CollectedByName string                    `gorm:"type:varchar(200)"`
	CollectionID    *uuid.UUID                `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (BillingRecordModel) TableName() string {
	return "customer_billing_records"
}

// ToDomain converts the persistence model to a domain BillingRecord
func (m *BillingRecordModel) ToDomain() *billing.BillingRecord {
	return &billing.BillingRecord{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TenantID:        m.TenantID,
		CustomerID:      m.CustomerID,
		Type:            m.Type,
		Amount:          m.Amount,
		Months:          m.Months,
		PaymentMethod:   m.PaymentMethod,
		Discount:        m.Discount,
		Notes:           m.Notes,
		CollectedByType: m.CollectedByType,
		CollectedByName: m.CollectedByName,
		CollectionID:    m.CollectionID,
	}
}

// FromDomain populates the persistence model from a domain BillingRecord
func (m *BillingRecordModel) FromDomain(r *billing.BillingRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	m.CustomerID = r.CustomerID
	m.Type = r.Type
	m.Amount = r.Amount
	m.Months = r.Months
	m.PaymentMethod = r.PaymentMethod
	m.Discount = r.Discount
	m.Notes = r.Notes
	m.CollectedByType = r.CollectedByType
	m.CollectedByName = r.CollectedByName
	m.CollectionID = r.CollectionID
}

// BillingRecordModelFromDomain creates a new persistence model from a domain BillingRecord
func BillingRecordModelFromDomain(r *billing.BillingRecord) *BillingRecordModel {
	m := &BillingRecordModel{}
	m.FromDomain(r)
	return m
}

// CollectionModel is the persistence model for batch collection headers
type CollectionModel struct {
	TenantAggregateModel
	PaymentMethod  string          `gorm:"type:varchar(50);not null"`
	Notes          string          `gorm:"type:text"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ItemCount      int             `gorm:"not null;default:0"`
	SucceededCount int             `gorm:"not null;default:0"`
	FailedCount    int             `gorm:"not null;default:0"`
	CompletedAt    *time.Time      `gorm:""`
}

// TableName returns the table name for GORM
func (CollectionModel) TableName() string {
	return "collections"
}

// ToDomain converts the persistence model to a domain Collection
func (m *CollectionModel) ToDomain() *billing.Collection {
	c := &billing.Collection{
		PaymentMethod:  m.PaymentMethod,
		Notes:          m.Notes,
		TotalAmount:    m.TotalAmount,
		ItemCount:      m.ItemCount,
		SucceededCount: m.SucceededCount,
		FailedCount:    m.FailedCount,
		CompletedAt:    m.CompletedAt,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Collection
func (m *CollectionModel) FromDomain(c *billing.Collection) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.PaymentMethod = c.PaymentMethod
	m.Notes = c.Notes
	m.TotalAmount = c.TotalAmount
	m.ItemCount = c.ItemCount
	m.SucceededCount = c.SucceededCount
	m.FailedCount = c.FailedCount
	m.CompletedAt = c.CompletedAt
}

// CollectionModelFromDomain creates a new persistence model from a domain Collection
func CollectionModelFromDomain(c *billing.Collection) *CollectionModel {
	m := &CollectionModel{}
	m.FromDomain(c)
	return m
}
