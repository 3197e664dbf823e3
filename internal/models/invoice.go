package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
)

type Invoice struct {
	ID         uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID  uuid.UUID      `gorm:"type:char(36);index;not null" json:"companyId"`
	CustomerID uuid.UUID      `gorm:"type:char(36);index;not null" json:"customerId"`
	Number     string         `gorm:"size:100;index;not null" json:"number"`
	Amount     float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status     string         `gorm:"size:20;index;not null;default:draft" json:"status"`
	IssuedAt   time.Time      `json:"issuedAt"`
	DueAt      time.Time      `json:"dueAt"`
	Items      []InvoiceItem  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type InvoiceItem struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	InvoiceID   uuid.UUID  `gorm:"type:char(36);index;not null" json:"invoiceId"`
	ProductID   *uuid.UUID `gorm:"type:char(36)" json:"productId,omitempty"`
	Description string     `gorm:"size:500" json:"description"`
	Quantity    float64    `gorm:"type:decimal(10,2);not null" json:"quantity"`
	UnitPrice   float64    `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	Amount      float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
