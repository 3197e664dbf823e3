package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductCategory struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:char(36);index;not null" json:"companyId"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

func (c *ProductCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID          uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID   uuid.UUID      `gorm:"type:char(36);index;not null" json:"companyId"`
	CategoryID  *uuid.UUID     `gorm:"type:char(36);index" json:"categoryId,omitempty"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	SKU         string         `gorm:"size:100" json:"sku"`
	Unit        string         `gorm:"size:50" json:"unit"`
	Price       float64        `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
