package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)

type Company struct {
	ID               uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Email            string    `gorm:"size:255" json:"email"`
	Phone            string    `gorm:"size:20" json:"phone"`
	Address          string    `gorm:"size:500" json:"address"`
	Status           string    `gorm:"size:20;not null;default:active" json:"status"`
	InvoicingEnabled bool      `gorm:"not null;default:false" json:"invoicingEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (co *Company) BeforeCreate(tx *gorm.DB) error {
	if co.ID == uuid.Nil {
		co.ID = uuid.New()
	}
	return nil
}

// SMSGateway holds a tenant's own OTP delivery endpoint. When no enabled
// gateway exists the server falls back to the globally configured one.
type SMSGateway struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:char(36);uniqueIndex;not null" json:"companyId"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	APIKey    string    `gorm:"size:255" json:"-"`
	SenderID  string    `gorm:"size:50" json:"senderId"`
	Enabled   bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (g *SMSGateway) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
