package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:char(36);index;not null" json:"companyId"`
	FirstName string    `gorm:"size:120;not null" json:"firstName"`
	LastName  string    `gorm:"size:120;not null" json:"lastName"`
	Email     string    `gorm:"index;size:255" json:"email"`
	Mobile    string    `gorm:"size:20" json:"mobile"`
	Position  string    `gorm:"size:120" json:"position"`
	// VendorID is the identifier a biometric device assigns to this
	// employee; it has no relation to ID and is mapped manually during
	// device imports.
	VendorID string `gorm:"size:64;index" json:"vendorId"`
	// Salary is the monthly salary. PerMinuteRate is derived from it when
	// the employee is created or an increment is applied, using the
	// company's working-time settings.
	Salary        float64        `gorm:"type:decimal(12,2)" json:"salary"`
	PerMinuteRate float64        `gorm:"type:decimal(12,6)" json:"perMinuteRate"`
	HiredAt       time.Time      `json:"hiredAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
