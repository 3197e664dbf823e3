package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	IncrementStatusPending  = "pending"
	IncrementStatusApplied  = "applied"
	IncrementStatusRejected = "rejected"
)

// SalaryIncrement raises an employee's monthly salary by Amount once
// approved. Applying it also refreshes the employee's per-minute rate.
type SalaryIncrement struct {
	ID            uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID     uuid.UUID  `gorm:"type:char(36);index;not null" json:"companyId"`
	EmployeeID    uuid.UUID  `gorm:"type:char(36);index;not null" json:"employeeId"`
	Amount        float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	EffectiveFrom time.Time  `gorm:"type:date;not null" json:"effectiveFrom"`
	Note          string     `gorm:"size:500" json:"note"`
	Status        string     `gorm:"size:20;index;not null;default:pending" json:"status"`
	AppliedAt     *time.Time `json:"appliedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (i *SalaryIncrement) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
