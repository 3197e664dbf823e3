package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdvanceRequest struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:char(36);index;not null" json:"companyId"`
	EmployeeID uuid.UUID  `gorm:"type:char(36);index;not null" json:"employeeId"`
	Amount     float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Reason     string     `gorm:"size:500" json:"reason"`
	Status     string     `gorm:"size:20;index;not null;default:pending" json:"status"`
	ApproverID *uuid.UUID `gorm:"type:char(36)" json:"approverId,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (r *AdvanceRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
