package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

type LeaveRequest struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:char(36);index;not null" json:"companyId"`
	EmployeeID uuid.UUID  `gorm:"type:char(36);index;not null" json:"employeeId"`
	StartDate  time.Time  `gorm:"type:date;index;not null" json:"startDate"`
	EndDate    time.Time  `gorm:"type:date;index;not null" json:"endDate"`
	Days       float64    `gorm:"type:decimal(6,2);not null" json:"days"`
	Reason     string     `gorm:"size:500" json:"reason"`
	Status     string     `gorm:"size:20;index;not null;default:pending" json:"status"`
	ApproverID *uuid.UUID `gorm:"type:char(36)" json:"approverId,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (r *LeaveRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
