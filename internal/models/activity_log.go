package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog records mutating API calls per company for the audit screen.
type ActivityLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CompanyID    *uuid.UUID `gorm:"type:char(36);index" json:"companyId,omitempty"`
	UserID       *uuid.UUID `gorm:"type:char(36);index" json:"userId,omitempty"`
	Role         string     `gorm:"size:50" json:"role"`
	Method       string     `gorm:"size:10;not null" json:"method"`
	Path         string     `gorm:"size:500;not null" json:"path"`
	StatusCode   int        `json:"statusCode"`
	Impersonated bool       `json:"impersonated"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
}
