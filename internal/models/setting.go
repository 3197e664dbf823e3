package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanySetting holds working-time configuration and branding for one
// company. WorkingDays is a comma list of time.Weekday numbers (0=Sunday).
type CompanySetting struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID   uuid.UUID `gorm:"type:char(36);uniqueIndex;not null" json:"companyId"`
	WorkStart   string    `gorm:"size:5;not null;default:'09:00'" json:"workStart"`
	WorkEnd     string    `gorm:"size:5;not null;default:'18:00'" json:"workEnd"`
	WorkingDays string    `gorm:"size:20;not null;default:'1,2,3,4,5'" json:"workingDays"`
	Currency    string    `gorm:"size:10;not null;default:'USD'" json:"currency"`
	LogoImage   []byte    `gorm:"type:longblob" json:"-"`
	LogoMime    string    `gorm:"size:50" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *CompanySetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Holiday struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:char(36);index;not null" json:"companyId"`
	Date      time.Time `gorm:"type:date;index;not null" json:"date"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Holiday) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
