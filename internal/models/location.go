package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationSession is one employee tracking session. Samples are append-only;
// a duplicate forwarded sample is harmless.
type LocationSession struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:char(36);index;not null" json:"companyId"`
	EmployeeID uuid.UUID  `gorm:"type:char(36);index;not null" json:"employeeId"`
	StartTime  time.Time  `gorm:"not null" json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (s *LocationSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type LocationSample struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  uuid.UUID `gorm:"type:char(36);index;not null" json:"sessionId"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	Accuracy   float64   `json:"accuracy"`
	RecordedAt time.Time `gorm:"not null" json:"recordedAt"`
}
