package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttendancePresent        = "present"
	AttendanceLeave          = "leave"
	AttendanceHalfDay        = "half_day"
	AttendanceAllowedLeave   = "allowed_leave"
	AttendanceAllowedHalfDay = "allowed_half_day"
	AttendanceAbsent         = "absent"
)

const (
	AttendanceSourceManual = "manual"
	AttendanceSourceDevice = "device"
	AttendanceSourceMobile = "mobile"
)

func ValidAttendanceStatus(status string) bool {
	switch status {
	case AttendancePresent, AttendanceLeave, AttendanceHalfDay,
		AttendanceAllowedLeave, AttendanceAllowedHalfDay, AttendanceAbsent:
		return true
	}
	return false
}

type Attendance struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID  uuid.UUID  `gorm:"type:char(36);index;not null" json:"companyId"`
	EmployeeID uuid.UUID  `gorm:"type:char(36);index;not null" json:"employeeId"`
	Date       time.Time  `gorm:"type:date;index;not null" json:"date"`
	Status     string     `gorm:"size:30;index;not null" json:"status"`
	CheckIn    *time.Time `json:"checkIn,omitempty"`
	CheckOut   *time.Time `json:"checkOut,omitempty"`
	// Earnings is the authoritative accrued amount for the day, recomputed
	// from PerMinuteRate whenever the record is served.
	Earnings float64 `gorm:"type:decimal(12,2)" json:"earnings"`
	Source   string  `gorm:"size:20;not null;default:manual" json:"source"`
	// GPS fix captured when attendance was marked from a mobile device.
	Latitude  *float64       `json:"latitude,omitempty"`
	Longitude *float64       `json:"longitude,omitempty"`
	Accuracy  *float64       `json:"accuracy,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt,omitempty"`
}

func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
