package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin       = "admin"
	RoleManager     = "manager"
	RoleAccountant  = "accountant"
	RoleEmployee    = "employee"
	RoleStaffMember = "staff_member"
	RoleSuperAdmin  = "super_admin"
)

// User is an account that can log in via OTP. One mobile number may map to
// several accounts with different roles, which is why Mobile carries a plain
// index and login disambiguates by role.
type User struct {
	ID         uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	CompanyID  *uuid.UUID `gorm:"type:char(36);index" json:"companyId,omitempty"`
	Mobile     string     `gorm:"index;size:20;not null" json:"mobile"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Role       string     `gorm:"size:50;not null" json:"role"`
	EmployeeID *uuid.UUID `gorm:"type:char(36);index" json:"employeeId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
