package db

import (
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

// BootstrapSuperAdmin guarantees that at least one super admin account
// exists so a fresh deployment can be logged into.
func BootstrapSuperAdmin(database *gorm.DB, mobile string) error {
	var count int64
	err := database.Model(&models.User{}).
		Where("role = ?", models.RoleSuperAdmin).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := models.User{
		Mobile: mobile,
		Name:   "Super Admin",
		Role:   models.RoleSuperAdmin,
	}
	return database.Create(&admin).Error
}
