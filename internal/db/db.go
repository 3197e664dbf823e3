package db

import (
	"hrms-backend/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func Open(dsn string) (*gorm.DB, error) {
	database, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(database); err != nil {
		return nil, err
	}

	return database, nil
}

func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.Company{},
		&models.SMSGateway{},
		&models.CompanySetting{},
		&models.Holiday{},
		&models.User{},
		&models.OTP{},
		&models.RefreshToken{},
		&models.Employee{},
		&models.SalaryIncrement{},
		&models.Attendance{},
		&models.LocationSession{},
		&models.LocationSample{},
		&models.LeaveRequest{},
		&models.AdvanceRequest{},
		&models.Customer{},
		&models.ProductCategory{},
		&models.Product{},
		&models.Estimate{},
		&models.EstimateItem{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.ActivityLog{},
	)
}
