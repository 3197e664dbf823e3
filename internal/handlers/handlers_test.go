package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hrms-backend/internal/config"
	"hrms-backend/internal/db"
	"hrms-backend/internal/middleware"
	"hrms-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCounter int

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	testCounter++
	dsn := fmt.Sprintf("file:handlers_%s_%d?mode=memory&cache=shared", t.Name(), testCounter)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:           "test",
		JwtSecret:        "test-secret",
		JwtAccessMinutes: 15,
		JwtRefreshHours:  168,
		OtpMinutes:       10,
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// actAs injects the auth context the middleware would normally derive from
// a bearer token.
func actAs(role string, companyID uuid.UUID, userID uuid.UUID, employeeID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID.String())
		c.Set(middleware.ContextRole, role)
		if companyID != uuid.Nil {
			c.Set(middleware.ContextCompanyID, companyID.String())
		}
		if employeeID != uuid.Nil {
			c.Set(middleware.ContextEmployeeID, employeeID.String())
		}
		c.Next()
	}
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func seedCompany(t *testing.T, database *gorm.DB, name string) models.Company {
	t.Helper()
	company := models.Company{Name: name, Status: models.CompanyStatusActive, InvoicingEnabled: true}
	if err := database.Create(&company).Error; err != nil {
		t.Fatalf("seed company: %v", err)
	}
	setting := models.CompanySetting{
		CompanyID:   company.ID,
		WorkStart:   "09:00",
		WorkEnd:     "17:00",
		WorkingDays: "1,2,3,4,5",
		Currency:    "USD",
	}
	if err := database.Create(&setting).Error; err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	return company
}

func seedEmployee(t *testing.T, database *gorm.DB, companyID uuid.UUID, first string, rate float64) models.Employee {
	t.Helper()
	employee := models.Employee{
		CompanyID:     companyID,
		FirstName:     first,
		LastName:      "Doe",
		Email:         first + "@example.com",
		Salary:        5000,
		PerMinuteRate: rate,
	}
	if err := database.Create(&employee).Error; err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return employee
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
