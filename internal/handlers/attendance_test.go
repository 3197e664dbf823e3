package handlers

import (
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

func attendanceRouter(database *gorm.DB, role string, companyID, employeeID uuid.UUID) *gin.Engine {
	handler := NewAttendanceHandler(database, testLogger())
	router := gin.New()
	router.Use(actAs(role, companyID, uuid.New(), employeeID))
	router.GET("/attendance", handler.List)
	router.POST("/attendance", handler.Create)
	router.POST("/attendance/bulk", handler.BulkSave)
	router.PUT("/attendance/:id", handler.Update)
	router.DELETE("/attendance/:id", handler.Delete)
	router.GET("/attendance/history/:employeeId", handler.History)
	router.POST("/attendance/checkin", handler.CheckIn)
	router.POST("/attendance/checkout", handler.CheckOut)
	return router
}

func TestAttendanceCreateAndDuplicate(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	employee := seedEmployee(t, database, company.ID, "ann", 0.5)
	router := attendanceRouter(database, models.RoleAdmin, company.ID, uuid.Nil)

	body := map[string]interface{}{
		"employeeId": employee.ID.String(),
		"date":       "2026-03-02",
		"status":     "present",
		"checkIn":    "09:00",
		"checkOut":   "17:00",
	}
	rec := doJSON(t, router, http.MethodPost, "/attendance", body)
	expectStatus(t, rec, http.StatusCreated)

	var created models.Attendance
	decodeBody(t, rec, &created)
	// 8 hours at 0.5 per minute.
	if math.Abs(created.Earnings-240) > 0.01 {
		t.Errorf("expected earnings 240, got %v", created.Earnings)
	}

	rec = doJSON(t, router, http.MethodPost, "/attendance", body)
	expectStatus(t, rec, http.StatusConflict)
}

func TestAttendanceRejectsCheckOutBeforeCheckIn(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	employee := seedEmployee(t, database, company.ID, "ann", 0.5)
	router := attendanceRouter(database, models.RoleAdmin, company.ID, uuid.Nil)

	rec := doJSON(t, router, http.MethodPost, "/attendance", map[string]interface{}{
		"employeeId": employee.ID.String(),
		"date":       "2026-03-02",
		"status":     "present",
		"checkIn":    "17:00",
		"checkOut":   "09:00",
	})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestAttendanceRejectsUnknownStatus(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	employee := seedEmployee(t, database, company.ID, "ann", 0.5)
	router := attendanceRouter(database, models.RoleAdmin, company.ID, uuid.Nil)

	rec := doJSON(t, router, http.MethodPost, "/attendance", map[string]interface{}{
		"employeeId": employee.ID.String(),
		"date":       "2026-03-02",
		"status":     "vacationing",
	})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestMobileCheckInCheckOut(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	employee := seedEmployee(t, database, company.ID, "ann", 0.5)
	router := attendanceRouter(database, models.RoleEmployee, company.ID, employee.ID)

	rec := doJSON(t, router, http.MethodPost, "/attendance/checkin", nil)
	expectStatus(t, rec, http.StatusCreated)

	var record models.Attendance
	decodeBody(t, rec, &record)
	if record.CheckIn == nil || record.Source != models.AttendanceSourceMobile {
		t.Fatalf("expected a mobile check-in record, got %+v", record)
	}

	// A second check-in the same day conflicts.
	rec = doJSON(t, router, http.MethodPost, "/attendance/checkin", nil)
	expectStatus(t, rec, http.StatusConflict)

	rec = doJSON(t, router, http.MethodPost, "/attendance/checkout", nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &record)
	if record.CheckOut == nil {
		t.Fatal("expected checkout to close the record")
	}

	// Nothing left open to check out of.
	rec = doJSON(t, router, http.MethodPost, "/attendance/checkout", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestOpenRecordEarningsGrowOnRead(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	employee := seedEmployee(t, database, company.ID, "ann", 1.0)

	checkIn := time.Now().Add(-30 * time.Minute)
	record := models.Attendance{
		CompanyID:  company.ID,
		EmployeeID: employee.ID,
		Date:       dayOf(checkIn),
		Status:     models.AttendancePresent,
		CheckIn:    &checkIn,
		Source:     models.AttendanceSourceMobile,
	}
	if err := database.Create(&record).Error; err != nil {
		t.Fatal(err)
	}

	router := attendanceRouter(database, models.RoleAdmin, company.ID, uuid.Nil)
	rec := doJSON(t, router, http.MethodGet, "/attendance", nil)
	expectStatus(t, rec, http.StatusOK)

	var listed []models.Attendance
	decodeBody(t, rec, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected 1 record, got %d", len(listed))
	}
	// 30 minutes at rate 1.0; allow slack for test runtime.
	if listed[0].Earnings < 29.5 || listed[0].Earnings > 31 {
		t.Errorf("expected roughly 30 in accrued earnings, got %v", listed[0].Earnings)
	}
}

func TestEmployeeSeesOnlyOwnAttendance(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	ann := seedEmployee(t, database, company.ID, "ann", 0.5)
	bob := seedEmployee(t, database, company.ID, "bob", 0.5)

	date, _ := parseDate("2026-03-02")
	for _, employee := range []models.Employee{ann, bob} {
		record := models.Attendance{
			CompanyID:  company.ID,
			EmployeeID: employee.ID,
			Date:       date,
			Status:     models.AttendancePresent,
			Source:     models.AttendanceSourceManual,
		}
		if err := database.Create(&record).Error; err != nil {
			t.Fatal(err)
		}
	}

	router := attendanceRouter(database, models.RoleEmployee, company.ID, ann.ID)
	rec := doJSON(t, router, http.MethodGet, "/attendance", nil)
	expectStatus(t, rec, http.StatusOK)

	var listed []models.Attendance
	decodeBody(t, rec, &listed)
	if len(listed) != 1 || listed[0].EmployeeID != ann.ID {
		t.Fatalf("employees must only see their own records, got %v", listed)
	}
}

func TestAttendanceBulkSavePartialSuccess(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	ann := seedEmployee(t, database, company.ID, "ann", 0.5)
	bob := seedEmployee(t, database, company.ID, "bob", 0.5)
	router := attendanceRouter(database, models.RoleAdmin, company.ID, uuid.Nil)

	// Ann already has a record for the day, so her row must fail.
	date, _ := parseDate("2026-03-02")
	existing := models.Attendance{
		CompanyID:  company.ID,
		EmployeeID: ann.ID,
		Date:       date,
		Status:     models.AttendancePresent,
		Source:     models.AttendanceSourceManual,
	}
	if err := database.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, router, http.MethodPost, "/attendance/bulk", map[string]interface{}{
		"date": "2026-03-02",
		"entries": []map[string]interface{}{
			{"employeeId": ann.ID.String(), "status": "present"},
			{"employeeId": bob.ID.String(), "status": "present", "checkIn": "09:00", "checkOut": "17:00"},
		},
	})
	expectStatus(t, rec, http.StatusOK)

	var result struct {
		Saved  int `json:"saved"`
		Errors []struct {
			Index int    `json:"index"`
			Error string `json:"error"`
		} `json:"errors"`
	}
	decodeBody(t, rec, &result)
	if result.Saved != 1 {
		t.Errorf("expected 1 saved row, got %d", result.Saved)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 0 {
		t.Fatalf("expected the duplicate row reported at index 0, got %+v", result.Errors)
	}

	var count int64
	database.Model(&models.Attendance{}).Where("company_id = ?", company.ID).Count(&count)
	if count != 2 {
		t.Errorf("expected 2 attendance rows after bulk save, got %d", count)
	}
}

func TestAttendanceHistoryPerEmployee(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	ann := seedEmployee(t, database, company.ID, "ann", 0.5)
	bob := seedEmployee(t, database, company.ID, "bob", 0.5)

	seeds := []struct {
		day      string
		employee models.Employee
	}{
		{"2026-03-02", ann},
		{"2026-03-03", ann},
		{"2026-03-02", bob},
	}
	for _, seed := range seeds {
		date, _ := parseDate(seed.day)
		record := models.Attendance{
			CompanyID:  company.ID,
			EmployeeID: seed.employee.ID,
			Date:       date,
			Status:     models.AttendancePresent,
			Source:     models.AttendanceSourceManual,
		}
		if err := database.Create(&record).Error; err != nil {
			t.Fatal(err)
		}
	}

	router := attendanceRouter(database, models.RoleAdmin, company.ID, uuid.Nil)
	rec := doJSON(t, router, http.MethodGet, "/attendance/history/"+ann.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)

	var history []models.Attendance
	decodeBody(t, rec, &history)
	if len(history) != 2 {
		t.Fatalf("expected ann's 2 records, got %d", len(history))
	}
	for _, record := range history {
		if record.EmployeeID != ann.ID {
			t.Fatalf("history leaked another employee's record: %v", record)
		}
	}
	if history[0].Date.Before(history[1].Date) {
		t.Error("history must be ordered newest first")
	}

	// An employee can only read their own history.
	asBob := attendanceRouter(database, models.RoleEmployee, company.ID, bob.ID)
	expectStatus(t, doJSON(t, asBob, http.MethodGet, "/attendance/history/"+ann.ID.String(), nil), http.StatusForbidden)
	expectStatus(t, doJSON(t, asBob, http.MethodGet, "/attendance/history/"+bob.ID.String(), nil), http.StatusOK)
}
