package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
	"hrms-backend/internal/utils"
)

type EmployeeHandler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewEmployeeHandler(db *gorm.DB, log zerolog.Logger) *EmployeeHandler {
	return &EmployeeHandler{DB: db, Log: log.With().Str("handler", "employee").Logger()}
}

type employeeRequest struct {
	FirstName string  `json:"firstName" binding:"required"`
	LastName  string  `json:"lastName" binding:"required"`
	Email     string  `json:"email"`
	Mobile    string  `json:"mobile"`
	Position  string  `json:"position"`
	VendorID  string  `json:"vendorId"`
	Salary    float64 `json:"salary"`
	HiredAt   string  `json:"hiredAt" binding:"required"`
}

type employeeView struct {
	models.Employee
	PendingIncrements []models.SalaryIncrement `json:"pendingIncrements,omitempty"`
}

func (h *EmployeeHandler) List(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	query := h.DB.Where("company_id = ?", companyID).Order("created_at desc")
	if c.Query("include_deleted") == "true" {
		query = query.Unscoped()
	}

	var employees []models.Employee
	if err := query.Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load employees"})
		return
	}

	if c.Query("include_pending_increments") != "true" {
		c.JSON(http.StatusOK, employees)
		return
	}

	views := make([]employeeView, 0, len(employees))
	for _, employee := range employees {
		view := employeeView{Employee: employee}
		_ = h.DB.Where("employee_id = ? AND status = ?", employee.ID, models.IncrementStatusPending).
			Order("created_at desc").Find(&view.PendingIncrements).Error
		views = append(views, view)
	}
	c.JSON(http.StatusOK, views)
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	employee, status, message := h.buildEmployee(companyID, req)
	if message != "" {
		c.JSON(status, gin.H{"error": message})
		return
	}

	if err := h.DB.Create(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, employee)
}

func (h *EmployeeHandler) buildEmployee(companyID uuid.UUID, req employeeRequest) (models.Employee, int, string) {
	hiredAt, err := parseDate(req.HiredAt)
	if err != nil {
		return models.Employee{}, http.StatusBadRequest, "invalid hiredAt"
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" {
		var existing models.Employee
		if err := h.DB.Where("company_id = ? AND email = ?", companyID, email).First(&existing).Error; err == nil {
			return models.Employee{}, http.StatusConflict, "email already exists"
		}
	}

	employee := models.Employee{
		CompanyID: companyID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
		Mobile:    strings.TrimSpace(req.Mobile),
		Position:  strings.TrimSpace(req.Position),
		VendorID:  strings.TrimSpace(req.VendorID),
		Salary:    req.Salary,
		HiredAt:   hiredAt,
	}
	employee.PerMinuteRate = h.perMinuteRate(companyID, req.Salary)
	return employee, 0, ""
}

// perMinuteRate derives the accrual rate from company settings for the
// current month. Missing settings fall back to zero, which excludes the
// employee from live-earnings extrapolation.
func (h *EmployeeHandler) perMinuteRate(companyID uuid.UUID, salary float64) float64 {
	var setting models.CompanySetting
	if err := h.DB.Where("company_id = ?", companyID).First(&setting).Error; err != nil {
		return 0
	}

	now := time.Now()
	workingDays := utils.WorkingDaysInMonth(now.Year(), now.Month(),
		utils.ParseWorkingDays(setting.WorkingDays), h.holidaySet(companyID, now.Year(), now.Month()))
	rate, err := utils.PerMinuteRate(salary, setting.WorkStart, setting.WorkEnd, workingDays)
	if err != nil {
		return 0
	}
	return rate
}

func (h *EmployeeHandler) holidaySet(companyID uuid.UUID, year int, month time.Month) map[string]bool {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var holidays []models.Holiday
	_ = h.DB.Where("company_id = ? AND date >= ? AND date < ?", companyID, start, end).Find(&holidays).Error

	set := map[string]bool{}
	for _, holiday := range holidays {
		set[holiday.Date.Format("2006-01-02")] = true
	}
	return set
}

func (h *EmployeeHandler) Update(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	var employee models.Employee
	if err := h.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	hiredAt, err := parseDate(req.HiredAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hiredAt"})
		return
	}

	employee.FirstName = strings.TrimSpace(req.FirstName)
	employee.LastName = strings.TrimSpace(req.LastName)
	employee.Email = strings.ToLower(strings.TrimSpace(req.Email))
	employee.Mobile = strings.TrimSpace(req.Mobile)
	employee.Position = strings.TrimSpace(req.Position)
	employee.VendorID = strings.TrimSpace(req.VendorID)
	employee.HiredAt = hiredAt
	if req.Salary != employee.Salary {
		employee.Salary = req.Salary
		employee.PerMinuteRate = h.perMinuteRate(companyID, req.Salary)
	}

	if err := h.DB.Save(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, employee)
}

func (h *EmployeeHandler) Delete(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Where("company_id = ?", companyID).Delete(&models.Employee{}, "id = ?", employeeID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *EmployeeHandler) Reactivate(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Unscoped().Model(&models.Employee{}).
		Where("id = ? AND company_id = ? AND deleted_at IS NOT NULL", employeeID, companyID).
		Update("deleted_at", nil)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reactivate failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "deleted employee not found"})
		return
	}

	var employee models.Employee
	if err := h.DB.First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reactivate failed"})
		return
	}
	c.JSON(http.StatusOK, employee)
}

type bulkImportRequest struct {
	Employees []employeeRequest `json:"employees" binding:"required"`
}

type bulkImportError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BulkImport creates employees row by row and reports a partial-success
// shape; failed rows are returned with their index so a client can retry
// only those after correction.
func (h *EmployeeHandler) BulkImport(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req bulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Employees) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	imported := 0
	importErrors := []bulkImportError{}
	for index, row := range req.Employees {
		if strings.TrimSpace(row.FirstName) == "" || strings.TrimSpace(row.LastName) == "" {
			importErrors = append(importErrors, bulkImportError{Index: index, Error: "first and last name required"})
			continue
		}
		employee, _, message := h.buildEmployee(companyID, row)
		if message != "" {
			importErrors = append(importErrors, bulkImportError{Index: index, Error: message})
			continue
		}
		if err := h.DB.Create(&employee).Error; err != nil {
			importErrors = append(importErrors, bulkImportError{Index: index, Error: "create failed"})
			continue
		}
		imported++
	}

	h.Log.Info().Int("imported", imported).Int("failed", len(importErrors)).Msg("employee bulk import")
	c.JSON(http.StatusOK, gin.H{"imported": imported, "errors": importErrors})
}

func (h *EmployeeHandler) ListIncrements(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var increments []models.SalaryIncrement
	if err := h.DB.Where("company_id = ? AND employee_id = ?", companyID, employeeID).
		Order("created_at desc").Find(&increments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load increments"})
		return
	}
	c.JSON(http.StatusOK, increments)
}
