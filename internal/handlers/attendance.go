package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

type AttendanceHandler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewAttendanceHandler(db *gorm.DB, log zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{DB: db, Log: log.With().Str("handler", "attendance").Logger()}
}

type attendanceRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Status     string `json:"status" binding:"required"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
}

type attendanceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Coordinates bind through pointers so an exact 0.0 still counts as present.
type markWithLocationRequest struct {
	Status    string   `json:"status" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Accuracy  float64  `json:"accuracy"`
}

// refreshEarnings recomputes accrued pay for records still in progress so a
// served snapshot is authoritative at fetch time. Completed records keep the
// amount stored at checkout.
func (h *AttendanceHandler) refreshEarnings(records []models.Attendance) {
	rates := map[uuid.UUID]float64{}
	now := time.Now()
	for i := range records {
		record := &records[i]
		if record.CheckIn == nil || record.CheckOut != nil {
			continue
		}
		rate, ok := rates[record.EmployeeID]
		if !ok {
			var employee models.Employee
			if err := h.DB.Select("per_minute_rate").First(&employee, "id = ?", record.EmployeeID).Error; err != nil {
				continue
			}
			rate = employee.PerMinuteRate
			rates[record.EmployeeID] = rate
		}
		if rate <= 0 {
			continue
		}
		record.Earnings = earningsBetween(*record.CheckIn, now, rate)
	}
}

func earningsBetween(checkIn, until time.Time, perMinuteRate float64) float64 {
	if until.Before(checkIn) {
		return 0
	}
	return until.Sub(checkIn).Minutes() * perMinuteRate
}

func (h *AttendanceHandler) List(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	query := h.DB.Where("company_id = ?", companyID)

	if contextRole(c) == models.RoleEmployee {
		employeeID, ok := contextEmployeeID(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		query = query.Where("employee_id = ?", employeeID)
	} else if raw := c.Query("employee_id"); raw != "" {
		employeeID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee_id"})
			return
		}
		query = query.Where("employee_id = ?", employeeID)
	}

	if raw := c.Query("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		query = query.Where("date = ?", date)
	}
	if raw := c.Query("from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
		query = query.Where("date >= ?", from)
	}
	if raw := c.Query("to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
		query = query.Where("date <= ?", to)
	}

	var records []models.Attendance
	if err := query.Order("date desc, created_at desc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load attendance"})
		return
	}

	h.refreshEarnings(records)
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) Create(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	record, status, message := h.buildRecord(companyID, req, models.AttendanceSourceManual)
	if message != "" {
		c.JSON(status, gin.H{"error": message})
		return
	}

	var existing models.Attendance
	if err := h.DB.Where("company_id = ? AND employee_id = ? AND date = ?",
		companyID, record.EmployeeID, record.Date).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "attendance exists for this date"})
		return
	}

	if err := h.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, record)
}

type bulkSaveEntry struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Status     string `json:"status" binding:"required"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
}

type bulkSaveRequest struct {
	Date    string          `json:"date" binding:"required"`
	Entries []bulkSaveEntry `json:"entries" binding:"required,min=1,dive"`
}

// BulkSave records one day's attendance for many employees at once. Rows
// are created individually; entries that already have a record for the day
// come back as errors with their index, the rest are saved.
func (h *AttendanceHandler) BulkSave(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req bulkSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if _, err := parseDate(req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	saved := 0
	saveErrors := []bulkImportError{}
	for index, entry := range req.Entries {
		record, _, message := h.buildRecord(companyID, attendanceRequest{
			EmployeeID: entry.EmployeeID,
			Date:       req.Date,
			Status:     entry.Status,
			CheckIn:    entry.CheckIn,
			CheckOut:   entry.CheckOut,
		}, models.AttendanceSourceManual)
		if message != "" {
			saveErrors = append(saveErrors, bulkImportError{Index: index, Error: message})
			continue
		}
		var existing models.Attendance
		if err := h.DB.Where("company_id = ? AND employee_id = ? AND date = ?",
			companyID, record.EmployeeID, record.Date).First(&existing).Error; err == nil {
			saveErrors = append(saveErrors, bulkImportError{Index: index, Error: "attendance exists for this date"})
			continue
		}
		if err := h.DB.Create(&record).Error; err != nil {
			saveErrors = append(saveErrors, bulkImportError{Index: index, Error: "create failed"})
			continue
		}
		saved++
	}

	h.Log.Info().Int("saved", saved).Int("failed", len(saveErrors)).Msg("attendance bulk save")
	c.JSON(http.StatusOK, gin.H{"saved": saved, "errors": saveErrors})
}

func (h *AttendanceHandler) buildRecord(companyID uuid.UUID, req attendanceRequest, source string) (models.Attendance, int, string) {
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return models.Attendance{}, http.StatusBadRequest, "invalid employeeId"
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return models.Attendance{}, http.StatusBadRequest, "invalid date"
	}
	if !models.ValidAttendanceStatus(req.Status) {
		return models.Attendance{}, http.StatusBadRequest, "invalid status"
	}

	var employee models.Employee
	if err := h.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", employeeID).Error; err != nil {
		return models.Attendance{}, http.StatusNotFound, "employee not found"
	}

	record := models.Attendance{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       date,
		Status:     req.Status,
		Source:     source,
	}

	if req.CheckIn != "" {
		checkIn, err := combineDateClock(date, req.CheckIn)
		if err != nil {
			return models.Attendance{}, http.StatusBadRequest, "invalid checkIn"
		}
		record.CheckIn = &checkIn
	}
	if req.CheckOut != "" {
		if record.CheckIn == nil {
			return models.Attendance{}, http.StatusBadRequest, "checkOut requires checkIn"
		}
		checkOut, err := combineDateClock(date, req.CheckOut)
		if err != nil {
			return models.Attendance{}, http.StatusBadRequest, "invalid checkOut"
		}
		if checkOut.Before(*record.CheckIn) {
			return models.Attendance{}, http.StatusBadRequest, "checkOut cannot be before checkIn"
		}
		record.CheckOut = &checkOut
		record.Earnings = earningsBetween(*record.CheckIn, checkOut, employee.PerMinuteRate)
	}

	return record, 0, ""
}

func (h *AttendanceHandler) Update(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	var record models.Attendance
	if err := h.DB.Where("company_id = ?", companyID).First(&record, "id = ?", recordID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attendance not found"})
		return
	}

	updated, status, message := h.buildRecord(companyID, req, record.Source)
	if message != "" {
		c.JSON(status, gin.H{"error": message})
		return
	}

	record.EmployeeID = updated.EmployeeID
	record.Date = updated.Date
	record.Status = updated.Status
	record.CheckIn = updated.CheckIn
	record.CheckOut = updated.CheckOut
	record.Earnings = updated.Earnings

	if err := h.DB.Save(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *AttendanceHandler) UpdateStatus(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req attendanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidAttendanceStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	var record models.Attendance
	if err := h.DB.Where("company_id = ?", companyID).First(&record, "id = ?", recordID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "attendance not found"})
		return
	}

	record.Status = req.Status
	if err := h.DB.Save(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *AttendanceHandler) History(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	employeeID, err := uuid.Parse(c.Param("employeeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
		return
	}

	if contextRole(c) == models.RoleEmployee {
		own, ok := contextEmployeeID(c)
		if !ok || own != employeeID {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
	}

	var records []models.Attendance
	if err := h.DB.Where("company_id = ? AND employee_id = ?", companyID, employeeID).
		Order("date desc").Limit(90).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}

	h.refreshEarnings(records)
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) Delete(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Where("company_id = ?", companyID).Delete(&models.Attendance{}, "id = ?", recordID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "attendance not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *AttendanceHandler) ListDeleted(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var records []models.Attendance
	if err := h.DB.Unscoped().
		Where("company_id = ? AND deleted_at IS NOT NULL", companyID).
		Order("deleted_at desc").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load deleted attendance"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// CheckIn opens today's attendance for the calling employee.
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	employeeID, ok := contextEmployeeID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	now := time.Now()
	today := dayOf(now)

	var existing models.Attendance
	if err := h.DB.Where("company_id = ? AND employee_id = ? AND date = ?",
		companyID, employeeID, today).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "already checked in for this day"})
		return
	}

	record := models.Attendance{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       today,
		Status:     models.AttendancePresent,
		CheckIn:    &now,
		Source:     models.AttendanceSourceMobile,
	}
	if err := h.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkin failed"})
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	employeeID, ok := contextEmployeeID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var record models.Attendance
	if err := h.DB.Where("company_id = ? AND employee_id = ? AND check_in IS NOT NULL AND check_out IS NULL",
		companyID, employeeID).Order("date desc").First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "open attendance not found"})
		return
	}

	now := time.Now()
	if now.Before(*record.CheckIn) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "checkOut cannot be before checkIn"})
		return
	}

	var employee models.Employee
	if err := h.DB.Select("per_minute_rate").First(&employee, "id = ?", employeeID).Error; err == nil {
		record.Earnings = earningsBetween(*record.CheckIn, now, employee.PerMinuteRate)
	}
	record.CheckOut = &now

	if err := h.DB.Save(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// MarkWithLocation records today's attendance together with the GPS fix the
// device captured at the moment of marking.
func (h *AttendanceHandler) MarkWithLocation(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	employeeID, ok := contextEmployeeID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req markWithLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidAttendanceStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	now := time.Now()
	today := dayOf(now)

	var existing models.Attendance
	if err := h.DB.Where("company_id = ? AND employee_id = ? AND date = ?",
		companyID, employeeID, today).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "attendance exists for this date"})
		return
	}

	record := models.Attendance{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       today,
		Status:     req.Status,
		Source:     models.AttendanceSourceMobile,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Accuracy:   &req.Accuracy,
	}
	if req.Status == models.AttendancePresent || req.Status == models.AttendanceHalfDay {
		record.CheckIn = &now
	}

	if err := h.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark failed"})
		return
	}
	c.JSON(http.StatusCreated, record)
}
