package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hrms-backend/internal/importer"
	"hrms-backend/internal/models"
)

const (
	DuplicateSkip      = "skip"
	DuplicateOverwrite = "overwrite"
)

type DeviceImportHandler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewDeviceImportHandler(db *gorm.DB, log zerolog.Logger) *DeviceImportHandler {
	return &DeviceImportHandler{DB: db, Log: log.With().Str("handler", "device-import").Logger()}
}

type deviceParseRequest struct {
	Content string `json:"content" binding:"required"`
}

type deviceCommitRequest struct {
	Mappings map[string]string `json:"mappings" binding:"required"`
	Records  []importer.Record `json:"records" binding:"required"`
	// DuplicateAction applies to the whole batch: skip keeps existing
	// attendance for an employee+date, overwrite replaces it.
	DuplicateAction string `json:"duplicateAction" binding:"required"`
}

func (h *DeviceImportHandler) Parse(c *gin.Context) {
	if _, ok := contextCompanyID(c); !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req deviceParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	records, vendorIDs, err := importer.Parse(req.Content)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records":   records,
		"vendorIds": vendorIDs,
	})
}

func (h *DeviceImportHandler) Commit(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req deviceCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if req.DuplicateAction != DuplicateSkip && req.DuplicateAction != DuplicateOverwrite {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duplicateAction must be skip or overwrite"})
		return
	}

	unmapped := 0
	seen := map[string]bool{}
	for _, record := range req.Records {
		if seen[record.VendorID] {
			continue
		}
		seen[record.VendorID] = true
		if req.Mappings[record.VendorID] == "" {
			unmapped++
		}
	}
	if unmapped > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "unmapped vendor identifiers",
			"unmappedCount": unmapped,
		})
		return
	}

	employees := map[string]models.Employee{}
	for vendorID, rawEmployeeID := range req.Mappings {
		employeeID, err := uuid.Parse(rawEmployeeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid employee id for vendor %s", vendorID)})
			return
		}
		var employee models.Employee
		if err := h.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", employeeID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown employee for vendor %s", vendorID)})
			return
		}
		employees[vendorID] = employee
	}

	imported, skipped, overwritten := 0, 0, 0
	commitErrors := []string{}

	for _, row := range req.Records {
		employee, ok := employees[row.VendorID]
		if !ok {
			commitErrors = append(commitErrors, fmt.Sprintf("vendor %s: no mapping", row.VendorID))
			continue
		}

		record, err := h.attendanceFromRow(companyID, employee, row)
		if err != nil {
			commitErrors = append(commitErrors, fmt.Sprintf("vendor %s %s: %v", row.VendorID, row.Date, err))
			continue
		}

		var existing models.Attendance
		err = h.DB.Where("company_id = ? AND employee_id = ? AND date = ?",
			companyID, employee.ID, record.Date).First(&existing).Error
		switch {
		case err == nil && req.DuplicateAction == DuplicateSkip:
			skipped++
			continue
		case err == nil:
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
			if err := h.DB.Save(&record).Error; err != nil {
				commitErrors = append(commitErrors, fmt.Sprintf("vendor %s %s: save failed", row.VendorID, row.Date))
				continue
			}
			overwritten++
		case err == gorm.ErrRecordNotFound:
			if err := h.DB.Create(&record).Error; err != nil {
				commitErrors = append(commitErrors, fmt.Sprintf("vendor %s %s: save failed", row.VendorID, row.Date))
				continue
			}
			imported++
		default:
			commitErrors = append(commitErrors, fmt.Sprintf("vendor %s %s: lookup failed", row.VendorID, row.Date))
		}
	}

	h.Log.Info().
		Int("imported", imported).
		Int("skipped", skipped).
		Int("overwritten", overwritten).
		Int("errors", len(commitErrors)).
		Str("duplicateAction", req.DuplicateAction).
		Msg("device import committed")

	c.JSON(http.StatusOK, gin.H{
		"imported":    imported,
		"skipped":     skipped,
		"overwritten": overwritten,
		"errors":      commitErrors,
	})
}

func (h *DeviceImportHandler) attendanceFromRow(companyID uuid.UUID, employee models.Employee, row importer.Record) (models.Attendance, error) {
	date, err := parseDate(row.Date)
	if err != nil {
		return models.Attendance{}, fmt.Errorf("invalid date")
	}

	record := models.Attendance{
		CompanyID:  companyID,
		EmployeeID: employee.ID,
		Date:       date,
		Status:     models.AttendancePresent,
		Source:     models.AttendanceSourceDevice,
	}

	if row.CheckIn != "" {
		checkIn, err := combineDateClock(date, row.CheckIn)
		if err != nil {
			return models.Attendance{}, fmt.Errorf("invalid check-in time")
		}
		record.CheckIn = &checkIn
	}
	if row.CheckOut != "" {
		if record.CheckIn == nil {
			return models.Attendance{}, fmt.Errorf("check-out without check-in")
		}
		checkOut, err := combineDateClock(date, row.CheckOut)
		if err != nil {
			return models.Attendance{}, fmt.Errorf("invalid check-out time")
		}
		if checkOut.Before(*record.CheckIn) {
			return models.Attendance{}, fmt.Errorf("check-out before check-in")
		}
		record.CheckOut = &checkOut
		record.Earnings = earningsBetween(*record.CheckIn, checkOut, employee.PerMinuteRate)
	}

	return record, nil
}
