package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

type livePayrollRow struct {
	EmployeeID    string     `json:"employeeId"`
	Name          string     `json:"name"`
	Status        string     `json:"status"`
	PerMinuteRate float64    `json:"perMinuteRate"`
	CheckIn       *time.Time `json:"checkIn,omitempty"`
	CheckOut      *time.Time `json:"checkOut,omitempty"`
	Earnings      float64    `json:"earnings"`
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	today := dayOf(time.Now())

	var employeeCount int64
	h.DB.Model(&models.Employee{}).Where("company_id = ?", companyID).Count(&employeeCount)

	var presentToday int64
	h.DB.Model(&models.Attendance{}).
		Where("company_id = ? AND date = ? AND status IN ?", companyID, today,
			[]string{models.AttendancePresent, models.AttendanceHalfDay}).
		Count(&presentToday)

	var onLeaveToday int64
	h.DB.Model(&models.Attendance{}).
		Where("company_id = ? AND date = ? AND status IN ?", companyID, today,
			[]string{models.AttendanceLeave, models.AttendanceAllowedLeave}).
		Count(&onLeaveToday)

	var pendingLeaves int64
	h.DB.Model(&models.LeaveRequest{}).
		Where("company_id = ? AND status = ?", companyID, models.RequestStatusPending).
		Count(&pendingLeaves)

	var pendingAdvances int64
	h.DB.Model(&models.AdvanceRequest{}).
		Where("company_id = ? AND status = ?", companyID, models.RequestStatusPending).
		Count(&pendingAdvances)

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	var monthEarnings float64
	h.DB.Model(&models.Attendance{}).
		Where("company_id = ? AND date >= ? AND date <= ?", companyID, monthStart, today).
		Select("COALESCE(SUM(earnings), 0)").
		Scan(&monthEarnings)

	c.JSON(http.StatusOK, gin.H{
		"employees":       employeeCount,
		"presentToday":    presentToday,
		"onLeaveToday":    onLeaveToday,
		"pendingLeaves":   pendingLeaves,
		"pendingAdvances": pendingAdvances,
		"monthEarnings":   monthEarnings,
	})
}

// LivePayroll returns today's attendance with up-to-the-minute earnings
// for records that are still open. Clients poll this as a baseline and
// extrapolate between polls using perMinuteRate.
func (h *DashboardHandler) LivePayroll(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	today := dayOf(time.Now())
	now := time.Now()

	var records []models.Attendance
	err := h.DB.Where("company_id = ? AND date = ?", companyID, today).Find(&records).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load payroll"})
		return
	}

	var employees []models.Employee
	if err := h.DB.Where("company_id = ?", companyID).Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load payroll"})
		return
	}
	names := make(map[string]models.Employee, len(employees))
	for _, employee := range employees {
		names[employee.ID.String()] = employee
	}

	rows := make([]livePayrollRow, 0, len(records))
	for _, record := range records {
		employee, found := names[record.EmployeeID.String()]
		if !found {
			continue
		}
		earnings := record.Earnings
		if record.CheckIn != nil && record.CheckOut == nil {
			earnings = earningsBetween(*record.CheckIn, now, employee.PerMinuteRate)
		}
		rows = append(rows, livePayrollRow{
			EmployeeID:    record.EmployeeID.String(),
			Name:          employee.FirstName + " " + employee.LastName,
			Status:        record.Status,
			PerMinuteRate: employee.PerMinuteRate,
			CheckIn:       record.CheckIn,
			CheckOut:      record.CheckOut,
			Earnings:      earnings,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"asOf":    now,
		"records": rows,
	})
}
