package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

type IncrementHandler struct {
	DB        *gorm.DB
	Employees *EmployeeHandler
}

func NewIncrementHandler(db *gorm.DB, employees *EmployeeHandler) *IncrementHandler {
	return &IncrementHandler{DB: db, Employees: employees}
}

type incrementRequest struct {
	EmployeeID    string  `json:"employeeId" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	EffectiveFrom string  `json:"effectiveFrom" binding:"required"`
	Note          string  `json:"note"`
}

type incrementStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending applied rejected"`
}

func (h *IncrementHandler) List(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	query := h.DB.Where("company_id = ?", companyID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var increments []models.SalaryIncrement
	if err := query.Order("created_at desc").Find(&increments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load increments"})
		return
	}
	c.JSON(http.StatusOK, increments)
}

func (h *IncrementHandler) Create(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req incrementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
		return
	}
	effectiveFrom, err := parseDate(req.EffectiveFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid effectiveFrom"})
		return
	}

	var employee models.Employee
	if err := h.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	increment := models.SalaryIncrement{
		CompanyID:     companyID,
		EmployeeID:    employeeID,
		Amount:        req.Amount,
		EffectiveFrom: effectiveFrom,
		Note:          req.Note,
		Status:        models.IncrementStatusPending,
	}
	if err := h.DB.Create(&increment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, increment)
}

// UpdateStatus applies or rejects a pending increment. Applying raises the
// employee's salary and refreshes the per-minute rate.
func (h *IncrementHandler) UpdateStatus(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	incrementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req incrementStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	var increment models.SalaryIncrement
	if err := h.DB.Where("company_id = ?", companyID).First(&increment, "id = ?", incrementID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "increment not found"})
		return
	}
	if increment.Status == models.IncrementStatusApplied {
		c.JSON(http.StatusConflict, gin.H{"error": "increment already applied"})
		return
	}

	if req.Status == models.IncrementStatusApplied {
		var employee models.Employee
		if err := h.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", increment.EmployeeID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
			return
		}
		employee.Salary += increment.Amount
		employee.PerMinuteRate = h.Employees.perMinuteRate(companyID, employee.Salary)
		if err := h.DB.Save(&employee).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "apply failed"})
			return
		}
		now := time.Now()
		increment.AppliedAt = &now
	}

	increment.Status = req.Status
	if err := h.DB.Save(&increment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, increment)
}

func (h *IncrementHandler) Delete(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	incrementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Where("company_id = ? AND status = ?", companyID, models.IncrementStatusPending).
		Delete(&models.SalaryIncrement{}, "id = ?", incrementID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "pending increment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
