package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

type AdvanceHandler struct {
	DB *gorm.DB
}

func NewAdvanceHandler(db *gorm.DB) *AdvanceHandler {
	return &AdvanceHandler{DB: db}
}

type advanceRequest struct {
	EmployeeID string  `json:"employeeId"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Reason     string  `json:"reason"`
}

func (h *AdvanceHandler) List(c *gin.Context) {
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
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.AdvanceRequest
	if err := query.Order("created_at desc").Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load advances"})
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *AdvanceHandler) Create(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	var employeeID uuid.UUID
	if contextRole(c) == models.RoleEmployee {
		own, ok := contextEmployeeID(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		employeeID = own
	} else {
		parsed, err := uuid.Parse(req.EmployeeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employeeId"})
			return
		}
		employeeID = parsed
	}

	var employee models.Employee
	if err := h.DB.Where("company_id = ?", companyID).First(&employee, "id = ?", employeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	request := models.AdvanceRequest{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Amount:     req.Amount,
		Reason:     req.Reason,
		Status:     models.RequestStatusPending,
	}
	if err := h.DB.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *AdvanceHandler) UpdateStatus(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	var request models.AdvanceRequest
	if err := h.DB.Where("company_id = ?", companyID).First(&request, "id = ?", requestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "advance not found"})
		return
	}

	request.Status = req.Status
	if req.Status == models.RequestStatusApproved || req.Status == models.RequestStatusRejected {
		now := time.Now()
		request.DecidedAt = &now
		if approverID, ok := contextUserID(c); ok {
			request.ApproverID = &approverID
		}
	} else {
		request.DecidedAt = nil
		request.ApproverID = nil
	}

	if err := h.DB.Save(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *AdvanceHandler) Delete(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	query := h.DB.Where("company_id = ?", companyID)
	if contextRole(c) == models.RoleEmployee {
		employeeID, ok := contextEmployeeID(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		query = query.Where("employee_id = ? AND status = ?", employeeID, models.RequestStatusPending)
	}

	result := query.Delete(&models.AdvanceRequest{}, "id = ?", requestID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "advance not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
