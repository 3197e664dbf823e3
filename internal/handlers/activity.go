package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

type ActivityHandler struct {
	DB *gorm.DB
}

func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{DB: db}
}

func (h *ActivityHandler) List(c *gin.Context) {
	query := h.DB.Order("created_at desc")

	role := contextRole(c)
	if role != models.RoleSuperAdmin {
		companyID, ok := contextCompanyID(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		query = query.Where("company_id = ?", companyID)
	} else if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}

	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if from, err := parseDate(c.Query("from")); err == nil {
		query = query.Where("created_at >= ?", from)
	}
	if to, err := parseDate(c.Query("to")); err == nil {
		query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	var entries []models.ActivityLog
	if err := query.Limit(limit).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load activity"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
