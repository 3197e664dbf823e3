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

type LocationHandler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewLocationHandler(db *gorm.DB, log zerolog.Logger) *LocationHandler {
	return &LocationHandler{DB: db, Log: log.With().Str("handler", "location").Logger()}
}

// Coordinates bind through pointers so a fix on the equator or the prime
// meridian (exactly 0.0) still counts as present.
type locationStartRequest struct {
	// The initial fix doubles as a permission/availability probe; a session
	// cannot open without one.
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Accuracy  float64  `json:"accuracy"`
}

type locationSampleRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Accuracy  float64  `json:"accuracy"`
}

func (h *LocationHandler) Start(c *gin.Context) {
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

	var req locationStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initial location fix required"})
		return
	}

	var open models.LocationSession
	if err := h.DB.Where("company_id = ? AND employee_id = ? AND end_time IS NULL",
		companyID, employeeID).First(&open).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "tracking session already active"})
		return
	}

	now := time.Now()
	session := models.LocationSession{
		CompanyID:  companyID,
		EmployeeID: employeeID,
		StartTime:  now,
	}
	if err := h.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "start failed"})
		return
	}

	_ = h.DB.Create(&models.LocationSample{
		SessionID:  session.ID,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Accuracy:   req.Accuracy,
		RecordedAt: now,
	}).Error

	c.JSON(http.StatusCreated, gin.H{
		"sessionId": session.ID,
		"startTime": session.StartTime,
	})
}

// AddSample appends one forwarded fix. Samples are append-only; duplicates
// from overlapping client ticks are accepted.
func (h *LocationHandler) AddSample(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}
	if session.EndTime != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "session ended"})
		return
	}

	var req locationSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	sample := models.LocationSample{
		SessionID:  session.ID,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Accuracy:   req.Accuracy,
		RecordedAt: time.Now(),
	}
	if err := h.DB.Create(&sample).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sample failed"})
		return
	}
	c.JSON(http.StatusCreated, sample)
}

func (h *LocationHandler) Stop(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}
	if session.EndTime != nil {
		c.JSON(http.StatusOK, session)
		return
	}

	now := time.Now()
	session.EndTime = &now
	if err := h.DB.Save(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stop failed"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// Active returns the caller's open session, if any, so a reloaded client can
// reattach to it.
func (h *LocationHandler) Active(c *gin.Context) {
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

	var session models.LocationSession
	if err := h.DB.Where("company_id = ? AND employee_id = ? AND end_time IS NULL",
		companyID, employeeID).First(&session).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":    true,
		"sessionId": session.ID,
		"startTime": session.StartTime,
	})
}

func (h *LocationHandler) ListSamples(c *gin.Context) {
	session, ok := h.ownedSession(c)
	if !ok {
		return
	}

	var samples []models.LocationSample
	if err := h.DB.Where("session_id = ?", session.ID).Order("recorded_at asc").Find(&samples).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load samples"})
		return
	}
	c.JSON(http.StatusOK, samples)
}

func (h *LocationHandler) ownedSession(c *gin.Context) (models.LocationSession, bool) {
	var session models.LocationSession

	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return session, false
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return session, false
	}

	if err := h.DB.Where("company_id = ?", companyID).First(&session, "id = ?", sessionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return session, false
	}

	if contextRole(c) == models.RoleEmployee {
		own, ok := contextEmployeeID(c)
		if !ok || own != session.EmployeeID {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return session, false
		}
	}
	return session, true
}
