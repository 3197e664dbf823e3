package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

// ActivityLogger records every mutating request after it completes. Runs
// behind AuthRequired so actor identity is available from the context.
func ActivityLogger(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		entry := models.ActivityLog{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			StatusCode: c.Writer.Status(),
		}
		if value, ok := c.Get(ContextRole); ok {
			entry.Role, _ = value.(string)
		}
		if value, ok := c.Get(ContextUserID); ok {
			if raw, _ := value.(string); raw != "" {
				if id, err := uuid.Parse(raw); err == nil {
					entry.UserID = &id
				}
			}
		}
		if value, ok := c.Get(ContextCompanyID); ok {
			if raw, _ := value.(string); raw != "" {
				if id, err := uuid.Parse(raw); err == nil {
					entry.CompanyID = &id
				}
			}
		}
		if value, ok := c.Get(ContextImpersonated); ok {
			entry.Impersonated, _ = value.(bool)
		}

		// Logging must never fail the request it describes.
		_ = db.Create(&entry).Error
	}
}
