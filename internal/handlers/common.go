package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hrms-backend/internal/middleware"
)

func contextString(c *gin.Context, key string) string {
	value, _ := c.Get(key)
	raw, _ := value.(string)
	return raw
}

func contextUUID(c *gin.Context, key string) (uuid.UUID, bool) {
	raw := contextString(c, key)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func contextCompanyID(c *gin.Context) (uuid.UUID, bool) {
	return contextUUID(c, middleware.ContextCompanyID)
}

func contextUserID(c *gin.Context) (uuid.UUID, bool) {
	return contextUUID(c, middleware.ContextUserID)
}

func contextEmployeeID(c *gin.Context) (uuid.UUID, bool) {
	return contextUUID(c, middleware.ContextEmployeeID)
}

func contextRole(c *gin.Context) string {
	return contextString(c, middleware.ContextRole)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// combineDateClock builds a concrete timestamp from a "2006-01-02" date and
// a "15:04" wall-clock value.
func combineDateClock(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), nil
}
