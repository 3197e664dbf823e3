package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

func locationRouter(database *gorm.DB, companyID, employeeID uuid.UUID) *gin.Engine {
	handler := NewLocationHandler(database, testLogger())
	router := gin.New()
	router.Use(actAs(models.RoleEmployee, companyID, uuid.New(), employeeID))
	router.POST("/location/sessions", handler.Start)
	router.GET("/location/sessions/active", handler.Active)
	router.POST("/location/sessions/:id/samples", handler.AddSample)
	router.POST("/location/sessions/:id/stop", handler.Stop)
	return router
}

func TestLocationSessionLifecycle(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	employee := seedEmployee(t, database, company.ID, "ann", 0.5)
	router := locationRouter(database, company.ID, employee.ID)

	fix := map[string]float64{"latitude": 52.1, "longitude": 4.3, "accuracy": 8}

	rec := doJSON(t, router, http.MethodPost, "/location/sessions", fix)
	expectStatus(t, rec, http.StatusCreated)
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decodeBody(t, rec, &started)

	// Only one open session per employee.
	rec = doJSON(t, router, http.MethodPost, "/location/sessions", fix)
	expectStatus(t, rec, http.StatusConflict)

	// Samples append; duplicates are accepted verbatim.
	for i := 0; i < 3; i++ {
		rec = doJSON(t, router, http.MethodPost, "/location/sessions/"+started.SessionID+"/samples", fix)
		expectStatus(t, rec, http.StatusCreated)
	}
	var count int64
	database.Model(&models.LocationSample{}).Where("session_id = ?", started.SessionID).Count(&count)
	// The probe fix plus three forwarded samples.
	if count != 4 {
		t.Fatalf("expected 4 samples, got %d", count)
	}

	rec = doJSON(t, router, http.MethodGet, "/location/sessions/active", nil)
	expectStatus(t, rec, http.StatusOK)
	var active struct {
		Active bool `json:"active"`
	}
	decodeBody(t, rec, &active)
	if !active.Active {
		t.Fatal("expected an active session")
	}

	// Stop is idempotent.
	rec = doJSON(t, router, http.MethodPost, "/location/sessions/"+started.SessionID+"/stop", nil)
	expectStatus(t, rec, http.StatusOK)
	rec = doJSON(t, router, http.MethodPost, "/location/sessions/"+started.SessionID+"/stop", nil)
	expectStatus(t, rec, http.StatusOK)

	// Samples after stop are refused.
	rec = doJSON(t, router, http.MethodPost, "/location/sessions/"+started.SessionID+"/samples", fix)
	expectStatus(t, rec, http.StatusConflict)

	rec = doJSON(t, router, http.MethodGet, "/location/sessions/active", nil)
	decodeBody(t, rec, &active)
	if active.Active {
		t.Error("stopped session must not report active")
	}
}

func TestLocationSessionOwnership(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	ann := seedEmployee(t, database, company.ID, "ann", 0.5)
	bob := seedEmployee(t, database, company.ID, "bob", 0.5)

	annRouter := locationRouter(database, company.ID, ann.ID)
	bobRouter := locationRouter(database, company.ID, bob.ID)

	fix := map[string]float64{"latitude": 52.1, "longitude": 4.3}
	rec := doJSON(t, annRouter, http.MethodPost, "/location/sessions", fix)
	expectStatus(t, rec, http.StatusCreated)
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decodeBody(t, rec, &started)

	// Another employee cannot feed someone else's session.
	rec = doJSON(t, bobRouter, http.MethodPost, "/location/sessions/"+started.SessionID+"/samples", fix)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestLocationAcceptsZeroCoordinates(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	employee := seedEmployee(t, database, company.ID, "ann", 0.5)
	router := locationRouter(database, company.ID, employee.ID)

	// A fix on the equator/prime meridian is a real location, not a
	// missing field.
	fix := map[string]float64{"latitude": 0, "longitude": 0, "accuracy": 8}
	rec := doJSON(t, router, http.MethodPost, "/location/sessions", fix)
	expectStatus(t, rec, http.StatusCreated)
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decodeBody(t, rec, &started)

	rec = doJSON(t, router, http.MethodPost, "/location/sessions/"+started.SessionID+"/samples", fix)
	expectStatus(t, rec, http.StatusCreated)

	// A fix without coordinates is still refused.
	rec = doJSON(t, router, http.MethodPost, "/location/sessions/"+started.SessionID+"/samples", map[string]float64{"accuracy": 8})
	expectStatus(t, rec, http.StatusBadRequest)
}
