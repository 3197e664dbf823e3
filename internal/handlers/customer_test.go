package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

func customerRouter(database *gorm.DB, companyID uuid.UUID) *gin.Engine {
	handler := NewCustomerHandler(database)
	router := gin.New()
	router.Use(actAs(models.RoleAccountant, companyID, uuid.New(), uuid.Nil))
	router.GET("/customers", handler.List)
	router.GET("/customers/deleted", handler.ListDeleted)
	router.POST("/customers", handler.Create)
	router.DELETE("/customers/:id", handler.Delete)
	router.POST("/customers/:id/restore", handler.Restore)
	return router
}

func TestCustomerSoftDeleteAndRestore(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	router := customerRouter(database, company.ID)

	rec := doJSON(t, router, http.MethodPost, "/customers",
		map[string]string{"name": "Initech", "email": "billing@initech.com"})
	expectStatus(t, rec, http.StatusCreated)

	var created models.Customer
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, http.MethodDelete, "/customers/"+created.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)

	// Gone from the default list.
	rec = doJSON(t, router, http.MethodGet, "/customers", nil)
	expectStatus(t, rec, http.StatusOK)
	var listed []models.Customer
	decodeBody(t, rec, &listed)
	if len(listed) != 0 {
		t.Fatalf("deleted customer must not appear in the default list, got %d", len(listed))
	}

	// Present in the deleted list.
	rec = doJSON(t, router, http.MethodGet, "/customers/deleted", nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected the customer in the deleted list, got %v", listed)
	}

	// Restore brings it back with its data intact.
	rec = doJSON(t, router, http.MethodPost, "/customers/"+created.ID.String()+"/restore", nil)
	expectStatus(t, rec, http.StatusOK)

	rec = doJSON(t, router, http.MethodGet, "/customers", nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &listed)
	if len(listed) != 1 || listed[0].Name != "Initech" {
		t.Fatalf("expected the restored customer, got %v", listed)
	}
}

func TestCustomerRestoreRequiresDeleted(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	router := customerRouter(database, company.ID)

	rec := doJSON(t, router, http.MethodPost, "/customers", map[string]string{"name": "Live Co"})
	expectStatus(t, rec, http.StatusCreated)
	var created models.Customer
	decodeBody(t, rec, &created)

	rec = doJSON(t, router, http.MethodPost, "/customers/"+created.ID.String()+"/restore", nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestCustomerScopedToCompany(t *testing.T) {
	database := testDB(t)
	companyA := seedCompany(t, database, "Acme")
	companyB := seedCompany(t, database, "Globex")

	other := models.Customer{CompanyID: companyB.ID, Name: "Globex Client"}
	if err := database.Create(&other).Error; err != nil {
		t.Fatal(err)
	}

	router := customerRouter(database, companyA.ID)
	rec := doJSON(t, router, http.MethodGet, "/customers", nil)
	expectStatus(t, rec, http.StatusOK)
	var listed []models.Customer
	decodeBody(t, rec, &listed)
	if len(listed) != 0 {
		t.Fatalf("customers of another tenant must be invisible, got %d", len(listed))
	}

	rec = doJSON(t, router, http.MethodDelete, "/customers/"+other.ID.String(), nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestCustomerStoresContactAndTaxFields(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	router := customerRouter(database, company.ID)

	rec := doJSON(t, router, http.MethodPost, "/customers", map[string]string{
		"name":    "Initech",
		"email":   "billing@initech.com",
		"phone":   "+31 20 123 4567",
		"address": "1 Office Park",
		"taxId":   "NL123456789B01",
	})
	expectStatus(t, rec, http.StatusCreated)

	var created models.Customer
	decodeBody(t, rec, &created)
	if created.TaxID != "NL123456789B01" {
		t.Errorf("tax id not stored, got %q", created.TaxID)
	}

	var stored models.Customer
	if err := database.First(&stored, "id = ?", created.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.TaxID != created.TaxID || stored.Phone != created.Phone {
		t.Errorf("stored row differs from response: %+v", stored)
	}
}
