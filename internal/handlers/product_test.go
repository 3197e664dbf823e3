package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

func productRouter(database *gorm.DB, companyID uuid.UUID) *gin.Engine {
	handler := NewProductHandler(database)
	router := gin.New()
	router.Use(actAs(models.RoleAccountant, companyID, uuid.New(), uuid.Nil))
	router.POST("/product-categories", handler.CreateCategory)
	router.DELETE("/product-categories/:id", handler.DeleteCategory)
	router.GET("/products", handler.List)
	router.POST("/products", handler.Create)
	router.PUT("/products/:id", handler.Update)
	return router
}

func TestProductRoundTrip(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	router := productRouter(database, company.ID)

	rec := doJSON(t, router, http.MethodPost, "/product-categories",
		map[string]string{"name": "Services"})
	expectStatus(t, rec, http.StatusCreated)
	var category models.ProductCategory
	decodeBody(t, rec, &category)

	rec = doJSON(t, router, http.MethodPost, "/products", map[string]interface{}{
		"name":        "Consulting hour",
		"description": "Senior rate, billed per hour",
		"price":       120,
		"unit":        "hour",
		"categoryId":  category.ID.String(),
	})
	expectStatus(t, rec, http.StatusCreated)
	var product models.Product
	decodeBody(t, rec, &product)
	if product.Description != "Senior rate, billed per hour" {
		t.Errorf("description not stored, got %q", product.Description)
	}
	if product.CategoryID == nil || *product.CategoryID != category.ID {
		t.Errorf("expected category %s, got %v", category.ID, product.CategoryID)
	}

	rec = doJSON(t, router, http.MethodPut, "/products/"+product.ID.String(), map[string]interface{}{
		"name":        "Consulting hour",
		"description": "Senior rate",
		"price":       130,
	})
	expectStatus(t, rec, http.StatusOK)
	var updated models.Product
	decodeBody(t, rec, &updated)
	if updated.Description != "Senior rate" || updated.Price != 130 {
		t.Errorf("update not applied, got %q / %v", updated.Description, updated.Price)
	}

	// A category with products cannot be removed.
	rec = doJSON(t, router, http.MethodDelete, "/product-categories/"+category.ID.String(), nil)
	expectStatus(t, rec, http.StatusConflict)
}

func TestProductRejectsForeignCategory(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	other := seedCompany(t, database, "Globex")

	foreign := models.ProductCategory{CompanyID: other.ID, Name: "Hardware"}
	if err := database.Create(&foreign).Error; err != nil {
		t.Fatal(err)
	}

	router := productRouter(database, company.ID)
	rec := doJSON(t, router, http.MethodPost, "/products", map[string]interface{}{
		"name":       "Widget",
		"price":      10,
		"categoryId": foreign.ID.String(),
	})
	expectStatus(t, rec, http.StatusBadRequest)
}
