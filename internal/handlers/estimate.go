package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

type EstimateHandler struct {
	DB *gorm.DB
}

func NewEstimateHandler(db *gorm.DB) *EstimateHandler {
	return &EstimateHandler{DB: db}
}

type documentItemRequest struct {
	ProductID   *uuid.UUID `json:"productId"`
	Description string     `json:"description"`
	Quantity    float64    `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64    `json:"unitPrice" binding:"gte=0"`
}

type estimateRequest struct {
	CustomerID uuid.UUID             `json:"customerId" binding:"required"`
	IssuedAt   string                `json:"issuedAt" binding:"required"`
	ExpiresAt  string                `json:"expiresAt" binding:"required"`
	Items      []documentItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (h *EstimateHandler) List(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	query := h.DB.Where("company_id = ?", companyID).Preload("Items").Order("created_at desc")
	if c.Query("include_deleted") == "true" {
		query = query.Unscoped()
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}

	var estimates []models.Estimate
	if err := query.Find(&estimates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load estimates"})
		return
	}
	c.JSON(http.StatusOK, estimates)
}

func (h *EstimateHandler) Get(c *gin.Context) {
	estimate, ok := h.ownedEstimate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func (h *EstimateHandler) Create(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	issuedAt, err := parseDate(req.IssuedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issuedAt"})
		return
	}
	expiresAt, err := parseDate(req.ExpiresAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiresAt"})
		return
	}

	var customer models.Customer
	if err := h.DB.Where("company_id = ?", companyID).First(&customer, "id = ?", req.CustomerID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer not found"})
		return
	}

	items, total := buildDocumentItems(req.Items)
	estimate := models.Estimate{
		CompanyID:  companyID,
		CustomerID: req.CustomerID,
		Number:     nextDocumentNumber(h.DB, companyID, "EST", &models.Estimate{}),
		Amount:     total,
		Status:     models.EstimateStatusDraft,
		IssuedAt:   issuedAt,
		ExpiresAt:  expiresAt,
	}
	for _, item := range items {
		estimate.Items = append(estimate.Items, models.EstimateItem{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}

	if err := h.DB.Create(&estimate).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, estimate)
}

func (h *EstimateHandler) Update(c *gin.Context) {
	estimate, ok := h.ownedEstimate(c)
	if !ok {
		return
	}
	if estimate.Status == models.EstimateStatusConverted {
		c.JSON(http.StatusConflict, gin.H{"error": "estimate already converted"})
		return
	}

	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	issuedAt, err := parseDate(req.IssuedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issuedAt"})
		return
	}
	expiresAt, err := parseDate(req.ExpiresAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiresAt"})
		return
	}

	items, total := buildDocumentItems(req.Items)
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("estimate_id = ?", estimate.ID).Delete(&models.EstimateItem{}).Error; err != nil {
			return err
		}
		estimate.CustomerID = req.CustomerID
		estimate.IssuedAt = issuedAt
		estimate.ExpiresAt = expiresAt
		estimate.Amount = total
		estimate.Items = nil
		for _, item := range items {
			estimate.Items = append(estimate.Items, models.EstimateItem{
				EstimateID:  estimate.ID,
				ProductID:   item.ProductID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Amount:      item.Amount,
			})
		}
		return tx.Save(&estimate).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, estimate)
}

func (h *EstimateHandler) UpdateStatus(c *gin.Context) {
	estimate, ok := h.ownedEstimate(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=draft approved rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if estimate.Status == models.EstimateStatusConverted {
		c.JSON(http.StatusConflict, gin.H{"error": "estimate already converted"})
		return
	}

	estimate.Status = req.Status
	if err := h.DB.Save(&estimate).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, estimate)
}

// Convert turns an approved estimate into a draft invoice carrying the
// same customer and line items. A converted estimate stays linked to the
// invoice it produced and cannot be converted twice.
func (h *EstimateHandler) Convert(c *gin.Context) {
	estimate, ok := h.ownedEstimate(c)
	if !ok {
		return
	}
	if estimate.Status == models.EstimateStatusConverted {
		c.JSON(http.StatusConflict, gin.H{"error": "estimate already converted"})
		return
	}
	if estimate.Status != models.EstimateStatusApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "only approved estimates can be converted"})
		return
	}

	now := time.Now()
	invoice := models.Invoice{
		CompanyID:  estimate.CompanyID,
		CustomerID: estimate.CustomerID,
		Number:     nextDocumentNumber(h.DB, estimate.CompanyID, "INV", &models.Invoice{}),
		Amount:     estimate.Amount,
		Status:     models.InvoiceStatusDraft,
		IssuedAt:   now,
		DueAt:      now.AddDate(0, 1, 0),
	}
	for _, item := range estimate.Items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		estimate.Status = models.EstimateStatusConverted
		estimate.InvoiceID = &invoice.ID
		return tx.Save(&estimate).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "convert failed"})
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *EstimateHandler) Delete(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	estimateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Where("company_id = ?", companyID).Delete(&models.Estimate{}, "id = ?", estimateID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "estimate not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "estimate deleted"})
}

func (h *EstimateHandler) Restore(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	estimateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Unscoped().Model(&models.Estimate{}).
		Where("company_id = ? AND id = ? AND deleted_at IS NOT NULL", companyID, estimateID).
		Update("deleted_at", nil)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "estimate not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "estimate restored"})
}

func (h *EstimateHandler) ownedEstimate(c *gin.Context) (models.Estimate, bool) {
	var estimate models.Estimate
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return estimate, false
	}
	estimateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return estimate, false
	}
	err = h.DB.Where("company_id = ?", companyID).Preload("Items").First(&estimate, "id = ?", estimateID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "estimate not found"})
		return estimate, false
	}
	return estimate, true
}

type documentItem struct {
	ProductID   *uuid.UUID
	Description string
	Quantity    float64
	UnitPrice   float64
	Amount      float64
}

func buildDocumentItems(reqs []documentItemRequest) ([]documentItem, float64) {
	items := make([]documentItem, 0, len(reqs))
	var total float64
	for _, req := range reqs {
		amount := req.Quantity * req.UnitPrice
		items = append(items, documentItem{
			ProductID:   req.ProductID,
			Description: req.Description,
			Quantity:    req.Quantity,
			UnitPrice:   req.UnitPrice,
			Amount:      amount,
		})
		total += amount
	}
	return items, total
}

// nextDocumentNumber produces sequential per-company numbers like EST-0007.
// Soft-deleted documents keep their number, so the count is unscoped.
func nextDocumentNumber(db *gorm.DB, companyID uuid.UUID, prefix string, model interface{}) string {
	var count int64
	db.Unscoped().Model(model).Where("company_id = ?", companyID).Count(&count)
	return fmt.Sprintf("%s-%04d", prefix, count+1)
}
