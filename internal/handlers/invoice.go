package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
)

type InvoiceHandler struct {
	DB *gorm.DB
}

func NewInvoiceHandler(db *gorm.DB) *InvoiceHandler {
	return &InvoiceHandler{DB: db}
}

type invoiceRequest struct {
	CustomerID uuid.UUID             `json:"customerId" binding:"required"`
	IssuedAt   string                `json:"issuedAt" binding:"required"`
	DueAt      string                `json:"dueAt" binding:"required"`
	Items      []documentItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (h *InvoiceHandler) List(c *gin.Context) {
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

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load invoices"})
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	issuedAt, err := parseDate(req.IssuedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issuedAt"})
		return
	}
	dueAt, err := parseDate(req.DueAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueAt"})
		return
	}

	var customer models.Customer
	if err := h.DB.Where("company_id = ?", companyID).First(&customer, "id = ?", req.CustomerID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer not found"})
		return
	}

	items, total := buildDocumentItems(req.Items)
	invoice := models.Invoice{
		CompanyID:  companyID,
		CustomerID: req.CustomerID,
		Number:     nextDocumentNumber(h.DB, companyID, "INV", &models.Invoice{}),
		Amount:     total,
		Status:     models.InvoiceStatusDraft,
		IssuedAt:   issuedAt,
		DueAt:      dueAt,
	}
	for _, item := range items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}

	if err := h.DB.Create(&invoice).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	invoice, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	if invoice.Status == models.InvoiceStatusPaid {
		c.JSON(http.StatusConflict, gin.H{"error": "paid invoices cannot be edited"})
		return
	}

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	issuedAt, err := parseDate(req.IssuedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issuedAt"})
		return
	}
	dueAt, err := parseDate(req.DueAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dueAt"})
		return
	}

	items, total := buildDocumentItems(req.Items)
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		invoice.CustomerID = req.CustomerID
		invoice.IssuedAt = issuedAt
		invoice.DueAt = dueAt
		invoice.Amount = total
		invoice.Items = nil
		for _, item := range items {
			invoice.Items = append(invoice.Items, models.InvoiceItem{
				InvoiceID:   invoice.ID,
				ProductID:   item.ProductID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Amount:      item.Amount,
			})
		}
		return tx.Save(&invoice).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	invoice, ok := h.ownedInvoice(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=draft sent paid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	invoice.Status = req.Status
	if err := h.DB.Save(&invoice).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Where("company_id = ?", companyID).Delete(&models.Invoice{}, "id = ?", invoiceID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invoice deleted"})
}

func (h *InvoiceHandler) Restore(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Unscoped().Model(&models.Invoice{}).
		Where("company_id = ? AND id = ? AND deleted_at IS NOT NULL", companyID, invoiceID).
		Update("deleted_at", nil)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invoice restored"})
}

func (h *InvoiceHandler) ownedInvoice(c *gin.Context) (models.Invoice, bool) {
	var invoice models.Invoice
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return invoice, false
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return invoice, false
	}
	err = h.DB.Where("company_id = ?", companyID).Preload("Items").First(&invoice, "id = ?", invoiceID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return invoice, false
	}
	return invoice, true
}
