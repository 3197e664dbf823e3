package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hrms-backend/internal/config"
	"hrms-backend/internal/models"
	"hrms-backend/internal/utils"
)

// SuperAdminHandler covers platform operations that no tenant account can
// perform: provisioning companies, suspending them, configuring their SMS
// gateways, and stepping into a tenant via impersonation tokens.
type SuperAdminHandler struct {
	DB  *gorm.DB
	Cfg config.Config
	Log zerolog.Logger
}

func NewSuperAdminHandler(db *gorm.DB, cfg config.Config, log zerolog.Logger) *SuperAdminHandler {
	return &SuperAdminHandler{DB: db, Cfg: cfg, Log: log.With().Str("handler", "superadmin").Logger()}
}

type companyRequest struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"omitempty,email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	InvoicingEnabled bool   `json:"invoicingEnabled"`
	AdminMobile      string `json:"adminMobile"`
	AdminName        string `json:"adminName"`
}

type gatewayRequest struct {
	URL      string `json:"url" binding:"required,url"`
	APIKey   string `json:"apiKey"`
	SenderID string `json:"senderId"`
	Enabled  *bool  `json:"enabled"`
}

type impersonateRequest struct {
	CompanyID uuid.UUID `json:"companyId" binding:"required"`
	CanEdit   bool      `json:"canEdit"`
}

type superAdminRequest struct {
	Mobile string `json:"mobile" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

func (h *SuperAdminHandler) ListCompanies(c *gin.Context) {
	var companies []models.Company
	query := h.DB.Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load companies"})
		return
	}
	c.JSON(http.StatusOK, companies)
}

// CreateCompany provisions a tenant along with default working-time
// settings and, when an admin mobile is supplied, its first admin account.
func (h *SuperAdminHandler) CreateCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	company := models.Company{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		Status:           models.CompanyStatusActive,
		InvoicingEnabled: req.InvoicingEnabled,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		setting := models.CompanySetting{
			CompanyID:   company.ID,
			WorkStart:   "09:00",
			WorkEnd:     "18:00",
			WorkingDays: "1,2,3,4,5",
			Currency:    "USD",
		}
		if err := tx.Create(&setting).Error; err != nil {
			return err
		}
		if req.AdminMobile != "" {
			admin := models.User{
				CompanyID: &company.ID,
				Mobile:    normalizeMobile(req.AdminMobile),
				Name:      req.AdminName,
				Role:      models.RoleAdmin,
			}
			if admin.Name == "" {
				admin.Name = req.Name + " Admin"
			}
			if err := tx.Create(&admin).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.Log.Error().Err(err).Str("company", req.Name).Msg("company provisioning failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *SuperAdminHandler) UpdateCompany(c *gin.Context) {
	company, ok := h.companyByParam(c)
	if !ok {
		return
	}

	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	company.Name = req.Name
	company.Email = req.Email
	company.Phone = req.Phone
	company.Address = req.Address
	company.InvoicingEnabled = req.InvoicingEnabled
	if err := h.DB.Save(&company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *SuperAdminHandler) SetCompanyStatus(c *gin.Context) {
	company, ok := h.companyByParam(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=active suspended"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	company.Status = req.Status
	if err := h.DB.Save(&company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	// Suspension takes effect immediately for new logins; live refresh
	// tokens are revoked so existing sessions die at the next refresh.
	if req.Status == models.CompanyStatusSuspended {
		h.DB.Where("user_id IN (?)",
			h.DB.Model(&models.User{}).Select("id").Where("company_id = ?", company.ID),
		).Delete(&models.RefreshToken{})
	}
	c.JSON(http.StatusOK, company)
}

func (h *SuperAdminHandler) GetGateway(c *gin.Context) {
	company, ok := h.companyByParam(c)
	if !ok {
		return
	}

	var gateway models.SMSGateway
	if err := h.DB.Where("company_id = ?", company.ID).First(&gateway).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no gateway configured"})
		return
	}
	c.JSON(http.StatusOK, gateway)
}

func (h *SuperAdminHandler) UpsertGateway(c *gin.Context) {
	company, ok := h.companyByParam(c)
	if !ok {
		return
	}

	var req gatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	var gateway models.SMSGateway
	err := h.DB.Where("company_id = ?", company.ID).First(&gateway).Error
	if err == gorm.ErrRecordNotFound {
		gateway = models.SMSGateway{CompanyID: company.ID}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	gateway.URL = req.URL
	if req.APIKey != "" {
		gateway.APIKey = req.APIKey
	}
	gateway.SenderID = req.SenderID
	if req.Enabled != nil {
		gateway.Enabled = *req.Enabled
	} else if gateway.ID == uuid.Nil {
		gateway.Enabled = true
	}

	if err := h.DB.Save(&gateway).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gateway)
}

// Impersonate issues a short-lived admin token scoped to the target
// company. Without canEdit the token is read-only and every mutating verb
// is rejected by middleware.
func (h *SuperAdminHandler) Impersonate(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req impersonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	var company models.Company
	if err := h.DB.First(&company, "id = ?", req.CompanyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}

	accessToken, err := utils.GenerateAccessToken(utils.TokenInput{
		UserID:       userID.String(),
		Role:         models.RoleAdmin,
		CompanyID:    company.ID.String(),
		Impersonated: true,
		ReadOnly:     !req.CanEdit,
	}, h.Cfg.JwtSecret, h.Cfg.JwtAccessMinutes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	h.Log.Info().
		Str("companyId", company.ID.String()).
		Bool("canEdit", req.CanEdit).
		Msg("impersonation token issued")

	c.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"companyId":   company.ID,
		"companyName": company.Name,
		"readOnly":    !req.CanEdit,
	})
}

func (h *SuperAdminHandler) ListSuperAdmins(c *gin.Context) {
	var admins []models.User
	if err := h.DB.Where("role = ?", models.RoleSuperAdmin).Order("created_at asc").Find(&admins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load accounts"})
		return
	}
	c.JSON(http.StatusOK, admins)
}

func (h *SuperAdminHandler) CreateSuperAdmin(c *gin.Context) {
	var req superAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	mobile := normalizeMobile(req.Mobile)

	var count int64
	h.DB.Model(&models.User{}).Where("mobile = ? AND role = ?", mobile, models.RoleSuperAdmin).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "super admin already exists for this mobile"})
		return
	}

	admin := models.User{Mobile: mobile, Name: req.Name, Role: models.RoleSuperAdmin}
	if err := h.DB.Create(&admin).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, admin)
}

func (h *SuperAdminHandler) DeleteSuperAdmin(c *gin.Context) {
	userID, _ := contextUserID(c)
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if targetID == userID {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot delete your own account"})
		return
	}

	result := h.DB.Where("role = ?", models.RoleSuperAdmin).Delete(&models.User{}, "id = ?", targetID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (h *SuperAdminHandler) companyByParam(c *gin.Context) (models.Company, bool) {
	var company models.Company
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return company, false
	}
	if err := h.DB.First(&company, "id = ?", companyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return company, false
	}
	return company, true
}
