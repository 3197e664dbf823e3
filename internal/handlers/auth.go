package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hrms-backend/internal/config"
	"hrms-backend/internal/middleware"
	"hrms-backend/internal/models"
	"hrms-backend/internal/sms"
	"hrms-backend/internal/utils"
)

type AuthHandler struct {
	DB     *gorm.DB
	Cfg    config.Config
	Sender *sms.Sender
	Log    zerolog.Logger
}

func NewAuthHandler(db *gorm.DB, cfg config.Config, sender *sms.Sender, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg, Sender: sender, Log: log.With().Str("handler", "auth").Logger()}
}

type sendOTPRequest struct {
	Mobile string `json:"mobile" binding:"required"`
}

type verifyOTPRequest struct {
	Mobile string `json:"mobile" binding:"required"`
	OTP    string `json:"otp" binding:"required,len=6"`
}

type selectRoleRequest struct {
	SelectionToken string `json:"selectionToken" binding:"required"`
	Role           string `json:"role" binding:"required"`
	// CompanyID disambiguates when the same role exists in several tenants.
	CompanyID string `json:"companyId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type roleOption struct {
	Role        string `json:"role"`
	CompanyID   string `json:"companyId,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}

func normalizeMobile(value string) string {
	return strings.TrimSpace(value)
}

func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	mobile := normalizeMobile(req.Mobile)

	var users []models.User
	if err := h.DB.Where("mobile = ?", mobile).Find(&users).Error; err != nil || len(users) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "mobile not registered"})
		return
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "otp generation failed"})
		return
	}
	codeHash, err := utils.HashOTP(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "otp generation failed"})
		return
	}

	otp := models.OTP{
		Mobile:    mobile,
		CodeHash:  codeHash,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.OtpMinutes) * time.Minute),
	}
	if err := h.DB.Create(&otp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "otp storage failed"})
		return
	}

	if err := h.Sender.SendOTP(h.gatewayFor(users), mobile, code); err != nil {
		h.Log.Error().Err(err).Msg("sms send failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sms failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "otp sent"})
}

// gatewayFor picks the SMS gateway of the first company-scoped account on
// this mobile, falling back to the env-configured gateway.
func (h *AuthHandler) gatewayFor(users []models.User) sms.Config {
	for _, user := range users {
		if user.CompanyID == nil {
			continue
		}
		var gateway models.SMSGateway
		if err := h.DB.Where("company_id = ? AND enabled = ?", *user.CompanyID, true).First(&gateway).Error; err == nil {
			return sms.Config{URL: gateway.URL, APIKey: gateway.APIKey, SenderID: gateway.SenderID}
		}
	}
	return sms.Config{URL: h.Cfg.SmsFallbackURL, APIKey: h.Cfg.SmsFallbackKey, SenderID: h.Cfg.SmsSenderID}
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	mobile := normalizeMobile(req.Mobile)

	var otp models.OTP
	if err := h.DB.Where("mobile = ? AND used_at IS NULL AND expires_at > ?", mobile, time.Now()).
		Order("created_at desc").First(&otp).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "otp invalid or expired"})
		return
	}
	if !utils.CheckOTP(otp.CodeHash, req.OTP) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "otp invalid or expired"})
		return
	}

	var users []models.User
	if err := h.DB.Where("mobile = ?", mobile).Find(&users).Error; err != nil || len(users) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "mobile not registered"})
		return
	}

	now := time.Now()
	otp.UsedAt = &now
	_ = h.DB.Save(&otp).Error

	if len(users) > 1 {
		options := make([]roleOption, 0, len(users))
		for _, user := range users {
			option := roleOption{Role: user.Role}
			if user.CompanyID != nil {
				option.CompanyID = user.CompanyID.String()
				var company models.Company
				if err := h.DB.First(&company, "id = ?", *user.CompanyID).Error; err == nil {
					option.CompanyName = company.Name
				}
			}
			options = append(options, option)
		}

		selectionToken, err := h.issueSelectionToken(mobile)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"requireSelection": true,
			"options":          options,
			"selectionToken":   selectionToken,
		})
		return
	}

	h.completeLogin(c, users[0])
}

func (h *AuthHandler) SelectRole(c *gin.Context) {
	var req selectRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	mobile, err := h.parseSelectionToken(req.SelectionToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid selection token"})
		return
	}

	query := h.DB.Where("mobile = ? AND role = ?", mobile, req.Role)
	if req.CompanyID != "" {
		query = query.Where("company_id = ?", req.CompanyID)
	}

	var user models.User
	if err := query.First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no account with that role"})
		return
	}

	h.completeLogin(c, user)
}

func (h *AuthHandler) completeLogin(c *gin.Context, user models.User) {
	if user.CompanyID != nil {
		var company models.Company
		if err := h.DB.First(&company, "id = ?", *user.CompanyID).Error; err == nil &&
			company.Status == models.CompanyStatusSuspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "company suspended"})
			return
		}
	}

	accessToken, refreshToken, err := h.issueTokens(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         sessionUser(user),
	})
}

func sessionUser(user models.User) gin.H {
	out := gin.H{
		"id":     user.ID,
		"mobile": user.Mobile,
		"name":   user.Name,
		"role":   user.Role,
	}
	if user.CompanyID != nil {
		out["companyId"] = user.CompanyID
	}
	if user.EmployeeID != nil {
		out["employeeId"] = user.EmployeeID
	}
	return out
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	var stored models.RefreshToken
	if err := h.DB.Where("token = ? AND revoked_at IS NULL AND expires_at > ?", req.RefreshToken, time.Now()).
		First(&stored).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", stored.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	now := time.Now()
	stored.RevokedAt = &now
	_ = h.DB.Save(&stored).Error

	h.completeLogin(c, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
		return
	}

	now := time.Now()
	_ = h.DB.Model(&models.RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", req.RefreshToken).
		Update("revoked_at", now).Error

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	out := sessionUser(user)
	if impersonated, exists := c.Get(middleware.ContextImpersonated); exists {
		out["impersonated"] = impersonated
	}
	c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) issueTokens(user models.User) (string, string, error) {
	input := utils.TokenInput{
		UserID: user.ID.String(),
		Role:   user.Role,
	}
	if user.CompanyID != nil {
		input.CompanyID = user.CompanyID.String()
	}
	if user.EmployeeID != nil {
		input.EmployeeID = user.EmployeeID.String()
	}

	accessToken, err := utils.GenerateAccessToken(input, h.Cfg.JwtSecret, h.Cfg.JwtAccessMinutes)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}

	expiresAt := time.Now().Add(time.Duration(h.Cfg.JwtRefreshHours) * time.Hour)
	if err := h.DB.Create(&models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
	}).Error; err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

type selectionClaims struct {
	Mobile string `json:"mobile"`
	jwt.RegisteredClaims
}

func (h *AuthHandler) issueSelectionToken(mobile string) (string, error) {
	claims := selectionClaims{
		Mobile: mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "role-selection",
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.Cfg.JwtSecret))
}

func (h *AuthHandler) parseSelectionToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &selectionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(h.Cfg.JwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	claims, ok := token.Claims.(*selectionClaims)
	if !ok || claims.Subject != "role-selection" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.Mobile, nil
}
