package handlers

import (
	"bytes"
	"errors"
	"image"
	stddraw "image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
	"hrms-backend/internal/utils"
)

type CompanyHandler struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func NewCompanyHandler(db *gorm.DB, log zerolog.Logger) *CompanyHandler {
	return &CompanyHandler{DB: db, Log: log.With().Str("handler", "company").Logger()}
}

type settingsRequest struct {
	WorkStart   string `json:"workStart" binding:"required"`
	WorkEnd     string `json:"workEnd" binding:"required"`
	WorkingDays string `json:"workingDays" binding:"required"`
	Currency    string `json:"currency"`
}

type holidayRequest struct {
	Date string `json:"date" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (h *CompanyHandler) Info(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var company models.Company
	if err := h.DB.First(&company, "id = ?", companyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}
	c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) GetSettings(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	setting, err := h.ensureSettings(companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load settings"})
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (h *CompanyHandler) ensureSettings(companyID uuid.UUID) (models.CompanySetting, error) {
	var setting models.CompanySetting
	err := h.DB.Where("company_id = ?", companyID).First(&setting).Error
	if err == gorm.ErrRecordNotFound {
		setting = models.CompanySetting{
			CompanyID:   companyID,
			WorkStart:   "09:00",
			WorkEnd:     "18:00",
			WorkingDays: "1,2,3,4,5",
			Currency:    "USD",
		}
		err = h.DB.Create(&setting).Error
	}
	return setting, err
}

func (h *CompanyHandler) UpdateSettings(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if _, err := utils.WorkingMinutesPerDay(req.WorkStart, req.WorkEnd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(utils.ParseWorkingDays(req.WorkingDays)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workingDays"})
		return
	}

	setting, err := h.ensureSettings(companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	setting.WorkStart = req.WorkStart
	setting.WorkEnd = req.WorkEnd
	setting.WorkingDays = req.WorkingDays
	if req.Currency != "" {
		setting.Currency = req.Currency
	}
	if err := h.DB.Save(&setting).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (h *CompanyHandler) ListHolidays(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var holidays []models.Holiday
	if err := h.DB.Where("company_id = ?", companyID).Order("date asc").Find(&holidays).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load holidays"})
		return
	}
	c.JSON(http.StatusOK, holidays)
}

func (h *CompanyHandler) CreateHoliday(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req holidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	holiday := models.Holiday{CompanyID: companyID, Date: date, Name: req.Name}
	if err := h.DB.Create(&holiday).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, holiday)
}

func (h *CompanyHandler) DeleteHoliday(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	holidayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := h.DB.Where("company_id = ?", companyID).Delete(&models.Holiday{}, "id = ?", holidayID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "holiday not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// WorkingDays reports the number of working days in the requested month,
// derived from settings and the holiday calendar.
func (h *CompanyHandler) WorkingDays(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	monthNumber, err := strconv.Atoi(c.Query("month"))
	if err != nil || monthNumber < 1 || monthNumber > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}
	month := time.Month(monthNumber)

	setting, err := h.ensureSettings(companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load settings"})
		return
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	var holidays []models.Holiday
	_ = h.DB.Where("company_id = ? AND date >= ? AND date < ?", companyID, start, end).Find(&holidays).Error

	holidaySet := map[string]bool{}
	for _, holiday := range holidays {
		holidaySet[holiday.Date.Format("2006-01-02")] = true
	}

	count := utils.WorkingDaysInMonth(year, month, utils.ParseWorkingDays(setting.WorkingDays), holidaySet)
	c.JSON(http.StatusOK, gin.H{
		"year":        year,
		"month":       monthNumber,
		"workingDays": count,
	})
}

const logoTargetSize = 256

// UploadBranding accepts a multipart logo upload, center-crops it square,
// scales it down, and stores the png in the company settings row.
func (h *CompanyHandler) UploadBranding(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	file, _, err := c.Request.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo file is required"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, 5<<20))
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read logo file"})
		return
	}

	processed, err := processLogoBytes(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setting, err := h.ensureSettings(companyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	setting.LogoImage = processed
	setting.LogoMime = "image/png"
	if err := h.DB.Save(&setting).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logo updated"})
}

func (h *CompanyHandler) GetBranding(c *gin.Context) {
	companyID, ok := contextCompanyID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var setting models.CompanySetting
	if err := h.DB.Where("company_id = ?", companyID).First(&setting).Error; err != nil || len(setting.LogoImage) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no logo uploaded"})
		return
	}
	c.Data(http.StatusOK, setting.LogoMime, setting.LogoImage)
}

func processLogoBytes(raw []byte) ([]byte, error) {
	mime := http.DetectContentType(raw)
	switch mime {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return nil, errors.New("logo must be png, jpeg, or webp")
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, decodeErr := webp.Decode(bytes.NewReader(raw))
		if decodeErr != nil {
			return nil, errors.New("unable to decode logo")
		}
		img = decoded
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.New("invalid image dimensions")
	}

	cropSize := width
	if height < cropSize {
		cropSize = height
	}
	cropX := (width - cropSize) / 2
	cropY := (height - cropSize) / 2

	cropRect := image.Rect(0, 0, cropSize, cropSize)
	cropped := image.NewRGBA(cropRect)
	srcPoint := image.Point{X: bounds.Min.X + cropX, Y: bounds.Min.Y + cropY}
	stddraw.Draw(cropped, cropRect, img, srcPoint, stddraw.Src)

	resized := image.NewRGBA(image.Rect(0, 0, logoTargetSize, logoTargetSize))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), cropped, cropped.Bounds(), xdraw.Over, nil)

	var out bytes.Buffer
	if err := png.Encode(&out, resized); err != nil {
		return nil, errors.New("unable to encode logo")
	}
	return out.Bytes(), nil
}
