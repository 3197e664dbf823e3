package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrms-backend/internal/models"
	"hrms-backend/internal/sms"
	"hrms-backend/internal/utils"
)

func authRouter(database *gorm.DB) *gin.Engine {
	handler := NewAuthHandler(database, testConfig(), sms.NewSender(testLogger(), true), testLogger())
	router := gin.New()
	router.POST("/auth/otp/send", handler.SendOTP)
	router.POST("/auth/otp/verify", handler.VerifyOTP)
	router.POST("/auth/select-role", handler.SelectRole)
	return router
}

func seedOTP(t *testing.T, database *gorm.DB, mobile, code string) {
	t.Helper()
	hash, err := utils.HashOTP(code)
	if err != nil {
		t.Fatalf("hash otp: %v", err)
	}
	otp := models.OTP{Mobile: mobile, CodeHash: hash, ExpiresAt: time.Now().Add(10 * time.Minute)}
	if err := database.Create(&otp).Error; err != nil {
		t.Fatalf("seed otp: %v", err)
	}
}

func TestVerifyOTPSingleAccount(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	user := models.User{CompanyID: &company.ID, Mobile: "15550001111", Name: "Ann", Role: models.RoleAdmin}
	if err := database.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	seedOTP(t, database, "15550001111", "123456")

	router := authRouter(database)
	rec := doJSON(t, router, http.MethodPost, "/auth/otp/verify",
		map[string]string{"mobile": "15550001111", "otp": "123456"})
	expectStatus(t, rec, http.StatusOK)

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	decodeBody(t, rec, &resp)
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected tokens, got %s", rec.Body.String())
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	user := models.User{CompanyID: &company.ID, Mobile: "15550001111", Name: "Ann", Role: models.RoleAdmin}
	if err := database.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	seedOTP(t, database, "15550001111", "123456")

	router := authRouter(database)
	rec := doJSON(t, router, http.MethodPost, "/auth/otp/verify",
		map[string]string{"mobile": "15550001111", "otp": "654321"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestVerifyOTPMultipleRolesRequiresSelection(t *testing.T) {
	database := testDB(t)
	companyA := seedCompany(t, database, "Acme")
	companyB := seedCompany(t, database, "Globex")
	users := []models.User{
		{CompanyID: &companyA.ID, Mobile: "15550002222", Name: "Bea", Role: models.RoleAdmin},
		{CompanyID: &companyB.ID, Mobile: "15550002222", Name: "Bea", Role: models.RoleEmployee},
	}
	for i := range users {
		if err := database.Create(&users[i]).Error; err != nil {
			t.Fatal(err)
		}
	}
	seedOTP(t, database, "15550002222", "123456")

	router := authRouter(database)
	rec := doJSON(t, router, http.MethodPost, "/auth/otp/verify",
		map[string]string{"mobile": "15550002222", "otp": "123456"})
	expectStatus(t, rec, http.StatusOK)

	var resp struct {
		RequireSelection bool `json:"requireSelection"`
		Options          []struct {
			Role        string `json:"role"`
			CompanyID   string `json:"companyId"`
			CompanyName string `json:"companyName"`
		} `json:"options"`
		SelectionToken string `json:"selectionToken"`
		AccessToken    string `json:"accessToken"`
	}
	decodeBody(t, rec, &resp)
	if !resp.RequireSelection {
		t.Fatalf("expected requireSelection, got %s", rec.Body.String())
	}
	if resp.AccessToken != "" {
		t.Error("no access token may be issued before a role is selected")
	}
	if len(resp.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(resp.Options))
	}
	if resp.SelectionToken == "" {
		t.Fatal("expected a selection token")
	}

	// Completing the selection issues tokens for the chosen account.
	rec = doJSON(t, router, http.MethodPost, "/auth/select-role", map[string]string{
		"selectionToken": resp.SelectionToken,
		"role":           models.RoleEmployee,
		"companyId":      companyB.ID.String(),
	})
	expectStatus(t, rec, http.StatusOK)

	var login struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	decodeBody(t, rec, &login)
	if login.AccessToken == "" {
		t.Fatal("expected access token after selection")
	}
	if login.User.Role != models.RoleEmployee {
		t.Errorf("expected employee role, got %q", login.User.Role)
	}
}

func TestVerifyOTPCannotBeReused(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Acme")
	user := models.User{CompanyID: &company.ID, Mobile: "15550003333", Name: "Cy", Role: models.RoleAdmin}
	if err := database.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	seedOTP(t, database, "15550003333", "123456")

	router := authRouter(database)
	rec := doJSON(t, router, http.MethodPost, "/auth/otp/verify",
		map[string]string{"mobile": "15550003333", "otp": "123456"})
	expectStatus(t, rec, http.StatusOK)

	rec = doJSON(t, router, http.MethodPost, "/auth/otp/verify",
		map[string]string{"mobile": "15550003333", "otp": "123456"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestLoginSuspendedCompany(t *testing.T) {
	database := testDB(t)
	company := seedCompany(t, database, "Frozen Inc")
	if err := database.Model(&models.Company{}).Where("id = ?", company.ID).
		Update("status", models.CompanyStatusSuspended).Error; err != nil {
		t.Fatal(err)
	}
	user := models.User{CompanyID: &company.ID, Mobile: "15550004444", Name: "Dee", Role: models.RoleAdmin}
	if err := database.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	seedOTP(t, database, "15550004444", "123456")

	router := authRouter(database)
	rec := doJSON(t, router, http.MethodPost, "/auth/otp/verify",
		map[string]string{"mobile": "15550004444", "otp": "123456"})
	expectStatus(t, rec, http.StatusForbidden)
}
