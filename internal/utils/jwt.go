package utils

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	Role       string `json:"role"`
	CompanyID  string `json:"companyId,omitempty"`
	EmployeeID string `json:"employeeId,omitempty"`
	// Impersonated is set on tokens a super admin uses to act inside a
	// tenant. ReadOnly impersonation tokens are refused all mutating verbs.
	Impersonated bool `json:"impersonated,omitempty"`
	ReadOnly     bool `json:"readOnly,omitempty"`
	jwt.RegisteredClaims
}

type TokenInput struct {
	UserID       string
	Role         string
	CompanyID    string
	EmployeeID   string
	Impersonated bool
	ReadOnly     bool
}

func GenerateAccessToken(input TokenInput, secret string, minutes int) (string, error) {
	expiration := time.Now().Add(time.Duration(minutes) * time.Minute)
	claims := AccessClaims{
		Role:         input.Role,
		CompanyID:    input.CompanyID,
		EmployeeID:   input.EmployeeID,
		Impersonated: input.Impersonated,
		ReadOnly:     input.ReadOnly,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.UserID,
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func GenerateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
