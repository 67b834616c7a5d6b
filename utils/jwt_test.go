package utils

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func init() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "tokengen@test.com", "client")
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	if token == "" {
		t.Fatal("expected non-empty token string")
	}

	// header.payload.signature
	if dots := strings.Count(token, "."); dots != 2 {
		t.Errorf("expected JWT with 2 dots, got %d dots", dots)
	}
}

func TestValidateToken(t *testing.T) {
	userID := uuid.New()
	email := "validate@test.com"
	role := "salon_owner"

	token, err := GenerateToken(userID, email, role)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("expected no error validating token, got: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != email {
		t.Errorf("expected email %s, got %s", email, claims.Email)
	}
	if claims.Role != role {
		t.Errorf("expected role %s, got %s", role, claims.Role)
	}
	if claims.Issuer != "salontime-backend" {
		t.Errorf("expected issuer 'salontime-backend', got %s", claims.Issuer)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	secret := os.Getenv("JWT_SECRET")

	claims := Claims{
		UserID: uuid.New(),
		Email:  "expired@test.com",
		Role:   "client",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			Issuer:    "salontime-backend",
		},
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, err := tokenObj.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(expiredToken); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	claims := Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "salontime-backend",
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(forged); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestRefreshTokenNotAcceptedAsAccessToken(t *testing.T) {
	userID := uuid.New()
	refresh, err := GenerateRefreshToken(userID, "refresh@test.com", "client")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateToken(refresh); err == nil {
		t.Error("refresh token must not validate as an access token")
	}

	claims, err := ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("expected refresh token to validate, got: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("expected user_id %s, got %s", userID, claims.UserID)
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	userID := uuid.New()
	a, _ := GenerateRefreshToken(userID, "same@test.com", "client")
	b, _ := GenerateRefreshToken(userID, "same@test.com", "client")
	if a == b {
		t.Error("expected consecutive refresh tokens to differ")
	}
}
