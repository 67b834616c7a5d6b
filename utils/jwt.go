package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessIssuer  = "salontime-backend"
	refreshIssuer = "salontime-refresh"
)

// Token lifetimes. main overrides them from config.
var (
	AccessTokenTTL  = 2 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

func getJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("FATAL: JWT_SECRET environment variable is not set. Refusing to start with an insecure configuration.")
	}
	return secret
}

func signClaims(userID uuid.UUID, email, role, issuer string, ttl time.Duration) (string, error) {
	secret := getJWTSecret()
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func GenerateToken(userID uuid.UUID, email, role string) (string, error) {
	return signClaims(userID, email, role, accessIssuer, AccessTokenTTL)
}

// GenerateRefreshToken signs a refresh token. Each call yields a distinct
// token (unique jti) so stored tokens can be rotated.
func GenerateRefreshToken(userID uuid.UUID, email, role string) (string, error) {
	return signClaims(userID, email, role, refreshIssuer, RefreshTokenTTL)
}

func parseToken(tokenString, issuer string) (*Claims, error) {
	secret := getJWTSecret()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// ValidateToken parses an access token.
func ValidateToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, accessIssuer)
}

// ValidateRefreshToken parses a refresh token. Access tokens are rejected.
func ValidateRefreshToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, refreshIssuer)
}
