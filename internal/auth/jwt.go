package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/novamind-ai/novamind-api/internal/apperr"
)

const tokenValidity = 7 * 24 * time.Hour

// TokenManager signs and validates the bearer tokens handed to clients after
// a successful OTP verification. Tokens are stateless: nothing is persisted
// server-side and only expiry or secret rotation invalidates them.
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// GenerateToken mints an HS256 token carrying the account id and email.
func (m *TokenManager) GenerateToken(accountID int64, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   accountID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenValidity).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken checks signature and expiry and returns the embedded account
// identity. Any failure is an auth error so handlers respond 401, never 500.
func (m *TokenManager) ValidateToken(tokenString string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Auth("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return 0, "", apperr.Auth("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", apperr.Auth("invalid token")
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", apperr.Auth("invalid token subject")
	}
	email, _ := claims["email"].(string)

	return int64(sub), email, nil
}
