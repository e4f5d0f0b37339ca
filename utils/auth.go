package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nick8/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims carries the identity of the caller.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateJWTToken signs an HS256 token for who, valid for ttl.
func GenerateJWTToken(secret string, who models.Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret is not set in config")
	}
	now := time.Now()
	claims := &Claims{
		ID:    who.ID,
		Email: who.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signedToken, nil
}

// ParseJWTToken verifies tokenString and returns its claims.
func ParseJWTToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IdentityFromToken verifies tokenString and returns the caller it names.
func IdentityFromToken(secret, tokenString string) (models.Identity, error) {
	claims, err := ParseJWTToken(secret, tokenString)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{ID: claims.ID, Email: claims.Email}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
