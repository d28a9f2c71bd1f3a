// internal/utils/jwt.go
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	tokenIssuer     = "agriconnect"
	accessAudience  = "access"
	refreshAudience = "refresh"
)

var errInvalidToken = errors.New("invalid token")

// JWTClaims are carried by access tokens. Refresh tokens hold only the
// registered claims with the refresh audience.
type JWTClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func registeredClaims(userID uuid.UUID, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{audience},
	}
}

func sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

func keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return jwtSecret, nil
}

func GenerateJWT(userID uuid.UUID, role string, ttlHours int) (string, error) {
	return generateJWT(userID, role, time.Duration(ttlHours)*time.Hour)
}

func generateJWT(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	return sign(JWTClaims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: registeredClaims(userID, accessAudience, ttl),
	})
}

// ValidateJWT parses an access token. Refresh tokens are rejected.
func ValidateJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == uuid.Nil || !claims.VerifyAudience(accessAudience, true) {
		return nil, errInvalidToken
	}
	return claims, nil
}

func GenerateRefreshToken(userID uuid.UUID, ttlHours int) (string, error) {
	return sign(registeredClaims(userID, refreshAudience, time.Duration(ttlHours)*time.Hour))
}

// ValidateRefreshToken returns the user a refresh token was issued to.
func ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFunc)
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid || !claims.VerifyAudience(refreshAudience, true) {
		return uuid.Nil, errInvalidToken
	}
	return uuid.Parse(claims.Subject)
}
