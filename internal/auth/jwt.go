package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// secretKey returns the HMAC signing key. FARMMART_JWT_SECRET must be
// set in production; the fallback exists so a fresh checkout runs.
func secretKey() []byte {
	if s := os.Getenv("FARMMART_JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev-only-insecure-secret")
}

// GenerateToken creates a signed JWT for a user ID, valid for 72 hours.
func GenerateToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour * 72).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses a token string and returns the user ID it was
// issued for.
func ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userIDFloat, ok := claims["sub"].(float64)
		if !ok {
			return 0, errors.New("invalid subject claim")
		}
		return int64(userIDFloat), nil
	}

	return 0, errors.New("invalid token")
}
