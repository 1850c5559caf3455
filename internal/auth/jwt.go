package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTAuthenticator struct {
	secret string
	exp    time.Duration
	aud    string
	iss    string
}

func NewJWTAuthenticator(secret string, exp time.Duration, aud, iss string) *JWTAuthenticator {
	return &JWTAuthenticator{secret, exp, aud, iss}
}

// GenerateToken signs an access token whose subject claim is the user ID.
func (a *JWTAuthenticator) GenerateToken(userID int64, email string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(a.exp).Unix(),
		"iat":   time.Now().Unix(),
		"nbf":   time.Now().Unix(),
		"iss":   a.iss,
		"aud":   a.aud,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(a.secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken checks the signature and expiry of an access token.
func (a *JWTAuthenticator) ValidateToken(token string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
}
