package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what a session token carries between requests. The server keeps
// no session state, the token is the whole session.
type Claims struct {
	AccountID string
	Email     string
}

func NewToken(secret string, ttl time.Duration, accountID, email string) (string, error) {
	const op = "lib.jwt.NewToken"

	claims := jwt.MapClaims{
		"sub":   accountID,
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// ParseToken validates the signature and expiry and returns the embedded
// claims. Any failure collapses into ErrInvalidToken.
func ParseToken(secret, tokenStr string) (Claims, error) {
	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Claims{}, ErrInvalidToken
	}

	email, ok := claims["email"].(string)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	if expFloat, ok := claims["exp"].(float64); !ok || time.Now().Unix() > int64(expFloat) {
		return Claims{}, ErrInvalidToken
	}

	return Claims{AccountID: sub, Email: email}, nil
}
