package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
)

var ErrInvalidToken = errors.New("invalid access token")

type AccessClaims struct {
	UserID int64
	Role   string
}

// NewToken issues an access token. Production tokens come from the auth service;
// this is used by tests and local tooling.
func NewToken(userID int64, role string, ttl time.Duration, secret string) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = userID
	claims["role"] = role
	claims["exp"] = time.Now().Add(ttl).Unix()

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseAccessToken(tokenStr, secret string) (AccessClaims, error) {
	const op = "jwt.ParseAccessToken"

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return AccessClaims{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, ok := claims["uid"].(float64)
	if !ok || uid <= 0 {
		return AccessClaims{}, fmt.Errorf("%s: %w: missing uid", op, ErrInvalidToken)
	}

	role, _ := claims["role"].(string)
	if role != RoleTenant && role != RoleLandlord {
		return AccessClaims{}, fmt.Errorf("%s: %w: unknown role", op, ErrInvalidToken)
	}

	return AccessClaims{UserID: int64(uid), Role: role}, nil
}
