package verification

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rentcard_service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("verification token expired")
	ErrTokenInvalid = errors.New("verification token invalid")
)

// Claims are the verified contents of a reference verification token.
type Claims struct {
	ReferenceID int64
	TokenID     string
	ExpiresAt   time.Time
}

type tokenClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func NewReferenceToken(referenceID int64, tokenTTL time.Duration, secret string) (string, Claims, error) {
	const op = "verification.NewReferenceToken"

	now := time.Now()

	claims := tokenClaims{
		Purpose: models.PurposeReferenceVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(referenceID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", Claims{}, fmt.Errorf("%s: %w", op, err)
	}

	return token, Claims{
		ReferenceID: referenceID,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// ParseReferenceToken returns ErrTokenExpired for a genuine but expired token
// and ErrTokenInvalid for anything else that fails verification.
func ParseReferenceToken(tokenStr, secret string) (Claims, error) {
	const op = "verification.ParseReferenceToken"

	var claims tokenClaims

	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return Claims{}, fmt.Errorf("%s: %w: %v", op, ErrTokenInvalid, err)
	}

	if claims.Purpose != models.PurposeReferenceVerification {
		return Claims{}, fmt.Errorf("%s: %w: invalid token purpose", op, ErrTokenInvalid)
	}

	referenceID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || referenceID <= 0 {
		return Claims{}, fmt.Errorf("%s: %w: invalid sub claim", op, ErrTokenInvalid)
	}

	if claims.ID == "" {
		return Claims{}, fmt.Errorf("%s: %w: missing jti claim", op, ErrTokenInvalid)
	}

	return Claims{
		ReferenceID: referenceID,
		TokenID:     claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// HashToken is the storage key for a raw token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func Link(publicURL, token string) string {
	return fmt.Sprintf("%s/verify-reference/%s", strings.TrimRight(publicURL, "/"), url.PathEscape(token))
}
