package secure

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrEmptyCardID    = errors.New("card_id is required")
	ErrEmptySignerKey = errors.New("signing key is required")
)

// HMACSigner is a local signing capability: it mints a short-lived HS256 JWT
// whose subject is the cardID, then computes a detached HMAC-SHA256 signature
// over the compact token. It stands in for the secure-enclave signer in dev
// and test environments.
type HMACSigner struct {
	key []byte
	ttl time.Duration
}

// DefaultTokenTTL bounds how long a minted token stays usable.
const DefaultTokenTTL = 2 * time.Minute

func NewHMACSigner(key []byte, ttl time.Duration) (*HMACSigner, error) {
	if len(key) == 0 {
		return nil, ErrEmptySignerKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &HMACSigner{key: key, ttl: ttl}, nil
}

func (s *HMACSigner) Sign(_ context.Context, cardID string) (SignedToken, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return SignedToken{}, ErrEmptyCardID
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   cardID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return SignedToken{}, fmt.Errorf("sign token for card: %w", err)
	}

	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(token))

	return SignedToken{
		Token:     token,
		Signature: hex.EncodeToString(mac.Sum(nil)),
		ExpiresAt: expiresAt,
	}, nil
}
