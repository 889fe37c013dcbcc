package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jlrojas/cardvault/internal/cardvault/secure"
	"github.com/jlrojas/cardvault/internal/cardvault/store"
	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

var (
	ErrInvalidUserID  = errors.New("user_id is required")
	ErrInvalidCardID  = errors.New("card_id is required")
	ErrAccessDenied   = errors.New("access denied for this card")
	ErrSigningFailure = errors.New("failed to generate secure token")
)

// TokenIssuer converts an authorized access request into a short-lived
// signed token. Every issuance attempt that reaches the ownership check
// leaves exactly one audit record behind, whichever way it ends. An audit
// append that fails is allowed to fail the whole call: a security-relevant
// action that cannot be audited is treated as not having safely happened.
type TokenIssuer struct {
	registry *OwnershipRegistry
	signer   secure.Signer
	audit    store.AuditStore
	logger   *zap.Logger
}

func NewTokenIssuer(reg *OwnershipRegistry, signer secure.Signer, audit store.AuditStore, logger *zap.Logger) *TokenIssuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenIssuer{registry: reg, signer: signer, audit: audit, logger: logger}
}

func (s *TokenIssuer) IssueToken(ctx context.Context, userID, cardID string) (types.SecureToken, error) {
	userID = strings.TrimSpace(userID)
	cardID = strings.TrimSpace(cardID)

	if userID == "" {
		return types.SecureToken{}, ErrInvalidUserID
	}
	if cardID == "" {
		return types.SecureToken{}, ErrInvalidCardID
	}

	if !s.registry.OwnsCard(ctx, userID, cardID) {
		if err := s.audit.Append(ctx, types.SecurityEvent{
			EventType: types.EventUnauthorizedAccess,
			CardID:    cardID,
			UserID:    userID,
			RiskLevel: types.RiskHigh,
			Metadata:  types.Metadata{"reason": "ownership_check_failed"},
		}); err != nil {
			return types.SecureToken{}, fmt.Errorf("audit unauthorized access: %w", err)
		}
		s.logger.Warn("token denied",
			zap.String("user_id", userID),
			zap.String("card_id", cardID),
		)
		return types.SecureToken{}, ErrAccessDenied
	}

	signed, err := secure.CallSigner(ctx, s.signer, cardID)
	if err != nil {
		if aerr := s.audit.Append(ctx, types.SecurityEvent{
			EventType: types.EventSecureViewFailed,
			CardID:    cardID,
			UserID:    userID,
			RiskLevel: types.RiskMedium,
			Metadata:  types.Metadata{"stage": "signing"},
		}); aerr != nil {
			return types.SecureToken{}, fmt.Errorf("audit signing failure: %w", aerr)
		}
		return types.SecureToken{}, fmt.Errorf("%w: %w", ErrSigningFailure, err)
	}

	// Token length and expiry only — never the raw token or signature.
	if err := s.audit.Append(ctx, types.SecurityEvent{
		EventType: types.EventTokenGenerated,
		CardID:    cardID,
		UserID:    userID,
		RiskLevel: types.RiskLow,
		Metadata: types.Metadata{
			"token_length": len(signed.Token),
			"expires_at":   signed.ExpiresAt,
		},
	}); err != nil {
		return types.SecureToken{}, fmt.Errorf("audit token generation: %w", err)
	}

	s.logger.Info("token issued",
		zap.String("user_id", userID),
		zap.String("card_id", cardID),
	)

	return types.SecureToken{
		CardID:    cardID,
		Token:     signed.Token,
		Signature: signed.Signature,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

// RenewToken re-issues a token for the card, walking the same authorization
// and audit path as the initial issuance.
func (s *TokenIssuer) RenewToken(ctx context.Context, userID, cardID string) (types.SecureToken, error) {
	return s.IssueToken(ctx, userID, cardID)
}

// ValidateToken reports whether a token string is usable for a secure-view
// call. Deliberately lenient: any non-empty string passes, including
// whitespace-only values, matching the token format in production today.
func ValidateToken(token string) bool {
	return len(token) > 0
}
