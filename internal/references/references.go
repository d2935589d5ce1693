package references

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/lib/verification"
	"rentcard_service/internal/metrics"
	"rentcard_service/internal/models"
	"rentcard_service/internal/storage"
)

const (
	CodeExpiredToken    = "EXPIRED_TOKEN"
	CodeAlreadyVerified = "ALREADY_VERIFIED"
	CodeInvalidToken    = "INVALID_TOKEN"
)

// Error is a verification failure a reference-giver can act on.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrExpiredToken    = &Error{Code: CodeExpiredToken, Message: "verification link has expired"}
	ErrAlreadyVerified = &Error{Code: CodeAlreadyVerified, Message: "reference is already verified"}
	ErrInvalidToken    = &Error{Code: CodeInvalidToken, Message: "invalid verification link"}
)

const releaseTimeout = 2 * time.Second

var (
	ErrReferenceNotFound = errors.New("reference not found")
	ErrReferenceVerified = errors.New("reference already verified")
)

type ReferenceProvider interface {
	ReferenceForVerification(ctx context.Context, referenceID int64) (models.ReferenceDetails, error)
}

type TokenStorage interface {
	SaveVerificationToken(ctx context.Context, t models.VerificationToken) error
	VerificationToken(ctx context.Context, tokenHash string) (models.VerificationToken, error)
	CompleteVerification(ctx context.Context, tokenHash string, sub models.VerificationSubmission) error
}

type TokenCache interface {
	MarkTokenUsed(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	IsTokenUsed(ctx context.Context, tokenID string) (bool, error)
	ReleaseToken(ctx context.Context, tokenID string) error
	SetTokenPending(ctx context.Context, tokenID string, referenceID int64, ttl time.Duration) error
	DeleteTokenPending(ctx context.Context, tokenID string) error
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type References struct {
	log         *slog.Logger
	refProvider ReferenceProvider
	tokens      TokenStorage
	cache       TokenCache
	publisher   Publisher
	tokenSecret string
	tokenTTL    time.Duration
	publicURL   string
}

func New(
	log *slog.Logger,
	refProvider ReferenceProvider,
	tokens TokenStorage,
	cache TokenCache,
	publisher Publisher,
	tokenSecret string,
	tokenTTL time.Duration,
	publicURL string,
) *References {
	return &References{
		log:         log,
		refProvider: refProvider,
		tokens:      tokens,
		cache:       cache,
		publisher:   publisher,
		tokenSecret: tokenSecret,
		tokenTTL:    tokenTTL,
		publicURL:   publicURL,
	}
}

// RequestVerification issues a verification link for a reference the tenant
// owns and e-mails it to the reference-giver.
func (s *References) RequestVerification(ctx context.Context, tenantID, referenceID int64) (time.Time, error) {
	const op = "references.RequestVerification"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("reference_id", referenceID),
	)

	ref, err := s.refProvider.ReferenceForVerification(ctx, referenceID)
	if err != nil {
		if errors.Is(err, storage.ErrReferenceNotFound) {
			return time.Time{}, ErrReferenceNotFound
		}

		log.Error("failed to get reference", sl.Err(err))
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if ref.TenantID != tenantID {
		log.Warn("reference belongs to another tenant", slog.Int64("uid", tenantID))
		return time.Time{}, ErrReferenceNotFound
	}

	if ref.IsVerified {
		return time.Time{}, ErrReferenceVerified
	}

	token, claims, err := verification.NewReferenceToken(referenceID, s.tokenTTL, s.tokenSecret)
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	err = s.tokens.SaveVerificationToken(ctx, models.VerificationToken{
		ID:          claims.TokenID,
		ReferenceID: referenceID,
		TokenHash:   verification.HashToken(token),
		ExpiresAt:   claims.ExpiresAt,
	})
	if err != nil {
		log.Error("failed to save verification token", sl.Err(err))
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetTokenPending(ctx, claims.TokenID, referenceID, s.tokenTTL); err != nil {
		log.Warn("failed to record pending token", sl.Err(err))
	}

	msg := models.Message{
		Email:   ref.Email,
		Subject: fmt.Sprintf("%s asked you to verify a rental reference", ref.TenantName),
		Body: fmt.Sprintf(
			"Hello %s,\n\n%s listed you as a reference on MyRentCard. Please confirm the reference and share a short rating using the link below.",
			ref.Name, ref.TenantName,
		),
		Link:    verification.Link(s.publicURL, token),
		Purpose: models.PurposeReferenceVerification,
		Channel: models.ChannelEmail,
	}

	if err := s.publisher.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish verification request", sl.Err(err))
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.ReferenceVerifications.WithLabelValues("request", metrics.OutcomeSuccess).Inc()

	log.Info("verification requested", slog.Time("expires_at", claims.ExpiresAt))

	return claims.ExpiresAt, nil
}

// ValidateToken resolves a verification link to the reference it vouches for.
func (s *References) ValidateToken(ctx context.Context, token string) (models.ReferenceVerificationInfo, error) {
	const op = "references.ValidateToken"

	log := s.log.With(slog.String("op", op))

	info, err := s.validate(ctx, log, token)
	record("validate", err)

	return info, err
}

func (s *References) validate(ctx context.Context, log *slog.Logger, token string) (models.ReferenceVerificationInfo, error) {
	const op = "references.ValidateToken"

	claims, err := s.parse(token)
	if err != nil {
		log.Info("token rejected", sl.Err(err))
		return models.ReferenceVerificationInfo{}, err
	}

	log = log.With(slog.Int64("reference_id", claims.ReferenceID))

	used, err := s.cache.IsTokenUsed(ctx, claims.TokenID)
	if err != nil {
		log.Warn("failed to check used marker", sl.Err(err))
	}
	if used {
		return models.ReferenceVerificationInfo{}, ErrAlreadyVerified
	}

	row, err := s.tokens.VerificationToken(ctx, verification.HashToken(token))
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Info("token not issued by this service")
			return models.ReferenceVerificationInfo{}, ErrInvalidToken
		}

		log.Error("failed to get token", sl.Err(err))
		return models.ReferenceVerificationInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	switch {
	case row.ReferenceID != claims.ReferenceID:
		return models.ReferenceVerificationInfo{}, ErrInvalidToken
	case row.UsedAt != nil:
		return models.ReferenceVerificationInfo{}, ErrAlreadyVerified
	case row.IsExpired():
		return models.ReferenceVerificationInfo{}, ErrExpiredToken
	}

	ref, err := s.reference(ctx, log, claims.ReferenceID)
	if err != nil {
		return models.ReferenceVerificationInfo{}, err
	}

	if ref.IsVerified {
		return models.ReferenceVerificationInfo{}, ErrAlreadyVerified
	}

	return models.ReferenceVerificationInfo{
		ID:           ref.ID,
		Name:         ref.Name,
		Relationship: ref.Relationship,
		TenantName:   ref.TenantName,
		IsVerified:   ref.IsVerified,
	}, nil
}

// SubmitVerification records the reference-giver's feedback. A token is
// accepted once; later submissions fail with ErrAlreadyVerified.
func (s *References) SubmitVerification(
	ctx context.Context,
	token string,
	sub models.VerificationSubmission,
) (string, error) {
	const op = "references.SubmitVerification"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("reference_id", sub.ReferenceID),
	)

	tenantName, err := s.submit(ctx, log, token, sub)
	record("submit", err)

	return tenantName, err
}

func (s *References) submit(
	ctx context.Context,
	log *slog.Logger,
	token string,
	sub models.VerificationSubmission,
) (string, error) {
	const op = "references.SubmitVerification"

	claims, err := s.parse(token)
	if err != nil {
		log.Info("token rejected", sl.Err(err))
		return "", err
	}

	if claims.ReferenceID != sub.ReferenceID {
		log.Warn("submission does not match token subject", slog.Int64("token_reference_id", claims.ReferenceID))
		return "", ErrInvalidToken
	}

	ref, err := s.reference(ctx, log, claims.ReferenceID)
	if err != nil {
		return "", err
	}

	if ref.IsVerified {
		return "", ErrAlreadyVerified
	}

	ttl := time.Until(claims.ExpiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}

	claimed, err := s.cache.MarkTokenUsed(ctx, claims.TokenID, ttl)
	if err != nil {
		// Postgres still enforces single use.
		log.Warn("failed to set used marker", sl.Err(err))
		claimed = true
	}
	if !claimed {
		log.Info("token already claimed")
		return "", ErrAlreadyVerified
	}

	err = s.tokens.CompleteVerification(ctx, verification.HashToken(token), sub)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyVerified) {
			return "", ErrAlreadyVerified
		}

		s.release(ctx, log, claims.TokenID)

		if errors.Is(err, storage.ErrTokenNotFound) {
			return "", ErrInvalidToken
		}

		log.Error("failed to complete verification", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.DeleteTokenPending(ctx, claims.TokenID); err != nil {
		log.Warn("failed to delete pending token", sl.Err(err))
	}

	s.notifyTenant(ctx, log, ref, sub.Rating)

	log.Info("reference verified", slog.String("rating", sub.Rating))

	return ref.TenantName, nil
}

func (s *References) parse(token string) (verification.Claims, error) {
	claims, err := verification.ParseReferenceToken(token, s.tokenSecret)
	if err != nil {
		if errors.Is(err, verification.ErrTokenExpired) {
			return verification.Claims{}, ErrExpiredToken
		}

		return verification.Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (s *References) reference(ctx context.Context, log *slog.Logger, referenceID int64) (models.ReferenceDetails, error) {
	const op = "references.reference"

	ref, err := s.refProvider.ReferenceForVerification(ctx, referenceID)
	if err != nil {
		if errors.Is(err, storage.ErrReferenceNotFound) {
			log.Info("reference no longer exists")
			return models.ReferenceDetails{}, ErrInvalidToken
		}

		log.Error("failed to get reference", sl.Err(err))
		return models.ReferenceDetails{}, fmt.Errorf("%s: %w", op, err)
	}

	return ref, nil
}

// release must run even after the request context is done.
func (s *References) release(ctx context.Context, log *slog.Logger, tokenID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := s.cache.ReleaseToken(ctx, tokenID); err != nil {
		log.Warn("failed to release used marker", sl.Err(err))
	}
}

func (s *References) notifyTenant(ctx context.Context, log *slog.Logger, ref models.ReferenceDetails, rating string) {
	if ref.TenantEmail == "" {
		return
	}

	msg := models.Message{
		Email:   ref.TenantEmail,
		Subject: "Your reference has been verified",
		Body: fmt.Sprintf(
			"Hello %s,\n\n%s has verified your reference with a rating of %q.",
			ref.TenantName, ref.Name, rating,
		),
		Purpose: models.PurposeReferenceVerified,
		Channel: models.ChannelEmail,
	}

	if err := s.publisher.SendMessage(ctx, msg); err != nil {
		log.Error("failed to notify tenant", sl.Err(err))
	}
}

func record(operation string, err error) {
	outcome := metrics.OutcomeSuccess

	var verr *Error
	switch {
	case err == nil:
	case errors.As(err, &verr):
		switch verr.Code {
		case CodeExpiredToken:
			outcome = metrics.OutcomeExpired
		case CodeAlreadyVerified:
			outcome = metrics.OutcomeAlreadyVerified
		default:
			outcome = metrics.OutcomeInvalid
		}
	default:
		outcome = metrics.OutcomeError
	}

	metrics.ReferenceVerifications.WithLabelValues(operation, outcome).Inc()
}
