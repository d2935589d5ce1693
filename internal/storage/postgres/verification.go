package postgres

import (
	"context"
	"errors"
	"fmt"

	"rentcard_service/internal/models"
	"rentcard_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) ReferenceForVerification(ctx context.Context, referenceID int64) (models.ReferenceDetails, error) {
	const op = "storage.postgres.ReferenceForVerification"

	const query = `
		SELECT r.id, r.tenant_id, r.name, r.relationship, r.email, r.is_verified,
			t.full_name, t.email
		FROM tenant_references r
		JOIN tenants t ON t.id = r.tenant_id
		WHERE r.id = $1;
	`

	var d models.ReferenceDetails

	err := r.db.QueryRow(ctx, query, referenceID).Scan(
		&d.ID,
		&d.TenantID,
		&d.Name,
		&d.Relationship,
		&d.Email,
		&d.IsVerified,
		&d.TenantName,
		&d.TenantEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ReferenceDetails{}, storage.ErrReferenceNotFound
		}

		return models.ReferenceDetails{}, fmt.Errorf("%s: %w", op, err)
	}

	return d, nil
}

func (r *PostgresRepo) SaveVerificationToken(ctx context.Context, t models.VerificationToken) error {
	const op = "storage.postgres.SaveVerificationToken"

	const query = `
		INSERT INTO reference_verification_tokens (id, reference_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4);
	`

	if _, err := r.db.Exec(ctx, query, t.ID, t.ReferenceID, t.TokenHash, t.ExpiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return nil
}

func (r *PostgresRepo) VerificationToken(ctx context.Context, tokenHash string) (models.VerificationToken, error) {
	const op = "storage.postgres.VerificationToken"

	const query = `
		SELECT id::text, reference_id, token_hash, expires_at, used_at, created_at
		FROM reference_verification_tokens
		WHERE token_hash = $1;
	`

	var t models.VerificationToken

	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&t.ID,
		&t.ReferenceID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.UsedAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VerificationToken{}, storage.ErrTokenNotFound
		}

		return models.VerificationToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// CompleteVerification consumes the token and records the feedback in one
// transaction. A used token or an already verified reference yields
// storage.ErrAlreadyVerified.
func (r *PostgresRepo) CompleteVerification(
	ctx context.Context,
	tokenHash string,
	sub models.VerificationSubmission,
) error {
	const op = "storage.postgres.CompleteVerification"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const lockToken = `
		SELECT reference_id, used_at IS NOT NULL
		FROM reference_verification_tokens
		WHERE token_hash = $1
		FOR UPDATE;
	`

	var (
		referenceID int64
		used        bool
	)

	if err := tx.QueryRow(ctx, lockToken, tokenHash).Scan(&referenceID, &used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrTokenNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if referenceID != sub.ReferenceID {
		return storage.ErrTokenNotFound
	}

	if used {
		return storage.ErrAlreadyVerified
	}

	const verifyReference = `
		UPDATE tenant_references
		SET is_verified = TRUE,
			verification_date = NOW(),
			verification_rating = $2,
			verification_comments = $3,
			updated_at = NOW()
		WHERE id = $1 AND is_verified = FALSE;
	`

	tag, err := tx.Exec(ctx, verifyReference, referenceID, sub.Rating, sub.Comments)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrAlreadyVerified
	}

	const consumeToken = `
		UPDATE reference_verification_tokens
		SET used_at = NOW()
		WHERE token_hash = $1;
	`

	if _, err := tx.Exec(ctx, consumeToken, tokenHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit: %w", op, err)
	}

	return nil
}
