package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"
)

type pendingVerificationRepository struct {
	repository.BaseRepository
}

// NewPendingVerificationRepository creates a new PostgreSQL pending verification repository
func NewPendingVerificationRepository(db *sql.DB) repository.PendingVerificationRepository {
	return &pendingVerificationRepository{BaseRepository: repository.NewBaseRepository(db)}
}

func (r *pendingVerificationRepository) Upsert(ctx context.Context, pv *models.PendingVerification) error {
	query := `
		INSERT INTO pending_verifications (
			email, purpose, name, phone, role, password_hash,
			otp_hash, expires_at, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP)
		ON CONFLICT (email, purpose) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			password_hash = EXCLUDED.password_hash,
			otp_hash = EXCLUDED.otp_hash,
			expires_at = EXCLUDED.expires_at,
			attempts = EXCLUDED.attempts,
			created_at = CURRENT_TIMESTAMP
		RETURNING created_at`

	return r.DB().QueryRowContext(ctx, query,
		pv.Email,
		pv.Purpose,
		pv.Name,
		pv.Phone,
		pv.Role,
		pv.PasswordHash,
		pv.OTPHash,
		pv.ExpiresAt,
		pv.Attempts,
	).Scan(&pv.CreatedAt)
}

func (r *pendingVerificationRepository) Get(ctx context.Context, email, purpose string) (*models.PendingVerification, error) {
	pv := &models.PendingVerification{}
	query := `
		SELECT email, purpose, name, phone, role, password_hash,
		       otp_hash, expires_at, attempts, created_at
		FROM pending_verifications
		WHERE email = $1 AND purpose = $2`

	err := r.DB().QueryRowContext(ctx, query, email, purpose).Scan(
		&pv.Email,
		&pv.Purpose,
		&pv.Name,
		&pv.Phone,
		&pv.Role,
		&pv.PasswordHash,
		&pv.OTPHash,
		&pv.ExpiresAt,
		&pv.Attempts,
		&pv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}
	return pv, nil
}

func (r *pendingVerificationRepository) Delete(ctx context.Context, email, purpose string) error {
	_, err := r.DB().ExecContext(ctx,
		`DELETE FROM pending_verifications WHERE email = $1 AND purpose = $2`,
		email, purpose,
	)
	return err
}

func (r *pendingVerificationRepository) IncrementAttempts(ctx context.Context, email, purpose string) (int, error) {
	var attempts int
	err := r.DB().QueryRowContext(ctx, `
		UPDATE pending_verifications
		SET attempts = attempts + 1
		WHERE email = $1 AND purpose = $2
		RETURNING attempts`,
		email, purpose,
	).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrPendingNotFound
	}
	return attempts, err
}

func (r *pendingVerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.DB().ExecContext(ctx,
		`DELETE FROM pending_verifications WHERE expires_at <= $1`, now,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
