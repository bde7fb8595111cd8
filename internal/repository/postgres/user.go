package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cropdoc/internal/models"
	"cropdoc/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type userRepository struct {
	repository.BaseRepository
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{BaseRepository: repository.NewBaseRepository(db)}
}

const userColumns = `
	id, name, email, phone, role, password_hash, email_verified,
	last_login_at, password_changed_at, created_at, updated_at`

func (r *userRepository) scan(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.PasswordHash,
		&user.EmailVerified,
		&user.LastLoginAt,
		&user.PasswordChangedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, name, email, phone, role, password_hash, email_verified,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING created_at, updated_at`

	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.DB().QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.Role,
		user.PasswordHash,
		user.EmailVerified,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrEmailExists
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scan(r.DB().QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scan(r.DB().QueryRowContext(ctx, query, email))
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, lastLoginAt time.Time) error {
	query := `
		UPDATE users
		SET last_login_at = $1, updated_at = $1
		WHERE id = $2`

	_, err := r.DB().ExecContext(ctx, query, lastLoginAt, id)
	return err
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`

	result, err := r.DB().ExecContext(ctx, query, hash, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// RotatePassword retires the current hash into history, stores the new
// hash, and prunes history beyond historyDepth, all in one transaction.
func (r *userRepository) RotatePassword(ctx context.Context, id uuid.UUID, newHash string, historyDepth int) error {
	tx, err := r.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var currentHash string
	err = tx.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE id = $1 FOR UPDATE`, id,
	).Scan(&currentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if currentHash != "" {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO password_history (id, user_id, password_hash, created_at)
			VALUES ($1, $2, $3, CURRENT_TIMESTAMP)`,
			uuid.New(), id, currentHash,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1,
		    password_changed_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`,
		newHash, id,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM password_history
		WHERE user_id = $1
		AND id NOT IN (
			SELECT id FROM password_history
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)`,
		id, historyDepth,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}
