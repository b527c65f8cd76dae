package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresAccountRepository provides PostgreSQL-backed persistence for
// accounts, including the refresh-token fingerprint that anchors sessions.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

const accountColumns = `id, username, email, full_name, avatar_url, cover_url, password_hash, refresh_fingerprint, created_at, updated_at`

// Create persists a new account. Duplicate username or email reports
// ErrConflict via the table's unique indexes.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, username, email, full_name, avatar_url, cover_url, password_hash, refresh_fingerprint, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, account.ID, account.Username, account.Email, account.FullName, account.AvatarURL,
		account.CoverURL, account.PasswordHash, account.RefreshFingerprint, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByID fetches an account by its id.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	return r.findBy(ctx, "id", id)
}

// FindByUsername fetches an account by its unique username.
func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	return r.findBy(ctx, "username", username)
}

// FindByEmail fetches an account by its unique email address.
func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	return r.findBy(ctx, "email", email)
}

func (r *PostgresAccountRepository) findBy(ctx context.Context, column, value string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+column+` = $1`, value)

	var account models.Account
	if err := row.Scan(
		&account.ID, &account.Username, &account.Email, &account.FullName,
		&account.AvatarURL, &account.CoverURL, &account.PasswordHash,
		&account.RefreshFingerprint, &account.CreatedAt, &account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("select account by %s: %w", column, err)
	}

	return account, nil
}

// Exists reports whether an account with the given id exists.
func (r *PostgresAccountRepository) Exists(ctx context.Context, id string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	return exists, nil
}

// Update modifies an account's mutable profile and credential fields.
func (r *PostgresAccountRepository) Update(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET email = $2, full_name = $3, avatar_url = $4, cover_url = $5, password_hash = $6, updated_at = $7
        WHERE id = $1
    `, account.ID, account.Email, account.FullName, account.AvatarURL, account.CoverURL,
		account.PasswordHash, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ReplaceFingerprint unconditionally swaps in a new refresh-token fingerprint,
// invalidating whatever refresh token was live before.
func (r *PostgresAccountRepository) ReplaceFingerprint(ctx context.Context, accountID, fingerprint string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts SET refresh_fingerprint = $2 WHERE id = $1
    `, accountID, fingerprint)
	if err != nil {
		return fmt.Errorf("replace refresh fingerprint: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// RotateFingerprint advances the fingerprint only if the stored value still
// matches old. Zero affected rows means another rotation won the race (or the
// fingerprint was cleared) and surfaces as ErrNotFound.
func (r *PostgresAccountRepository) RotateFingerprint(ctx context.Context, accountID, old, next string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts SET refresh_fingerprint = $3 WHERE id = $1 AND refresh_fingerprint = $2
    `, accountID, old, next)
	if err != nil {
		return fmt.Errorf("rotate refresh fingerprint: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ClearFingerprint empties the stored fingerprint, ending the session.
func (r *PostgresAccountRepository) ClearFingerprint(ctx context.Context, accountID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts SET refresh_fingerprint = '' WHERE id = $1
    `, accountID)
	if err != nil {
		return fmt.Errorf("clear refresh fingerprint: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
