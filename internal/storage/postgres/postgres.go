package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"student_connect/internal/config"
	"student_connect/internal/models"
	"student_connect/internal/storage"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

const accountColumns = `id, email, full_name, phone, password_hash, is_verified,
	verification_code, code_expires_at,
	school, course, year, country, bio, interests, avatar_url, social_links,
	profile_completed, created_at, updated_at`

func (r *PostgresRepo) SaveAccount(ctx context.Context, acc models.Account) error {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO accounts (id, email, full_name, phone, password_hash,
			is_verified, verification_code, code_expires_at, interests, social_links)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`

	_, err := r.pool.Exec(ctx, query,
		acc.ID,
		acc.Email,
		acc.FullName,
		acc.Phone,
		string(acc.PassHash),
		acc.IsVerified,
		acc.VerificationCode,
		acc.CodeExpiresAt,
		acc.Interests,
		acc.SocialLinks,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return storage.ErrAccountExists
		}

		return fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) AccountByEmail(ctx context.Context, email string) (models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE email = $1;`, accountColumns)

	return r.scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresRepo) AccountByID(ctx context.Context, id string) (models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1;`, accountColumns)

	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

// SetVerificationCode replaces the pending code and its expiry, invalidating
// any previously issued code.
func (r *PostgresRepo) SetVerificationCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	const op = "storage.postgres.SetVerificationCode"

	query := `
		UPDATE accounts
		SET verification_code = $1, code_expires_at = $2, updated_at = now()
		WHERE id = $3;
	`

	tag, err := r.pool.Exec(ctx, query, code, expiresAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

// MarkVerified flips the account to verified and clears the code columns.
// Returns false when the account was already verified, which lets callers
// report AlreadyVerified on a lost race instead of double-verifying.
func (r *PostgresRepo) MarkVerified(ctx context.Context, id string) (bool, error) {
	const op = "storage.postgres.MarkVerified"

	query := `
		UPDATE accounts
		SET is_verified = TRUE, verification_code = NULL, code_expires_at = NULL, updated_at = now()
		WHERE id = $1 AND is_verified = FALSE;
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepo) UpdateProfile(ctx context.Context, acc models.Account) error {
	const op = "storage.postgres.UpdateProfile"

	query := `
		UPDATE accounts
		SET full_name = $1, school = $2, course = $3, year = $4, country = $5,
			bio = $6, interests = $7, avatar_url = $8, social_links = $9,
			profile_completed = $10, updated_at = now()
		WHERE id = $11;
	`

	tag, err := r.pool.Exec(ctx, query,
		acc.FullName,
		acc.School,
		acc.Course,
		acc.Year,
		acc.Country,
		acc.Bio,
		acc.Interests,
		acc.AvatarURL,
		acc.SocialLinks,
		acc.ProfileCompleted,
		acc.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

// ListDirectory returns verified accounts with completed profiles, optionally
// filtered by exact school and course. No pagination.
func (r *PostgresRepo) ListDirectory(ctx context.Context, school, course string) ([]models.Account, error) {
	const op = "storage.postgres.ListDirectory"

	query := fmt.Sprintf(`
		SELECT %s FROM accounts
		WHERE is_verified = TRUE AND profile_completed = TRUE
			AND ($1 = '' OR school = $1)
			AND ($2 = '' OR course = $2)
		ORDER BY full_name;
	`, accountColumns)

	rows, err := r.pool.Query(ctx, query, school, course)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		acc, err := r.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		accounts = append(accounts, acc)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return accounts, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func (r *PostgresRepo) scanAccount(row pgx.Row) (models.Account, error) {
	var (
		a        models.Account
		passHash string
	)

	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.FullName,
		&a.Phone,
		&passHash,
		&a.IsVerified,
		&a.VerificationCode,
		&a.CodeExpiresAt,
		&a.School,
		&a.Course,
		&a.Year,
		&a.Country,
		&a.Bio,
		&a.Interests,
		&a.AvatarURL,
		&a.SocialLinks,
		&a.ProfileCompleted,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrAccountNotFound
		}

		return models.Account{}, err
	}

	a.PassHash = []byte(passHash)

	return a, nil
}

// * dsn формирует строку подключения к базе данных.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
