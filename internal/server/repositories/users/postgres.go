package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

const pgUniqueViolation = "23505"

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url,
		 password_hash, COALESCE(refresh_token, ''), created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.FullName, &u.AvatarURL, &u.CoverImageURL,
		&u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, email, full_name, avatar_url, cover_image_url, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.FullName, user.AvatarURL, user.CoverImageURL, user.PasswordHash))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByLogin(ctx context.Context, email, userName string) (*models.User, error) {
	if email == "" && userName == "" {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND username = $2)
		 LIMIT 1`
	return scanUser(r.db.QueryRowContext(ctx, query, email, userName))
}

func (r *PostgresRepository) Exists(ctx context.Context, email, userName string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users
		 WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND username = $2))`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, userName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	query := `UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, token)
}

// RotateRefreshToken locks the row, so a concurrent refresh presenting the
// same token waits and then observes the rotated value.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, id, presented, next string) error {
	rotate := func(ctx context.Context, tx dbx.DBTX) error {
		var current sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT refresh_token FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			return mapPgError(err)
		}
		if !current.Valid || presented == "" || current.String != presented {
			return common.ErrRefreshTokenReused
		}
		_, err = tx.ExecContext(ctx, `UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`, id, next)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	}

	if b, ok := r.db.(dbx.TxBeginner); ok {
		return dbx.WithTx(ctx, b, nil, rotate)
	}
	// already running inside a caller's transaction
	return rotate(ctx, r.db)
}

func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, hash)
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error) {
	query := `UPDATE users SET full_name = $2, email = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, fullName, email))
}

func (r *PostgresRepository) SetAvatar(ctx context.Context, id, url string) (*models.User, error) {
	query := `UPDATE users SET avatar_url = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, url))
}

func (r *PostgresRepository) SetCoverImage(ctx context.Context, id, url string) (*models.User, error) {
	query := `UPDATE users SET cover_image_url = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, url))
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func mapPgError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return common.ErrorAlreadyExists
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return common.ErrorNotFound
		}
	}
	return fmt.Errorf("db error: %w", err)
}
