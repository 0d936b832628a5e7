// Package users stores user accounts. Implementations translate driver
// errors into common sentinels: a missing record is common.ErrorNotFound
// and a unique-key collision is common.ErrorAlreadyExists.
package users

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts user and returns it with ID and timestamps set.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetByID returns the full record, secrets included.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// FindByLogin matches on email or userName; empty arguments are ignored.
	FindByLogin(ctx context.Context, email, userName string) (*models.User, error)
	// Exists reports whether any user has the given email or userName.
	Exists(ctx context.Context, email, userName string) (bool, error)
	// SetRefreshToken overwrites the stored refresh token; "" clears it.
	SetRefreshToken(ctx context.Context, id, token string) error
	// RotateRefreshToken replaces presented with next only if presented is
	// still the stored token, otherwise it returns common.ErrRefreshTokenReused.
	RotateRefreshToken(ctx context.Context, id, presented, next string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error)
	SetAvatar(ctx context.Context, id, url string) (*models.User, error)
	SetCoverImage(ctx context.Context, id, url string) (*models.User, error)
}
