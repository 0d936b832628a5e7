package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// MemoryRepository keeps users in process memory. It backs the memory://
// DSN and the HTTP tests; uniqueness rules match the persistent stores.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*models.User), now: func() time.Time { return time.Now().UTC() }}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflictLocked("", user.Email, user.UserName) {
		return nil, common.ErrorAlreadyExists
	}

	u := *user
	u.ID = uuid.NewString()
	u.RefreshToken = ""
	u.CreatedAt = r.now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = &u

	out := u
	return &out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryRepository) FindByLogin(ctx context.Context, email, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if (email != "" && u.Email == email) || (userName != "" && u.UserName == userName) {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Exists(ctx context.Context, email, userName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conflictLocked("", email, userName), nil
}

func (r *MemoryRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.mutate(id, func(u *models.User) error {
		u.RefreshToken = token
		return nil
	})
}

func (r *MemoryRepository) RotateRefreshToken(ctx context.Context, id, presented, next string) error {
	return r.mutate(id, func(u *models.User) error {
		if presented == "" || u.RefreshToken != presented {
			return common.ErrRefreshTokenReused
		}
		u.RefreshToken = next
		return nil
	})
}

func (r *MemoryRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.mutate(id, func(u *models.User) error {
		u.PasswordHash = hash
		return nil
	})
}

func (r *MemoryRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*models.User, error) {
	return r.mutateAndGet(id, func(u *models.User) error {
		if r.conflictLocked(id, email, "") {
			return common.ErrorAlreadyExists
		}
		u.FullName = fullName
		u.Email = email
		return nil
	})
}

func (r *MemoryRepository) SetAvatar(ctx context.Context, id, url string) (*models.User, error) {
	return r.mutateAndGet(id, func(u *models.User) error {
		u.AvatarURL = url
		return nil
	})
}

func (r *MemoryRepository) SetCoverImage(ctx context.Context, id, url string) (*models.User, error) {
	return r.mutateAndGet(id, func(u *models.User) error {
		u.CoverImageURL = url
		return nil
	})
}

// Len returns the number of stored users.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *MemoryRepository) mutate(id string, fn func(u *models.User) error) error {
	_, err := r.mutateAndGet(id, fn)
	return err
}

// mutateAndGet applies fn to a copy and stores it only when fn succeeds.
func (r *MemoryRepository) mutateAndGet(id string, fn func(u *models.User) error) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *stored
	if err := fn(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = r.now()
	r.users[id] = &u

	out := u
	return &out, nil
}

func (r *MemoryRepository) conflictLocked(exceptID, email, userName string) bool {
	for id, u := range r.users {
		if id == exceptID {
			continue
		}
		if (email != "" && u.Email == email) || (userName != "" && u.UserName == userName) {
			return true
		}
	}
	return false
}
