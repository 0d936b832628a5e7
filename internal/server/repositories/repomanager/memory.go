package repomanager

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager serves the memory:// DSN. Data lives as long as
// the process.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository           { return m.users }
func (m *MemoryRepositoryManager) Prepare(ctx context.Context) error { return nil }
func (m *MemoryRepositoryManager) Ping(ctx context.Context) error    { return nil }
func (m *MemoryRepositoryManager) Close(ctx context.Context) error   { return nil }
