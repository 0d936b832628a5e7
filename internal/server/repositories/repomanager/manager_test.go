package repomanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/users"
)

func TestNew_SelectsBackendByScheme(t *testing.T) {
	m, err := New(context.Background(), "memory://", "")
	require.NoError(t, err)
	_, ok := m.Users().(*users.MemoryRepository)
	assert.True(t, ok)
	require.NoError(t, m.Prepare(context.Background()))
	require.NoError(t, m.Ping(context.Background()))
	require.NoError(t, m.Close(context.Background()))
}

func TestNew_RejectsUnknownScheme(t *testing.T) {
	_, err := New(context.Background(), "redis://localhost:6379", "")
	require.EqualError(t, err, `unsupported database scheme "redis"`)

	_, err = New(context.Background(), "localhost:27017", "")
	require.Error(t, err)
}

func TestNew_PostgresScheme(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()
	mock.ExpectPing()
	stubSQLOpen(t, db, nil)

	m, err := New(context.Background(), "postgresql://u:p@localhost/db", "")
	require.NoError(t, err)
	_, ok := m.(*PostgresRepositoryManager)
	assert.True(t, ok)
}
