// Package repomanager opens the configured store and vends its
// repositories. The DSN scheme picks the backend: mongodb and mongodb+srv
// for MongoDB, postgres and postgresql for PostgreSQL, memory for an
// in-process map.
package repomanager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/users"
)

// connectTimeout bounds connect and the initial ping.
const connectTimeout = 15 * time.Second

type RepositoryManager interface {
	Users() users.Repository
	// Prepare brings the schema up to date: goose migrations for Postgres,
	// unique indexes for Mongo.
	Prepare(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// New connects to the store named by dsn. mongoDatabase is only used by the
// Mongo backend.
func New(ctx context.Context, dsn, mongoDatabase string) (RepositoryManager, error) {
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, fmt.Errorf("invalid database DSN: missing scheme")
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return NewMongoRepositoryManager(ctx, dsn, mongoDatabase)
	case "postgres", "postgresql":
		return NewPostgresRepositoryManager(ctx, dsn)
	case "memory":
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}
