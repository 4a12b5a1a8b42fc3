package state

import (
	"context"
	"strings"
	"time"
)

// NewStore creates a postgres-backed store when configured, otherwise
// in-memory (the default for local/dev use).
func NewStore(ctx context.Context, databaseURL string, idleTimeout time.Duration) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(idleTimeout), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
