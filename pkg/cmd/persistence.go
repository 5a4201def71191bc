// Package cmd wires the backend components selected by command line configuration.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/composer/pkg/persistence"
	"github.com/dukex/composer/pkg/persistence/file"
	"github.com/dukex/composer/pkg/persistence/postgresql"
	"github.com/dukex/composer/pkg/persistence/redis"
)

// NewPersistence opens the store named by databaseURL. A URL without a
// scheme is a file system path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)

	switch provider {
	case "file":
		return file.NewPersistence(databaseURL), nil
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger.With("module", "postgresql"), databaseURL)
	case "redis", "rediss":
		return redis.NewPersistence(ctx, logger.With("module", "redis"), databaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", persistence.ErrUnsupportedURL, provider)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return strings.ToLower(provider)
}
