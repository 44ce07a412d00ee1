package repository

import (
	"strings"

	"github.com/wadjakorntonsri/clicklink/pkg/adapters/repository/postgres"
	"github.com/wadjakorntonsri/clicklink/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/clicklink/pkg/ports"
)

// Open returns the repository matching the database URL scheme.
// postgres:// and postgresql:// use Postgres, everything else SQLite/libsql.
func Open(dbURL string) (ports.LinkRepository, error) {
	if strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://") {
		repo, err := postgres.NewPostgresRepository(dbURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	repo, err := sqlite.NewSQLiteRepository(dbURL)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
