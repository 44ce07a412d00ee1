package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/clicklink/pkg/core/domain"
)

// LinkRepository defines storage operations for links.
// Implementations return domain.ErrNotFound and domain.ErrConflict
// (possibly wrapped) for missing and duplicate codes.
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	GetByCode(ctx context.Context, code string) (*domain.Link, error)
	List(ctx context.Context) ([]domain.Link, error) // newest first
	Delete(ctx context.Context, code string) error

	// RecordClick increments clicks and advances last_clicked in one statement.
	RecordClick(ctx context.Context, code string, at time.Time) (*domain.Link, error)

	// Restore inserts a link with its counters as given (used by import)
	Restore(ctx context.Context, link *domain.Link) error

	Ping(ctx context.Context) error
	Close() error
}

// LinkService defines the business logic operations
type LinkService interface {
	Create(ctx context.Context, code, targetURL string) (*domain.Link, error)
	Get(ctx context.Context, code string) (*domain.Link, error)
	List(ctx context.Context) ([]domain.Link, error)
	Delete(ctx context.Context, code string) error

	// Redirect resolves a code to its target and records the click
	Redirect(ctx context.Context, code string) (string, error)

	Export(ctx context.Context) ([]domain.Link, error)
	Import(ctx context.Context, links []domain.Link) (int, error)
	Healthy(ctx context.Context) error
}
