package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/clicklink/pkg/core/domain"
	"github.com/wadjakorntonsri/clicklink/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	if driverName == "sqlite" {
		// One connection: writers queue instead of failing with SQLITE_BUSY,
		// and shared in-memory databases stay alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		target_url TEXT NOT NULL,
		clicks INTEGER NOT NULL DEFAULT 0 CHECK (clicks >= 0),
		last_clicked INTEGER,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at)`,
}

func migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const linkColumns = `id, code, target_url, clicks, last_clicked, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Timestamps are stored as Unix nanoseconds so ordering is exact and
// independent of how each driver formats DATETIME values.
func scanLink(row rowScanner) (*domain.Link, error) {
	var (
		link        domain.Link
		lastClicked sql.NullInt64
		createdAt   int64
	)
	if err := row.Scan(&link.ID, &link.Code, &link.TargetURL, &link.Clicks, &lastClicked, &createdAt); err != nil {
		return nil, err
	}
	link.CreatedAt = time.Unix(0, createdAt).UTC()
	if lastClicked.Valid {
		t := time.Unix(0, lastClicked.Int64).UTC()
		link.LastClicked = &t
	}
	return &link, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, link *domain.Link) error {
	link.Clicks = 0
	link.LastClicked = nil
	return r.insert(ctx, link)
}

func (r *SQLiteRepository) Restore(ctx context.Context, link *domain.Link) error {
	return r.insert(ctx, link)
}

func (r *SQLiteRepository) insert(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (code, target_url, clicks, last_clicked, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	var lastClicked any
	if link.LastClicked != nil {
		lastClicked = link.LastClicked.UnixNano()
	}

	res, err := r.db.ExecContext(ctx, query, link.Code, link.TargetURL, link.Clicks, lastClicked, link.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert link %s: %w", link.Code, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	link.ID = id
	return nil
}

func (r *SQLiteRepository) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = ?`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link %s: %w", code, err)
	}
	return link, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("list links: %w", err)
		}
		links = append(links, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("delete link %s: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete link %s: %w", code, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordClick increments the counter in a single statement; MAX keeps
// last_clicked from moving backwards when racing updates commit out of order.
func (r *SQLiteRepository) RecordClick(ctx context.Context, code string, at time.Time) (*domain.Link, error) {
	query := `UPDATE links
			  SET clicks = clicks + 1, last_clicked = MAX(COALESCE(last_clicked, 0), ?)
			  WHERE code = ?
			  RETURNING ` + linkColumns

	link, err := scanLink(r.db.QueryRowContext(ctx, query, at.UnixNano(), code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("record click %s: %w", code, err)
	}
	return link, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Drivers report constraint failures with different error types, so match
// on the message SQLite itself produces.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
