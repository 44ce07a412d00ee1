package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/clicklink/pkg/core/domain"
	"github.com/wadjakorntonsri/clicklink/pkg/ports"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// linkRecord is the gorm model for the links table
type linkRecord struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	Code        string     `gorm:"type:text;not null;uniqueIndex"`
	TargetURL   string     `gorm:"type:text;not null"`
	Clicks      int64      `gorm:"not null;default:0;check:clicks >= 0"`
	LastClicked *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;index"`
}

func (linkRecord) TableName() string { return "links" }

func (rec *linkRecord) toDomain() *domain.Link {
	link := &domain.Link{
		ID:        rec.ID,
		Code:      rec.Code,
		TargetURL: rec.TargetURL,
		Clicks:    rec.Clicks,
		CreatedAt: rec.CreatedAt.UTC(),
	}
	if rec.LastClicked != nil {
		t := rec.LastClicked.UTC()
		link.LastClicked = &t
	}
	return link
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(&linkRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, link *domain.Link) error {
	link.Clicks = 0
	link.LastClicked = nil
	return r.insert(ctx, link)
}

func (r *PostgresRepository) Restore(ctx context.Context, link *domain.Link) error {
	return r.insert(ctx, link)
}

func (r *PostgresRepository) insert(ctx context.Context, link *domain.Link) error {
	rec := linkRecord{
		Code:        link.Code,
		TargetURL:   link.TargetURL,
		Clicks:      link.Clicks,
		LastClicked: link.LastClicked,
		CreatedAt:   link.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert link %s: %w", link.Code, err)
	}
	link.ID = rec.ID
	return nil
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	var rec linkRecord
	err := r.db.WithContext(ctx).Where("code = ?", code).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link %s: %w", code, err)
	}
	return rec.toDomain(), nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]domain.Link, error) {
	var recs []linkRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	links := make([]domain.Link, 0, len(recs))
	for i := range recs {
		links = append(links, *recs[i].toDomain())
	}
	return links, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Where("code = ?", code).Delete(&linkRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete link %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordClick is a single UPDATE ... RETURNING; GREATEST keeps last_clicked
// monotonic when concurrent updates commit out of order.
func (r *PostgresRepository) RecordClick(ctx context.Context, code string, at time.Time) (*domain.Link, error) {
	var rec linkRecord
	res := r.db.WithContext(ctx).
		Model(&rec).
		Clauses(clause.Returning{}).
		Where("code = ?", code).
		Updates(map[string]any{
			"clicks":       gorm.Expr("clicks + 1"),
			"last_clicked": gorm.Expr("GREATEST(COALESCE(last_clicked, ?), ?)", at, at),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("record click %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return rec.toDomain(), nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ ports.LinkRepository = (*PostgresRepository)(nil)
