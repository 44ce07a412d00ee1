package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/wadjakorntonsri/clicklink/pkg/core/domain"
	"github.com/wadjakorntonsri/clicklink/pkg/ports"
)

const (
	generatedCodeLength = 6
	generateRetries     = 5
	maxCodeLength       = 64
)

var codeRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type LinkService struct {
	repo    ports.LinkRepository
	nowFunc func() time.Time
}

func NewLinkService(repo ports.LinkRepository) *LinkService {
	return &LinkService{
		repo:    repo,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (s *LinkService) Create(ctx context.Context, code, targetURL string) (*domain.Link, error) {
	if err := validateTargetURL(targetURL); err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return s.createGenerated(ctx, targetURL)
	}
	if err := validateCode(code); err != nil {
		return nil, err
	}

	// Check if code exists; the unique constraint still catches a racing insert
	if _, err := s.repo.GetByCode(ctx, code); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	link := s.newLink(code, targetURL)
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) createGenerated(ctx context.Context, targetURL string) (*domain.Link, error) {
	for i := 0; i < generateRetries; i++ {
		code, err := generateShortCode(generatedCodeLength)
		if err != nil {
			return nil, err
		}
		link := s.newLink(code, targetURL)
		err = s.repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
	}
	return nil, domain.ErrConflict
}

func (s *LinkService) newLink(code, targetURL string) *domain.Link {
	return &domain.Link{
		Code:      code,
		TargetURL: targetURL,
		CreatedAt: s.nowFunc(),
	}
}

func (s *LinkService) Get(ctx context.Context, code string) (*domain.Link, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing short code", domain.ErrInvalidInput)
	}
	return s.repo.GetByCode(ctx, code)
}

func (s *LinkService) List(ctx context.Context) ([]domain.Link, error) {
	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []domain.Link{}
	}
	return links, nil
}

func (s *LinkService) Delete(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: missing short code", domain.ErrInvalidInput)
	}
	return s.repo.Delete(ctx, code)
}

// Redirect looks the code up and records a click. A failed click update is
// logged and does not prevent the redirect.
func (s *LinkService) Redirect(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: missing short code", domain.ErrInvalidInput)
	}

	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.RecordClick(ctx, code, s.nowFunc()); err != nil {
		log.Printf("warning: failed to record click for %q: %v", code, err)
	}

	return link.TargetURL, nil
}

func (s *LinkService) Export(ctx context.Context) ([]domain.Link, error) {
	return s.List(ctx)
}

// Import restores exported links, skipping codes that already exist.
// It returns the number of links written.
func (s *LinkService) Import(ctx context.Context, links []domain.Link) (int, error) {
	count := 0
	for i := range links {
		l := links[i]
		if err := validateTargetURL(l.TargetURL); err != nil {
			log.Printf("Skipping %q: %v", l.Code, err)
			continue
		}
		if err := validateCode(l.Code); err != nil {
			log.Printf("Skipping %q: %v", l.Code, err)
			continue
		}
		if l.Clicks < 0 {
			l.Clicks = 0
		}
		if l.Clicks == 0 {
			l.LastClicked = nil
		} else if l.LastClicked == nil {
			t := l.CreatedAt
			l.LastClicked = &t
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = s.nowFunc()
		}

		err := s.repo.Restore(ctx, &l)
		if errors.Is(err, domain.ErrConflict) {
			log.Printf("Skipping existing code: %s", l.Code)
			continue
		}
		if err != nil {
			return count, fmt.Errorf("import %s: %w", l.Code, err)
		}
		count++
	}
	return count, nil
}

func (s *LinkService) Healthy(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func validateTargetURL(raw string) error {
	if raw == "" || !strings.HasPrefix(strings.ToLower(raw), "http") {
		return fmt.Errorf("%w: invalid URL", domain.ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: invalid URL", domain.ErrInvalidInput)
	}
	return nil
}

// Codes that collide with the server's own top-level routes
var reservedCodes = []string{"healthz", "api", "auth"}

func validateCode(code string) error {
	if code == "" || len(code) > maxCodeLength || !codeRe.MatchString(code) {
		return fmt.Errorf("%w: invalid short code", domain.ErrInvalidInput)
	}
	if slices.Contains(reservedCodes, code) {
		return fmt.Errorf("%w: short code %q is reserved", domain.ErrInvalidInput, code)
	}
	return nil
}

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateShortCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}

var _ ports.LinkService = (*LinkService)(nil)
