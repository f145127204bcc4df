package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Batmad01/url-shortener/internal/domain"
	"github.com/Batmad01/url-shortener/internal/logger"
	"github.com/Batmad01/url-shortener/pkg/generator"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// DefaultCacheTTL bounds how long a stale stats or search view can
	// outlive a crash between a store commit and its cache invalidation.
	DefaultCacheTTL = 600 * time.Second

	maxCodeRetries = 3
)

type LinkRepository interface {
	Create(ctx context.Context, link *domain.ShortLink) error
	GetByShortCode(ctx context.Context, shortCode string) (*domain.ShortLink, error)
	GetByOriginalURL(ctx context.Context, originalURL string) (*domain.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.ShortLink, error)
	Update(ctx context.Context, link *domain.ShortLink) error
	Delete(ctx context.Context, id int64) error
	RegisterClick(ctx context.Context, link *domain.ShortLink) error
}

type LinkCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// LinkService owns the cache coherence between the link store and the cache:
// cache-aside reads for stats and search, write-invalidation on update and
// delete. The redirect path never touches the cache.
type LinkService struct {
	repo     LinkRepository
	cache    LinkCache
	cacheTTL time.Duration
}

func NewLinkService(repo LinkRepository, cache LinkCache, cacheTTL time.Duration) *LinkService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}

	return &LinkService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Create persists a new link. A custom alias that is already taken fails
// with ErrAliasTaken; a generated code that collides on insert is retried
// with a fresh code up to maxCodeRetries times. The cache is not touched:
// stats and search entries are populated lazily on first read.
func (s *LinkService) Create(ctx context.Context, req *domain.CreateLinkRequest, ownerID *uuid.UUID) (*domain.ShortLink, error) {
	if req.CustomAlias != "" {
		existing, err := s.repo.GetByShortCode(ctx, req.CustomAlias)
		if err != nil && !errors.Is(err, domain.ErrLinkNotFound) {
			return nil, fmt.Errorf("check alias: %w", err)
		}
		if existing != nil {
			return nil, domain.ErrAliasTaken
		}
	}

	var err error
	shortCode := req.CustomAlias

	for i := 0; i < maxCodeRetries; i++ {
		if shortCode == "" {
			shortCode, err = generator.GenerateShortCode()
			if err != nil {
				return nil, fmt.Errorf("generate short code: %w", err)
			}
		}

		link := &domain.ShortLink{
			ShortCode:   shortCode,
			OriginalURL: req.OriginalURL,
			OwnerID:     ownerID,
			ExpiresAt:   req.ExpiresAt,
		}

		err = s.repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}

		if isUniqueViolation(err) {
			if req.CustomAlias != "" {
				// lost the race against a concurrent create
				return nil, domain.ErrAliasTaken
			}
			shortCode = ""
			continue
		}

		return nil, fmt.Errorf("create short link: %w", err)
	}

	return nil, fmt.Errorf("generate unique short code after %d attempts: %w", maxCodeRetries, err)
}

// Resolve returns the link for a redirect and registers the click. A link
// whose expires_at has passed is reported as not found even while the row
// still physically exists.
func (s *LinkService) Resolve(ctx context.Context, shortCode string) (*domain.ShortLink, error) {
	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", shortCode, err)
	}

	if link.Expired(time.Now()) {
		return nil, fmt.Errorf("link %q expired: %w", shortCode, domain.ErrLinkNotFound)
	}

	if err := s.repo.RegisterClick(ctx, link); err != nil {
		return nil, fmt.Errorf("register click on %q: %w", shortCode, err)
	}

	return link, nil
}

// Stats returns the link view, serving it from the cache when present. A
// cached view is returned as-is, without re-checking logical expiry; the
// 600s TTL bounds the staleness window.
func (s *LinkService) Stats(ctx context.Context, shortCode string) (*domain.LinkView, error) {
	key := domain.StatsKey(shortCode)

	if view := s.cachedView(ctx, key); view != nil {
		return view, nil
	}

	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("stats for %q: %w", shortCode, err)
	}

	view := link.View()
	if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
		logger.FromContext(ctx).Warn("failed to cache stats view",
			"short_code", shortCode, "error", err)
	}

	return view, nil
}

// Update mutates url, expiry and optionally the alias of an owned link.
// Cache entries for the old code are invalidated before the store mutation
// so a racing stats read cannot repopulate them from the old row.
func (s *LinkService) Update(ctx context.Context, shortCode string, req *domain.UpdateLinkRequest, requesterID uuid.UUID) (*domain.ShortLink, error) {
	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("update %q: %w", shortCode, err)
	}

	if link.OwnerID == nil || *link.OwnerID != requesterID {
		return nil, domain.ErrForbidden
	}

	if err := s.cache.Delete(ctx, shortCode, domain.StatsKey(shortCode)); err != nil {
		logger.FromContext(ctx).Warn("failed to invalidate cache before update",
			"short_code", shortCode, "error", err)
	}

	if req.CustomAlias != "" && req.CustomAlias != link.ShortCode {
		existing, err := s.repo.GetByShortCode(ctx, req.CustomAlias)
		if err != nil && !errors.Is(err, domain.ErrLinkNotFound) {
			return nil, fmt.Errorf("check alias: %w", err)
		}
		if existing != nil {
			return nil, domain.ErrAliasTaken
		}
		link.ShortCode = req.CustomAlias
	}

	link.OriginalURL = req.OriginalURL
	link.ExpiresAt = req.ExpiresAt

	if err := s.repo.Update(ctx, link); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAliasTaken
		}
		return nil, fmt.Errorf("update %q: %w", shortCode, err)
	}

	return link, nil
}

// Delete removes an owned link from the store, then drops its cache entries.
func (s *LinkService) Delete(ctx context.Context, shortCode string, requesterID uuid.UUID) (*domain.ShortLink, error) {
	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("delete %q: %w", shortCode, err)
	}

	if link.OwnerID == nil || *link.OwnerID != requesterID {
		return nil, domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, link.ID); err != nil {
		return nil, fmt.Errorf("delete %q: %w", shortCode, err)
	}

	if err := s.cache.Delete(ctx, shortCode, domain.StatsKey(shortCode)); err != nil {
		logger.FromContext(ctx).Warn("failed to invalidate cache after delete",
			"short_code", shortCode, "error", err)
	}

	return link, nil
}

// Search finds the link for an original URL, cache-aside like Stats. A URL
// with no matching record yields (nil, nil), not an error.
func (s *LinkService) Search(ctx context.Context, originalURL string) (*domain.LinkView, error) {
	key := domain.SearchKey(originalURL)

	if view := s.cachedView(ctx, key); view != nil {
		return view, nil
	}

	link, err := s.repo.GetByOriginalURL(ctx, originalURL)
	if errors.Is(err, domain.ErrLinkNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search by url: %w", err)
	}

	view := link.View()
	if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
		logger.FromContext(ctx).Warn("failed to cache search view",
			"original_url", originalURL, "error", err)
	}

	return view, nil
}

func (s *LinkService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.ShortLink, error) {
	links, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list links for owner: %w", err)
	}

	return links, nil
}

// cachedView deserializes a cached link view, treating cache failures and
// corrupt payloads as misses so the store read takes over.
func (s *LinkService) cachedView(ctx context.Context, key string) *domain.LinkView {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn("cache read failed", "key", key, "error", err)
		return nil
	}
	if data == nil {
		return nil
	}

	var view domain.LinkView
	if err := json.Unmarshal(data, &view); err != nil {
		logger.FromContext(ctx).Warn("corrupt cache entry", "key", key, "error", err)
		return nil
	}

	return &view
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
