package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Batmad01/url-shortener/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS links (
		id              BIGSERIAL PRIMARY KEY,
		short_code      TEXT NOT NULL,
		original_url    TEXT NOT NULL,
		owner_id        UUID,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at      TIMESTAMPTZ NOT NULL,
		clicks_count    BIGINT NOT NULL DEFAULT 0,
		last_clicked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT links_short_code_key UNIQUE (short_code)
	);
	CREATE INDEX IF NOT EXISTS idx_links_original_url ON links (original_url);
	CREATE INDEX IF NOT EXISTS idx_links_expires_at ON links (expires_at);
`

type LinkRepository struct {
	db *pgxpool.Pool
}

func NewLinkRepository(db *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{db: db}
}

// InitSchema creates the links table if it does not exist yet.
func (r *LinkRepository) InitSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.ShortLink) error {
	query := `
		INSERT INTO links (short_code, original_url, owner_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, clicks_count, last_clicked_at
	`

	return r.db.QueryRow(ctx, query, link.ShortCode, link.OriginalURL, link.OwnerID, link.ExpiresAt).
		Scan(&link.ID, &link.CreatedAt, &link.ClicksCount, &link.LastClickedAt)
}

// GetByShortCode returns the link regardless of its expiry state; logical
// expiry is the service's concern, not the store's.
func (r *LinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*domain.ShortLink, error) {
	query := `
		SELECT id, short_code, original_url, owner_id, created_at, expires_at, clicks_count, last_clicked_at
		FROM links
		WHERE short_code = $1
	`

	return r.scanLink(r.db.QueryRow(ctx, query, shortCode))
}

func (r *LinkRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*domain.ShortLink, error) {
	query := `
		SELECT id, short_code, original_url, owner_id, created_at, expires_at, clicks_count, last_clicked_at
		FROM links
		WHERE original_url = $1
		LIMIT 1
	`

	return r.scanLink(r.db.QueryRow(ctx, query, originalURL))
}

func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.ShortLink, error) {
	query := `
		SELECT id, short_code, original_url, owner_id, created_at, expires_at, clicks_count, last_clicked_at
		FROM links
		WHERE owner_id = $1
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.ShortLink
	for rows.Next() {
		var link domain.ShortLink
		if err := rows.Scan(
			&link.ID,
			&link.ShortCode,
			&link.OriginalURL,
			&link.OwnerID,
			&link.CreatedAt,
			&link.ExpiresAt,
			&link.ClicksCount,
			&link.LastClickedAt,
		); err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

func (r *LinkRepository) Update(ctx context.Context, link *domain.ShortLink) error {
	query := `
		UPDATE links
		SET short_code = $2, original_url = $3, expires_at = $4
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, link.ID, link.ShortCode, link.OriginalURL, link.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

// RegisterClick durably counts one redirect resolution. The increment runs
// as a single UPDATE so concurrent resolutions never lose counts.
func (r *LinkRepository) RegisterClick(ctx context.Context, link *domain.ShortLink) error {
	query := `
		UPDATE links
		SET clicks_count = clicks_count + 1, last_clicked_at = now()
		WHERE id = $1
		RETURNING clicks_count, last_clicked_at
	`

	err := r.db.QueryRow(ctx, query, link.ID).Scan(&link.ClicksCount, &link.LastClickedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrLinkNotFound
	}

	return err
}

// DeleteExpired removes every link whose expires_at is at or before now,
// all inside one transaction. purge is called for each removed link before
// the commit so cache entries go away together with the row; purge must not
// fail the sweep.
func (r *LinkRepository) DeleteExpired(ctx context.Context, now time.Time, purge func(domain.ShortLink)) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin sweep tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT id, short_code, original_url, owner_id, created_at, expires_at, clicks_count, last_clicked_at
		FROM links
		WHERE expires_at <= $1
	`

	rows, err := tx.Query(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("query expired links: %w", err)
	}

	var expired []domain.ShortLink
	for rows.Next() {
		var link domain.ShortLink
		if err := rows.Scan(
			&link.ID,
			&link.ShortCode,
			&link.OriginalURL,
			&link.OwnerID,
			&link.CreatedAt,
			&link.ExpiresAt,
			&link.ClicksCount,
			&link.LastClickedAt,
		); err != nil {
			rows.Close()
			return 0, err
		}
		expired = append(expired, link)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, link := range expired {
		if _, err := tx.Exec(ctx, `DELETE FROM links WHERE id = $1`, link.ID); err != nil {
			return 0, fmt.Errorf("delete expired link %q: %w", link.ShortCode, err)
		}
		if purge != nil {
			purge(link)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit sweep tx: %w", err)
	}

	return len(expired), nil
}

func (r *LinkRepository) scanLink(row pgx.Row) (*domain.ShortLink, error) {
	var link domain.ShortLink

	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.OwnerID,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.ClicksCount,
		&link.LastClickedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	return &link, nil
}
