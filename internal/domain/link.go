package domain

import (
	"time"

	"github.com/google/uuid"
)

// ShortLink is the persisted mapping from a short code to its destination URL.
// OwnerID is nil for links created anonymously; such links can never be
// updated or deleted through the API.
type ShortLink struct {
	ID            int64      `json:"id"`
	ShortCode     string     `json:"short_code"`
	OriginalURL   string     `json:"original_url"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	ClicksCount   int64      `json:"clicks_count"`
	LastClickedAt time.Time  `json:"last_clicked_at"`
}

// Expired reports whether the link is logically expired at the given instant.
// An expired link is treated as not found for redirect purposes even while
// the row is still physically present.
func (l *ShortLink) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// View returns the API representation of the link. The same view is what
// gets serialized into the stats and search cache entries.
func (l *ShortLink) View() *LinkView {
	return &LinkView{
		ID:            l.ID,
		ShortCode:     l.ShortCode,
		OriginalURL:   l.OriginalURL,
		CreatedAt:     l.CreatedAt,
		ExpiresAt:     l.ExpiresAt,
		ClicksCount:   l.ClicksCount,
		LastClickedAt: l.LastClickedAt,
	}
}

type LinkView struct {
	ID            int64     `json:"id"`
	ShortCode     string    `json:"short_code"`
	OriginalURL   string    `json:"original_url"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	ClicksCount   int64     `json:"clicks_count"`
	LastClickedAt time.Time `json:"last_clicked_at"`
}

type CreateLinkRequest struct {
	OriginalURL string    `json:"original_url" validate:"required,url"`
	CustomAlias string    `json:"custom_alias,omitempty" validate:"omitempty,min=4,max=20,alias"`
	ExpiresAt   time.Time `json:"expires_at" validate:"required"`
}

type UpdateLinkRequest struct {
	OriginalURL string    `json:"original_url" validate:"required,url"`
	CustomAlias string    `json:"custom_alias,omitempty" validate:"omitempty,min=4,max=20,alias"`
	ExpiresAt   time.Time `json:"expires_at" validate:"required"`
}
