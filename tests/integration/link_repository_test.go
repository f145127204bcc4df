//go:build integration
// +build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Batmad01/url-shortener/internal/domain"
	"github.com/Batmad01/url-shortener/internal/repository/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestPostgres(t *testing.T) *postgres.LinkRepository {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shortener_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := postgres.NewLinkRepository(pool)
	require.NoError(t, repo.InitSchema(ctx))

	return repo
}

func newLink(code string, expiresAt time.Time, owner *uuid.UUID) *domain.ShortLink {
	return &domain.ShortLink{
		ShortCode:   code,
		OriginalURL: "http://example.com/" + code,
		OwnerID:     owner,
		ExpiresAt:   expiresAt,
	}
}

func TestLinkRepository_CreateAndGet(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	owner := uuid.New()
	link := newLink("abc123", time.Now().Add(24*time.Hour), &owner)

	require.NoError(t, repo.Create(ctx, link))
	assert.NotZero(t, link.ID)
	assert.False(t, link.CreatedAt.IsZero())
	assert.Zero(t, link.ClicksCount)

	got, err := repo.GetByShortCode(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, "http://example.com/abc123", got.OriginalURL)
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, owner, *got.OwnerID)
}

func TestLinkRepository_GetMissing(t *testing.T) {
	repo := setupTestPostgres(t)

	_, err := repo.GetByShortCode(context.Background(), "nothere")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
}

func TestLinkRepository_DuplicateShortCode(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newLink("dup123", time.Now().Add(time.Hour), nil)))

	err := repo.Create(ctx, newLink("dup123", time.Now().Add(time.Hour), nil))
	require.Error(t, err)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)
}

func TestLinkRepository_RegisterClick(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	link := newLink("click1", time.Now().Add(time.Hour), nil)
	require.NoError(t, repo.Create(ctx, link))

	before := link.LastClickedAt

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RegisterClick(ctx, link))
	}

	assert.Equal(t, int64(3), link.ClicksCount)
	assert.True(t, link.LastClickedAt.After(before) || link.LastClickedAt.Equal(before))

	got, err := repo.GetByShortCode(ctx, "click1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ClicksCount)
}

func TestLinkRepository_UpdateAndDelete(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	link := newLink("upd123", time.Now().Add(time.Hour), nil)
	require.NoError(t, repo.Create(ctx, link))

	link.ShortCode = "newcode"
	link.OriginalURL = "http://example.com/changed"
	require.NoError(t, repo.Update(ctx, link))

	got, err := repo.GetByShortCode(ctx, "newcode")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/changed", got.OriginalURL)

	_, err = repo.GetByShortCode(ctx, "upd123")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	require.NoError(t, repo.Delete(ctx, link.ID))
	assert.ErrorIs(t, repo.Delete(ctx, link.ID), domain.ErrLinkNotFound)
}

func TestLinkRepository_ListByOwner(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()

	require.NoError(t, repo.Create(ctx, newLink("own1", time.Now().Add(time.Hour), &owner)))
	require.NoError(t, repo.Create(ctx, newLink("own2", time.Now().Add(time.Hour), &owner)))
	require.NoError(t, repo.Create(ctx, newLink("oth1", time.Now().Add(time.Hour), &other)))
	require.NoError(t, repo.Create(ctx, newLink("anon1", time.Now().Add(time.Hour), nil)))

	links, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestLinkRepository_DeleteExpired(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	now := time.Now()

	expired := newLink("old123", now.Add(-time.Minute), nil)
	live := newLink("live123", now.Add(time.Hour), nil)
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, live))

	var purged []string
	removed, err := repo.DeleteExpired(ctx, now, func(link domain.ShortLink) {
		purged = append(purged, link.ShortCode)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"old123"}, purged)

	_, err = repo.GetByShortCode(ctx, "old123")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	_, err = repo.GetByShortCode(ctx, "live123")
	assert.NoError(t, err, "unexpired link must survive the sweep")
}

func TestLinkRepository_DeleteExpired_BoundaryIsInclusive(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)

	link := newLink("edge12", now, nil)
	require.NoError(t, repo.Create(ctx, link))

	removed, err := repo.DeleteExpired(ctx, now, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "expires_at == now counts as expired")
}
