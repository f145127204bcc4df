//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/Batmad01/url-shortener/internal/domain"
	redisrepo "github.com/Batmad01/url-shortener/internal/repository/redis"
	"github.com/Batmad01/url-shortener/internal/service"
	"github.com/Batmad01/url-shortener/internal/sweeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the full expiry path against real backends: an expired row
// vanishes from Postgres and every cache entry derived from it vanishes
// from Redis, while live links are untouched.
func TestSweeperFlow_ExpiredLinkLeavesNoTrace(t *testing.T) {
	repo := setupTestPostgres(t)
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := redisrepo.NewLinkCache(client)
	svc := service.NewLinkService(repo, cache, 600*time.Second)
	ctx := context.Background()

	expired := newLink("gone42", time.Now().Add(time.Second), nil)
	live := newLink("live42", time.Now().Add(time.Hour), nil)
	require.NoError(t, repo.Create(ctx, expired))
	require.NoError(t, repo.Create(ctx, live))

	// populate stats and search cache entries for the soon-to-expire link
	_, err := svc.Stats(ctx, "gone42")
	require.NoError(t, err)
	_, err = svc.Search(ctx, expired.OriginalURL)
	require.NoError(t, err)

	data, err := cache.Get(ctx, domain.StatsKey("gone42"))
	require.NoError(t, err)
	require.NotNil(t, data, "stats entry must be cached before the sweep")

	time.Sleep(1100 * time.Millisecond)

	s := sweeper.New(repo, cache, time.Hour, nil)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		s.Run(runCtx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, err := repo.GetByShortCode(ctx, "gone42")
		return err != nil
	}, 5*time.Second, 50*time.Millisecond, "expired row should be swept")

	cancel()
	<-done

	for _, key := range []string{
		"gone42",
		domain.StatsKey("gone42"),
		domain.SearchKey(expired.OriginalURL),
	} {
		data, err := cache.Get(ctx, key)
		assert.NoError(t, err)
		assert.Nil(t, data, "key %q should have been purged", key)
	}

	got, err := repo.GetByShortCode(ctx, "live42")
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)
}
