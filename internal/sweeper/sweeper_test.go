package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Batmad01/url-shortener/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	expired []domain.ShortLink
	calls   int
	err     error
}

func (s *fakeStore) DeleteExpired(ctx context.Context, now time.Time, purge func(domain.ShortLink)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		err := s.err
		s.err = nil
		return 0, err
	}

	removed := len(s.expired)
	for _, link := range s.expired {
		purge(link)
	}
	s.expired = nil

	return removed, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeCache struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

func (c *fakeCache) deletedKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

func TestSweep_RemovesExpiredAndPurgesAllCacheKeys(t *testing.T) {
	store := &fakeStore{
		expired: []domain.ShortLink{
			{
				ID:          1,
				ShortCode:   "old123",
				OriginalURL: "http://example.com/old",
				ExpiresAt:   time.Now().Add(-time.Minute),
			},
		},
	}
	cache := &fakeCache{}

	s := New(store, cache, time.Second, nil)
	s.sweep(context.Background())

	assert.Equal(t, []string{
		"old123",
		"stats:old123",
		"search:http://example.com/old",
	}, cache.deletedKeys())
}

func TestSweep_MultipleExpiredLinks(t *testing.T) {
	store := &fakeStore{
		expired: []domain.ShortLink{
			{ID: 1, ShortCode: "one", OriginalURL: "http://a.test/"},
			{ID: 2, ShortCode: "two", OriginalURL: "http://b.test/"},
		},
	}
	cache := &fakeCache{}

	s := New(store, cache, time.Second, nil)
	s.sweep(context.Background())

	keys := cache.deletedKeys()
	require.Len(t, keys, 6)
	assert.Contains(t, keys, "stats:one")
	assert.Contains(t, keys, "search:http://b.test/")
}

func TestSweep_CacheFailureDoesNotAbort(t *testing.T) {
	store := &fakeStore{
		expired: []domain.ShortLink{
			{ID: 1, ShortCode: "one", OriginalURL: "http://a.test/"},
		},
	}
	cache := &fakeCache{err: errors.New("redis down")}

	s := New(store, cache, time.Second, nil)
	s.sweep(context.Background())

	assert.Equal(t, 1, store.callCount(), "store sweep still ran")
}

func TestRun_ContinuesAfterStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db connection lost")}
	cache := &fakeCache{}

	s := New(store, cache, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// the first sweep fails; the loop must keep ticking regardless
	assert.Eventually(t, func() bool {
		return store.callCount() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestRun_StopsOnCancellation(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{}

	s := New(store, cache, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// one immediate sweep, then a long wait on the ticker
	assert.Eventually(t, func() bool {
		return store.callCount() == 1
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
