package suggestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/islandscholars/placement-hub/internal/infrastructure/persistence/sqlite"
	"github.com/islandscholars/placement-hub/internal/testutil"
	"github.com/islandscholars/placement-hub/pkg/logger"
	"github.com/islandscholars/placement-hub/pkg/timeutil"
)

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]Scored
	gets    int
	failGet bool

	// beforeSet runs once, ahead of the next SetSuggestions.
	beforeSet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]Scored)}
}

func (m *memoryCache) GetSuggestions(_ context.Context, studentID string) ([]Scored, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet {
		return nil, false, errors.New("connection refused")
	}
	r, ok := m.data[studentID]
	return r, ok, nil
}

func (m *memoryCache) SetSuggestions(_ context.Context, studentID string, ranked []Scored) error {
	if hook := m.beforeSet; hook != nil {
		m.beforeSet = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[studentID] = ranked
	return nil
}

func (m *memoryCache) InvalidateStudent(_ context.Context, studentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, studentID)
	return nil
}

func (m *memoryCache) InvalidateAll(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]Scored)
	return nil
}

func TestCachedEngine_ServesFromCache(t *testing.T) {
	engine := newTestEngine(t, testutil.PlacementFixtures(testutil.Now))
	cache := newMemoryCache()
	cached := NewCachedEngine(engine, cache, logger.Discard())
	ctx := context.Background()

	first, err := cached.Rank(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	require.Contains(t, cache.data, testutil.StudentAlice)

	// A sentinel entry proves the second call never reaches the engine.
	cache.data[testutil.StudentAlice] = first[:1]
	second, err := cached.Suggest(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, testutil.InternshipSE, second[0].ID)
}

func TestCachedEngine_Invalidate(t *testing.T) {
	engine := newTestEngine(t, testutil.PlacementFixtures(testutil.Now))
	cache := newMemoryCache()
	cached := NewCachedEngine(engine, cache, logger.Discard())
	ctx := context.Background()

	_, err := cached.Rank(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	_, err = cached.Rank(ctx, testutil.StudentBob)
	require.NoError(t, err)

	require.NoError(t, cached.InvalidateStudent(ctx, testutil.StudentAlice))
	assert.NotContains(t, cache.data, testutil.StudentAlice)
	assert.Contains(t, cache.data, testutil.StudentBob)

	require.NoError(t, cached.InvalidateAll(ctx))
	assert.Empty(t, cache.data)
}

func TestCachedEngine_CacheFailureFallsBack(t *testing.T) {
	engine := newTestEngine(t, testutil.PlacementFixtures(testutil.Now))
	cache := newMemoryCache()
	cache.failGet = true
	cached := NewCachedEngine(engine, cache, logger.Discard())

	got, err := cached.Suggest(context.Background(), testutil.StudentAlice)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestCachedEngine_ErrorsAreNotCached(t *testing.T) {
	engine := newTestEngine(t, testutil.PlacementFixtures(testutil.Now))
	cache := newMemoryCache()
	cached := NewCachedEngine(engine, cache, logger.Discard())

	_, err := cached.Rank(context.Background(), "nobody")
	require.Error(t, err)
	assert.Empty(t, cache.data)
}

func TestCachedEngine_StaleWriteAfterApplication(t *testing.T) {
	db := testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now))
	engine := NewEngine(db.Repositories(), Config{Clock: timeutil.Fixed(testutil.Now)}, logger.Discard())
	cache := newMemoryCache()
	cached := NewCachedEngine(engine, cache, logger.Discard())
	ctx := context.Background()

	// Alice applies and her entry is dropped while the first request is
	// still between computing and storing its ranking.
	cache.beforeSet = func() {
		require.NoError(t, db.Seed(ctx, &sqlite.Fixtures{
			Applications: []sqlite.FixtureApplication{
				{ID: "app-new", StudentID: testutil.StudentAlice, InternshipID: testutil.InternshipSE, AppliedAt: testutil.Now},
			},
		}))
		require.NoError(t, cache.InvalidateStudent(ctx, testutil.StudentAlice))
	}

	first, err := cached.Rank(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	require.Contains(t, ids(first), testutil.InternshipSE)
	require.Contains(t, cache.data, testutil.StudentAlice)

	got, err := cached.Rank(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	assert.NotContains(t, ids(got), testutil.InternshipSE)

	fresh, err := engine.Rank(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	assert.Equal(t, ids(fresh), ids(got))
	assert.Equal(t, ids(fresh), ids(cache.data[testutil.StudentAlice]))
}

func TestCachedEngine_HitChecksApplications(t *testing.T) {
	db := testutil.OpenStore(t, testutil.PlacementFixtures(testutil.Now))
	engine := NewEngine(db.Repositories(), Config{Clock: timeutil.Fixed(testutil.Now)}, logger.Discard())
	cache := newMemoryCache()
	cached := NewCachedEngine(engine, cache, logger.Discard())
	ctx := context.Background()

	_, err := cached.Rank(ctx, testutil.StudentAlice)
	require.NoError(t, err)

	// No invalidation at all: the hit alone must notice the application.
	require.NoError(t, db.Seed(ctx, &sqlite.Fixtures{
		Applications: []sqlite.FixtureApplication{
			{ID: "app-late", StudentID: testutil.StudentAlice, InternshipID: testutil.InternshipSE, AppliedAt: testutil.Now.Add(time.Minute)},
		},
	}))

	got, err := cached.Suggest(ctx, testutil.StudentAlice)
	require.NoError(t, err)
	for _, in := range got {
		assert.NotEqual(t, testutil.InternshipSE, in.ID)
	}
}
