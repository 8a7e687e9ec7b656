package catalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/creatormatch/internal/domain"
	"github.com/kailas-cloud/creatormatch/internal/metrics"
)

// snapshot is an immutable view of the catalog at a point in time.
type snapshot struct {
	byID      map[string]domain.Creator
	all       []domain.Creator
	refreshed time.Time
}

// Cache holds a TTL-refreshed, atomically-swapped catalog snapshot per §4.6:
// reads never block on a refresh, and a failed refresh leaves the prior
// snapshot in place rather than invalidating it.
type Cache struct {
	source Source
	ttl    time.Duration
	logger *zap.Logger

	current atomic.Pointer[snapshot]

	mu         sync.Mutex // serializes concurrent refreshes
	refreshing bool
}

// NewCache builds a Cache. ttl <= 0 disables time-based staleness (refresh only
// happens on demand via Refresh). A nil logger is replaced with zap.NewNop().
func NewCache(source Source, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{source: source, ttl: ttl, logger: logger}
}

// Load performs the initial synchronous load. Call once at startup; a failure
// here is fatal since there is no prior snapshot to fall back on.
func (c *Cache) Load(ctx context.Context) error {
	return c.refresh(ctx)
}

// All returns every creator in the current snapshot. Triggers a background
// refresh if the snapshot is older than the configured TTL.
func (c *Cache) All(ctx context.Context) []domain.Creator {
	c.maybeRefreshAsync(ctx)
	snap := c.current.Load()
	if snap == nil {
		return nil
	}
	return snap.all
}

// Get looks up a single creator by id in the current snapshot.
func (c *Cache) Get(ctx context.Context, id string) (domain.Creator, bool) {
	c.maybeRefreshAsync(ctx)
	snap := c.current.Load()
	if snap == nil {
		return domain.Creator{}, false
	}
	creator, ok := snap.byID[id]
	return creator, ok
}

// Refresh forces a synchronous reload from the source.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

func (c *Cache) maybeRefreshAsync(ctx context.Context) {
	if c.ttl <= 0 {
		return
	}
	snap := c.current.Load()
	if snap != nil && time.Since(snap.refreshed) < c.ttl {
		return
	}

	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.refreshing = false
			c.mu.Unlock()
		}()
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.refresh(refreshCtx); err != nil {
			c.logger.Warn("background catalog refresh failed, keeping prior snapshot", zap.Error(err))
		}
	}()
	_ = ctx
}

func (c *Cache) refresh(ctx context.Context) error {
	creators, err := c.source.ListAll(ctx)
	if err != nil {
		metrics.CatalogRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("refresh catalog: %w", err)
	}
	metrics.CatalogRefreshTotal.WithLabelValues("success").Inc()

	byID := make(map[string]domain.Creator, len(creators))
	all := make([]domain.Creator, 0, len(creators))
	for _, creator := range creators {
		if _, dup := byID[creator.ID()]; dup {
			continue // no-duplicate-id invariant: first write wins
		}
		byID[creator.ID()] = creator
		all = append(all, creator)
	}

	c.current.Store(&snapshot{byID: byID, all: all, refreshed: time.Now()})
	return nil
}
