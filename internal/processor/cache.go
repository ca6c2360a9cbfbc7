package processor

import (
	"context"
	"sync"
	"time"

	"github.com/pauljones0/swapThemes/internal/store"
)

// ActiveThemeCache keeps the active theme in memory for a short TTL; it changes once a week.
type ActiveThemeCache struct {
	mu        sync.RWMutex
	theme     *store.Theme
	expiresAt time.Time
	ttl       time.Duration
	store     ThemeStore
	now       func() time.Time
}

func NewActiveThemeCache(st ThemeStore, ttl time.Duration) *ActiveThemeCache {
	return &ActiveThemeCache{
		ttl:   ttl,
		store: st,
		now:   time.Now,
	}
}

func (c *ActiveThemeCache) Get(ctx context.Context) (*store.Theme, error) {
	c.mu.RLock()
	theme, expiresAt := c.theme, c.expiresAt
	c.mu.RUnlock()

	if theme != nil && c.now().Before(expiresAt) {
		return theme, nil
	}

	// Cache miss or expired
	theme, err := c.store.GetActiveTheme(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.theme = theme
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()

	return theme, nil
}

// Invalidate drops the cached theme, e.g. right after a new one is activated.
func (c *ActiveThemeCache) Invalidate() {
	c.mu.Lock()
	c.theme = nil
	c.mu.Unlock()
}
