package discovery

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/babelseek/babelseek/pkg/babel"
	"github.com/babelseek/babelseek/pkg/config"
	bberrors "github.com/babelseek/babelseek/pkg/errors"
)

// PageCache is the bounded address-to-page cache. Pages are immutable per
// address, so no invalidation exists - only capacity-bound eviction.
type PageCache interface {
	// Get returns the cached page for a canonical address.
	Get(address string) (babel.Page, bool)
	// Add stores a page under its address, evicting if at capacity.
	Add(address string, page babel.Page)
	// Len returns the number of cached pages.
	Len() int
	// Purge drops all cached pages.
	Purge()
}

// lruCache wraps a plain LRU cache.
type lruCache struct {
	inner *lru.Cache[string, babel.Page]
}

func (c *lruCache) Get(address string) (babel.Page, bool) { return c.inner.Get(address) }
func (c *lruCache) Add(address string, page babel.Page)   { c.inner.Add(address, page) }
func (c *lruCache) Len() int                              { return c.inner.Len() }
func (c *lruCache) Purge()                                { c.inner.Purge() }

// twoQueueCache wraps a 2Q cache, which resists scan pollution better
// than plain LRU when large candidate sweeps pass through.
type twoQueueCache struct {
	inner *lru.TwoQueueCache[string, babel.Page]
}

func (c *twoQueueCache) Get(address string) (babel.Page, bool) { return c.inner.Get(address) }
func (c *twoQueueCache) Add(address string, page babel.Page)   { c.inner.Add(address, page) }
func (c *twoQueueCache) Len() int                              { return c.inner.Len() }
func (c *twoQueueCache) Purge()                                { c.inner.Purge() }

// NewPageCache constructs the cache named by the configuration.
func NewPageCache(cfg config.CacheConfig) (PageCache, error) {
	switch cfg.Eviction {
	case config.Eviction2Q:
		inner, err := lru.New2Q[string, babel.Page](cfg.Size)
		if err != nil {
			return nil, bberrors.Wrap(bberrors.ErrCodeConfigInvalid, err)
		}
		return &twoQueueCache{inner: inner}, nil
	case config.EvictionLRU, "":
		inner, err := lru.New[string, babel.Page](cfg.Size)
		if err != nil {
			return nil, bberrors.Wrap(bberrors.ErrCodeConfigInvalid, err)
		}
		return &lruCache{inner: inner}, nil
	default:
		return nil, bberrors.Newf(bberrors.ErrCodeConfigInvalid,
			"unknown eviction policy %q", cfg.Eviction)
	}
}
