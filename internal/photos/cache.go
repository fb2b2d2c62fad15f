package photos

import (
	"context"
	"time"

	"notaspese/internal/cache"
)

const (
	DefaultCacheEntries = 32
	DefaultCacheTTL     = time.Hour
)

// PhotoSource is anything that can download a photo by URL.
type PhotoSource interface {
	Fetch(ctx context.Context, url string) (Photo, error)
}

// CachedFetcher keeps recently downloaded photos so that exporting the same
// week twice does not hit the photo host again. Failures are not cached.
type CachedFetcher struct {
	source PhotoSource
	cache  *cache.LRUCache[Photo]
}

func NewCachedFetcher(source PhotoSource, entries int, ttl time.Duration) *CachedFetcher {
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{source: source, cache: cache.NewLRUCache[Photo](entries, ttl)}
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) (Photo, error) {
	if p, ok := f.cache.Get(url); ok {
		return p, nil
	}
	p, err := f.source.Fetch(ctx, url)
	if err != nil {
		return Photo{}, err
	}
	f.cache.CleanExpired()
	f.cache.Set(url, p)
	return p, nil
}

// CacheStats is a point-in-time view of the photo cache.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

func (f *CachedFetcher) Stats() CacheStats {
	hits, misses := f.cache.Stats()
	return CacheStats{Hits: hits, Misses: misses, Entries: f.cache.Size()}
}
