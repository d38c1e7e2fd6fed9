package caption

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/siraymusic/siray/internal/ports"
)

// DefaultCacheSize is the number of captions kept by NewCachedService when
// given a non-positive size.
const DefaultCacheSize = 256

type cacheKey struct {
	title  string
	artist string
}

// CachedService remembers successful captions of an underlying service.
// Failures are never cached, so a later request for the same track asks again.
type CachedService struct {
	next  ports.CaptionService
	cache *lru.Cache[cacheKey, string]
}

// NewCachedService wraps next with an LRU cache of the given size.
func NewCachedService(next ports.CaptionService, size int) (*CachedService, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedService{next: next, cache: cache}, nil
}

func keyOf(title, artist string) cacheKey {
	return cacheKey{
		title:  strings.ToLower(strings.TrimSpace(title)),
		artist: strings.ToLower(strings.TrimSpace(artist)),
	}
}

// Describe implements ports.CaptionService.
func (c *CachedService) Describe(ctx context.Context, title, artist string) (string, error) {
	key := keyOf(title, artist)
	if text, ok := c.cache.Get(key); ok {
		return text, nil
	}

	text, err := c.next.Describe(ctx, title, artist)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, text)
	return text, nil
}

// Len returns the number of cached captions.
func (c *CachedService) Len() int {
	return c.cache.Len()
}

// Purge drops every cached caption.
func (c *CachedService) Purge() {
	c.cache.Purge()
}

var _ ports.CaptionService = (*CachedService)(nil)
