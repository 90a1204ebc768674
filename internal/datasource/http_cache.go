package datasource

import (
	"time"

	"github.com/gregjones/httpcache"
	"github.com/launchdarkly/ccache"
)

// DefaultHTTPCacheSize is the number of responses the polling source keeps for conditional requests.
// Each environment/cluster pair needs two entries.
const DefaultHTTPCacheSize = 100

// Cached responses are only used to revalidate with ETags, so they never expire on their own; the
// size bound is what evicts them.
const httpCacheItemTTL = 24 * 365 * time.Hour

// boundedHTTPCache is an httpcache.Cache with an LRU size limit, so that an engine pointed at many
// environments over its lifetime doesn't keep every response it has ever seen.
type boundedHTTPCache struct {
	cache *ccache.Cache
}

var _ httpcache.Cache = (*boundedHTTPCache)(nil)

func newBoundedHTTPCache(maxSize int) *boundedHTTPCache {
	if maxSize <= 0 {
		maxSize = DefaultHTTPCacheSize
	}
	return &boundedHTTPCache{
		cache: ccache.New(ccache.Configure().MaxSize(int64(maxSize))),
	}
}

func (c *boundedHTTPCache) Get(key string) ([]byte, bool) {
	item := c.cache.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value().([]byte), true
}

func (c *boundedHTTPCache) Set(key string, responseBytes []byte) {
	c.cache.Set(key, responseBytes, httpCacheItemTTL)
}

func (c *boundedHTTPCache) Delete(key string) {
	c.cache.Delete(key)
}

func (c *boundedHTTPCache) close() {
	c.cache.Stop()
}
