package contentsafety

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_classifier_cache_hits_total",
		Help: "Classification results served from the local cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_classifier_cache_misses_total",
		Help: "Classification lookups that had to call the remote classifier.",
	})
)

// CachedClassifier keeps successful results per content digest so that
// republishing identical content does not call the remote service again.
type CachedClassifier struct {
	next  Classifier
	cache *expirable.LRU[string, Result]
}

func NewCachedClassifier(next Classifier, size int, ttl time.Duration) *CachedClassifier {
	if size <= 0 {
		size = 1024
	}
	return &CachedClassifier{
		next:  next,
		cache: expirable.NewLRU[string, Result](size, nil, ttl),
	}
}

func (c *CachedClassifier) Classify(ctx context.Context, kind MediaKind, content []byte, blocklists []string) (Result, error) {
	key := cacheKey(kind, content, blocklists)
	if res, ok := c.cache.Get(key); ok {
		cacheHitsTotal.Inc()
		return res, nil
	}
	cacheMissesTotal.Inc()

	res, err := c.next.Classify(ctx, kind, content, blocklists)
	if err != nil {
		return Result{}, err
	}
	c.cache.Add(key, res)
	return res, nil
}

func (c *CachedClassifier) Len() int {
	return c.cache.Len()
}

func cacheKey(kind MediaKind, content []byte, blocklists []string) string {
	sum := sha256.Sum256(content)
	return strconv.Itoa(int(kind)) + ":" + hex.EncodeToString(sum[:]) + ":" + strings.Join(blocklists, ",")
}
