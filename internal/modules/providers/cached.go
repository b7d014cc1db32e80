package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"wondura/internal/cache"
	"wondura/internal/logger"
	"wondura/internal/metrics"
)

// CachedSearcher serves repeated objectives from a Store and collapses identical in-flight searches.
// Cache failures are logged and never fail the search.
//
// A collapsed search is detached from the caller that started it and bounded by its own timeout,
// so one caller going away never fails the others waiting on the same objective.
type CachedSearcher struct {
	next    Searcher
	store   cache.Store
	ttl     time.Duration
	timeout time.Duration
	log     logger.Logger
	group   singleflight.Group
}

// NewCachedSearcher wraps next. A nil store disables caching but keeps request collapsing.
// timeout bounds each shared search; zero means DefaultSharedSearchTimeout.
func NewCachedSearcher(next Searcher, store cache.Store, ttl, timeout time.Duration, log logger.Logger) *CachedSearcher {
	if timeout <= 0 {
		timeout = DefaultSharedSearchTimeout
	}
	return &CachedSearcher{next: next, store: store, ttl: ttl, timeout: timeout, log: log}
}

// DefaultSharedSearchTimeout matches the per-adapter lookup budget.
const DefaultSharedSearchTimeout = 25 * time.Second

func (c *CachedSearcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	key := requestKey(req)

	if c.store != nil {
		if raw, ok, err := c.store.Get(ctx, key); err != nil {
			c.log.Warn("search cache get failed", map[string]interface{}{"error": err.Error()})
		} else if ok {
			var resp SearchResponse
			if err := json.Unmarshal(raw, &resp); err == nil {
				metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
				return &resp, nil
			}
		}
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		resp, err := c.next.Search(sctx, req)
		if err != nil {
			return nil, err
		}
		if c.store != nil {
			if raw, err := json.Marshal(resp); err == nil {
				if err := c.store.Set(sctx, key, raw, c.ttl); err != nil {
					c.log.Warn("search cache set failed", map[string]interface{}{"error": err.Error()})
				}
			}
		}
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*SearchResponse), nil
	}
}

func requestKey(req SearchRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
