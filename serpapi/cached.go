package serpapi

import (
	"context"
	"errors"
	"time"

	"github.com/gilsentrycs/monitor-flights/pkg/cache"
	"github.com/gilsentrycs/monitor-flights/pkg/logger"
)

// Searcher is anything that can run a search, the Client or a decorator around it
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// CachedSearcher serves repeated searches from a cache. Only successful responses
// are stored; a cache outage falls through to the wrapped searcher.
type CachedSearcher struct {
	next  Searcher
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedSearcher(next Searcher, c cache.Cache, ttl time.Duration, log *logger.Logger) *CachedSearcher {
	if log == nil {
		log = logger.Default()
	}
	return &CachedSearcher{next: next, cache: c, ttl: ttl, log: log}
}

func (s *CachedSearcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	key := cache.SearchKey(req.Key())

	var cached SearchResponse
	err := cache.GetJSON(ctx, s.cache, key, &cached)
	switch {
	case err == nil:
		cached.FromCache = true
		return &cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.log.Warn("search cache unavailable", "error", err, "outbound_date", req.OutboundDate)
	}

	resp, err := s.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, resp, s.ttl); err != nil {
		s.log.Warn("failed to cache search response", "error", err, "outbound_date", req.OutboundDate)
	}
	return resp, nil
}
