package catalog

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "products"

// Filter is the coarse pre-filter a Fetcher may apply server-side.
type Filter struct {
	CategoryID  *int64
	InStockOnly bool
}

// Fetcher loads product records from the remote source of truth.
type Fetcher interface {
	FetchProducts(ctx context.Context, filter Filter) ([]Product, error)
}

// Source caches the full base set for a TTL and collapses concurrent refreshes
// into a single fetch.
type Source struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	logg    *logger.Logger
	group   singleflight.Group

	mu        sync.RWMutex
	base      []Product
	fetchedAt time.Time
	loaded    bool
}

// NewSource builds a Source. ttl <= 0 refetches on every call.
func NewSource(fetcher Fetcher, ttl time.Duration, logg *logger.Logger) *Source {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Source{fetcher: fetcher, ttl: ttl, now: time.Now, logg: logg}
}

// Products returns the cached base set, refreshing it when stale. When a
// refresh fails and an older base set exists, the older set is served.
func (s *Source) Products(ctx context.Context) ([]Product, error) {
	if base, ok := s.fresh(); ok {
		return base, nil
	}
	base, err := s.Refresh(ctx)
	if err == nil {
		return base, nil
	}
	s.mu.RLock()
	stale, loaded := s.base, s.loaded
	s.mu.RUnlock()
	if !loaded {
		return nil, err
	}
	s.logg.WarnErr(ctx, "catalog.refresh_failed_serving_stale", err)
	return stale, nil
}

// Refresh fetches the base set now. Concurrent callers share one fetch.
func (s *Source) Refresh(ctx context.Context) ([]Product, error) {
	result, err, shared := s.group.Do(refreshKey, func() (any, error) {
		products, err := s.fetcher.FetchProducts(context.WithoutCancel(ctx), Filter{})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch products")
		}
		s.mu.Lock()
		s.base = products
		s.fetchedAt = s.now()
		s.loaded = true
		s.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logg.Debug(ctx, "catalog.refresh_shared")
	}
	return result.([]Product), nil
}

// Product looks up one record in the base set.
func (s *Source) Product(ctx context.Context, id int64) (Product, error) {
	base, err := s.Products(ctx)
	if err != nil {
		return Product{}, err
	}
	p, ok := Find(base, id)
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": id})
	}
	return p, nil
}

// Invalidate forces the next Products call to refetch.
func (s *Source) Invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

func (s *Source) fresh() ([]Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded || s.ttl <= 0 {
		return nil, false
	}
	if s.now().Sub(s.fetchedAt) >= s.ttl {
		return nil, false
	}
	return s.base, true
}
