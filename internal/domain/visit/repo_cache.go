package visit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// CacheObserver counts cache hits and misses.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

const listKey = "visits"

type repoCache struct {
	next  Repository
	cache *expirable.LRU[string, []*Visit]
	group singleflight.Group
	obs   CacheObserver
	// gen is bumped by every write; a read started under an older gen is
	// not cached.
	gen atomic.Uint64
}

// NewCachedRepo keeps the last List result of next for ttl. Concurrent
// misses share one read and every write purges the cache. A ttl of zero
// or less returns next unchanged. obs may be nil.
func NewCachedRepo(next Repository, ttl time.Duration, obs CacheObserver) Repository {
	if ttl <= 0 {
		return next
	}
	return &repoCache{
		next:  next,
		cache: expirable.NewLRU[string, []*Visit](1, nil, ttl),
		obs:   obs,
	}
}

func (r *repoCache) List(ctx context.Context) ([]*Visit, error) {
	if visits, ok := r.cache.Get(listKey); ok {
		if r.obs != nil {
			r.obs.CacheHit()
		}
		return cloneAll(visits), nil
	}
	if r.obs != nil {
		r.obs.CacheMiss()
	}

	res, err, _ := r.group.Do(listKey, func() (interface{}, error) {
		gen := r.gen.Load()
		visits, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		if r.gen.Load() == gen {
			r.cache.Add(listKey, visits)
		}
		return visits, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneAll(res.([]*Visit)), nil
}

func (r *repoCache) Append(ctx context.Context, v *Visit) error {
	defer r.invalidate()
	return r.next.Append(ctx, v)
}

func (r *repoCache) Update(ctx context.Context, v *Visit) error {
	defer r.invalidate()
	return r.next.Update(ctx, v)
}

func (r *repoCache) Delete(ctx context.Context, row int) error {
	defer r.invalidate()
	return r.next.Delete(ctx, row)
}

func (r *repoCache) invalidate() {
	r.gen.Add(1)
	r.cache.Purge()
}

func cloneAll(visits []*Visit) []*Visit {
	out := make([]*Visit, len(visits))
	for i, v := range visits {
		out[i] = v.clone()
	}
	return out
}
