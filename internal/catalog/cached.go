package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedKB wraps a knowledge base with a TTL-bound cache so remote
// backends (Postgres, S3) are not hit on every interpretation call.
type CachedKB struct {
	inner KnowledgeBase
	specs *expirable.LRU[string, ComponentSpec]

	mu        sync.Mutex
	listTTL   time.Duration
	listAt    time.Time
	listCache []ComponentSpec
}

func NewCachedKB(inner KnowledgeBase, maxEntries int, ttl time.Duration) *CachedKB {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedKB{
		inner:   inner,
		specs:   expirable.NewLRU[string, ComponentSpec](maxEntries, nil, ttl),
		listTTL: ttl,
	}
}

func (kb *CachedKB) ListComponentTypes(ctx context.Context) ([]ComponentSpec, error) {
	kb.mu.Lock()
	if kb.listCache != nil && time.Since(kb.listAt) < kb.listTTL {
		cached := append([]ComponentSpec(nil), kb.listCache...)
		kb.mu.Unlock()
		return cached, nil
	}
	kb.mu.Unlock()

	specs, err := kb.inner.ListComponentTypes(ctx)
	if err != nil {
		return nil, err
	}

	kb.mu.Lock()
	kb.listCache = append([]ComponentSpec(nil), specs...)
	kb.listAt = time.Now()
	kb.mu.Unlock()
	for _, spec := range specs {
		kb.specs.Add(spec.Type, spec)
	}
	return specs, nil
}

func (kb *CachedKB) GetComponent(ctx context.Context, componentType string) (ComponentSpec, error) {
	if spec, ok := kb.specs.Get(componentType); ok {
		return spec, nil
	}
	spec, err := kb.inner.GetComponent(ctx, componentType)
	if err != nil {
		return ComponentSpec{}, err
	}
	kb.specs.Add(spec.Type, spec)
	return spec, nil
}

// Invalidate drops all cached entries.
func (kb *CachedKB) Invalidate() {
	kb.mu.Lock()
	kb.listCache = nil
	kb.mu.Unlock()
	kb.specs.Purge()
}
