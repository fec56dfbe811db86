package invoke

import (
	"sync"
	"sync/atomic"

	"github.com/nielsdekker/detekt-ls/internal/locate"
)

// Cache memoizes resolved invocations per target identity.
//
// Resolution is performed once per identity; subsequent Resolve calls
// return the cached Invocation without touching the filesystem and
// without re-reporting warnings. Config location is assumed stable for
// the lifetime of an identity (resolve-once-per-session policy); the
// cache is never invalidated implicitly, only through Invalidate or
// Clear.
type Cache struct {
	mu      sync.Mutex
	entries map[Identity]*cacheEntry

	builder       Builder
	configNames   []string
	baselineNames []string

	// Metrics (atomic for lock-free reads).
	hits   atomic.Int64
	misses atomic.Int64
}

// cacheEntry resolves at most once; concurrent first resolvers for the
// same identity share a single writer through the sync.Once.
type cacheEntry struct {
	once    sync.Once
	inv     Invocation
	warning Warning
	err     error
}

// NewCache creates a Cache resolving with the given builder and
// candidate name lists. An empty baselineNames disables the baseline
// search.
func NewCache(builder Builder, configNames, baselineNames []string) *Cache {
	return &Cache{
		entries:       make(map[Identity]*cacheEntry),
		builder:       builder,
		configNames:   configNames,
		baselineNames: baselineNames,
	}
}

// Resolve returns the invocation for id, resolving it on first call.
//
// First call: the config is located by upward search from the target's
// directory; absence is a fatal *ConfigNotFoundError and nothing is
// cached, so a later trigger retries after the user adds a config.
// When baseline names are configured, baseline absence yields
// WarnBaselineNotFound alongside the result. Subsequent calls return
// the cached invocation with an empty warning and no filesystem access.
func (c *Cache) Resolve(id Identity, startDir string) (Invocation, Warning, error) {
	c.mu.Lock()

	entry, ok := c.entries[id]
	if !ok {
		entry = &cacheEntry{}
		c.entries[id] = entry
	}

	c.mu.Unlock()

	first := false

	entry.once.Do(func() {
		first = true
		entry.inv, entry.warning, entry.err = c.resolve(id, startDir)
	})

	if entry.err != nil {
		// Failed resolutions are not cached; drop the entry so the
		// next trigger searches again.
		c.mu.Lock()

		if c.entries[id] == entry {
			delete(c.entries, id)
		}

		c.mu.Unlock()

		c.misses.Add(1)

		return Invocation{}, "", entry.err
	}

	if first {
		c.misses.Add(1)

		return entry.inv, entry.warning, nil
	}

	c.hits.Add(1)

	return entry.inv, "", nil
}

func (c *Cache) resolve(id Identity, startDir string) (Invocation, Warning, error) {
	configRes, found := locate.Find(startDir, c.configNames)
	if !found {
		return Invocation{}, "", &ConfigNotFoundError{
			Names:    append([]string(nil), c.configNames...),
			StartDir: startDir,
		}
	}

	var (
		baselinePath string
		warning      Warning
	)

	if len(c.baselineNames) > 0 {
		baselineRes, baselineFound := locate.Find(startDir, c.baselineNames)
		if baselineFound {
			baselinePath = baselineRes.Path
		} else {
			warning = WarnBaselineNotFound
		}
	}

	inv, err := c.builder.Build(id, configRes.Path, baselinePath)
	if err != nil {
		return Invocation{}, "", err
	}

	return inv, warning, nil
}

// Invalidate drops the cached invocation for id, if any. The next
// Resolve for id performs a fresh search.
func (c *Cache) Invalidate(id Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, id)
}

// Clear drops all cached invocations.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Identity]*cacheEntry)
}

// Stats returns cumulative cache hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
