// Package cache holds calculation results in memory.
package cache

import (
	"sync"

	"github.com/vsinha/capplan/pkg/application/dto"
)

// DefaultMaxEntries bounds the cache when no limit is configured
const DefaultMaxEntries = 10000

// ResultCache is a generation-guarded map of calculation results, grouped
// by scenario and then by org scope ("" for the unscoped report).
type ResultCache struct {
	mu          sync.RWMutex
	entries     map[string]map[string]*dto.CalculationResult
	size        int
	generations map[string]uint64
	maxEntries  int
}

// NewResultCache creates a cache holding at most maxEntries results; zero uses the default
func NewResultCache(maxEntries int) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ResultCache{
		entries:     make(map[string]map[string]*dto.CalculationResult),
		generations: make(map[string]uint64),
		maxEntries:  maxEntries,
	}
}

// Get returns a cached result
func (c *ResultCache) Get(scenarioID, orgScope string) (*dto.CalculationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[scenarioID][orgScope]
	return r, ok
}

// Generation returns the scenario's current generation
func (c *ResultCache) Generation(scenarioID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[scenarioID]
}

// Put stores the result if the scenario was not invalidated since generation
// was read. It reports whether the result was stored.
func (c *ResultCache) Put(scenarioID, orgScope string, generation uint64, result *dto.CalculationResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[scenarioID] != generation {
		return false
	}
	scoped, ok := c.entries[scenarioID]
	if _, exists := scoped[orgScope]; !exists {
		if c.size >= c.maxEntries {
			// Full: drop everything rather than track recency
			c.entries = make(map[string]map[string]*dto.CalculationResult)
			c.size = 0
			ok = false
		}
		c.size++
	}
	if !ok {
		scoped = make(map[string]*dto.CalculationResult)
		c.entries[scenarioID] = scoped
	}
	scoped[orgScope] = result
	return true
}

// Invalidate removes the scenario's entries, including org-scoped ones,
// and advances its generation.
func (c *ResultCache) Invalidate(scenarioID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[scenarioID]++
	c.size -= len(c.entries[scenarioID])
	delete(c.entries, scenarioID)
}
