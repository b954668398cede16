package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/application/dto"
)

func TestResultCache_InvalidateDropsScopedVariants(t *testing.T) {
	c := NewResultCache(0)
	require.True(t, c.Put("S1", "", 0, &dto.CalculationResult{ScenarioID: "S1"}))
	require.True(t, c.Put("S1", "platform", 0, &dto.CalculationResult{ScenarioID: "S1"}))
	require.True(t, c.Put("S10", "", 0, &dto.CalculationResult{ScenarioID: "S10"}))

	c.Invalidate("S1")

	_, ok := c.Get("S1", "")
	assert.False(t, ok)
	_, ok = c.Get("S1", "platform")
	assert.False(t, ok)
	_, ok = c.Get("S10", "")
	assert.True(t, ok, "S10 shares a prefix but is another scenario")
	assert.Equal(t, uint64(1), c.Generation("S1"))
}

func TestResultCache_ColonsInIDsDoNotCollide(t *testing.T) {
	c := NewResultCache(0)
	require.True(t, c.Put("S", "x", 0, &dto.CalculationResult{ScenarioID: "S", OrgScope: "x"}))
	require.True(t, c.Put("S:x", "", 0, &dto.CalculationResult{ScenarioID: "S:x"}))

	scoped, ok := c.Get("S", "x")
	require.True(t, ok)
	assert.Equal(t, "S", scoped.ScenarioID)
	whole, ok := c.Get("S:x", "")
	require.True(t, ok)
	assert.Equal(t, "S:x", whole.ScenarioID)

	c.Invalidate("S")
	_, ok = c.Get("S:x", "")
	assert.True(t, ok, "invalidating S keeps scenario S:x")
	_, ok = c.Get("S", "x")
	assert.False(t, ok)
}

func TestResultCache_StalePutIsDiscarded(t *testing.T) {
	c := NewResultCache(0)
	generation := c.Generation("S1")

	c.Invalidate("S1")

	assert.False(t, c.Put("S1", "", generation, &dto.CalculationResult{ScenarioID: "S1"}))
	_, ok := c.Get("S1", "")
	assert.False(t, ok)
	assert.True(t, c.Put("S1", "", c.Generation("S1"), &dto.CalculationResult{ScenarioID: "S1"}))
}

func TestResultCache_Bounded(t *testing.T) {
	c := NewResultCache(2)
	c.Put("A", "", 0, &dto.CalculationResult{})
	c.Put("A", "web", 0, &dto.CalculationResult{})
	c.Put("A", "web", 0, &dto.CalculationResult{})
	_, ok := c.Get("A", "")
	assert.True(t, ok, "replacing an entry does not count against the bound")

	c.Put("B", "", 0, &dto.CalculationResult{})
	_, ok = c.Get("A", "")
	assert.False(t, ok)
	_, ok = c.Get("B", "")
	assert.True(t, ok)

	c.Invalidate("B")
	c.Put("C", "", 0, &dto.CalculationResult{})
	c.Put("D", "", 0, &dto.CalculationResult{})
	_, ok = c.Get("C", "")
	assert.True(t, ok, "invalidation frees room")
}
