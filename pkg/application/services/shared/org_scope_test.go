package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapOrgScopeResolver(t *testing.T) {
	r := NewOrgScopeResolver(map[string][]string{
		"engineering": {"platform", "product"},
		"product":     {"product", "web", "mobile"},
	})
	ctx := context.Background()

	units, err := r.ResolveOrgUnits(ctx, "engineering")
	require.NoError(t, err)
	assert.Equal(t, []string{"platform", "product", "web", "mobile"}, units)

	units, err = r.ResolveOrgUnits(ctx, "finance")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance"}, units)

	units, err = r.ResolveOrgUnits(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, units)
}
