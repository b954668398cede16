package shared

import (
	"context"
)

// OrgScopeResolver expands an organizational scope into org unit ids
type OrgScopeResolver interface {
	ResolveOrgUnits(ctx context.Context, orgScope string) ([]string, error)
}

// MapOrgScopeResolver resolves scopes through a static scope → units table.
// A scope missing from the table matches the org unit of the same id.
type MapOrgScopeResolver struct {
	scopes map[string][]string
}

// NewOrgScopeResolver creates a resolver; a nil table gives exact matching
func NewOrgScopeResolver(scopes map[string][]string) *MapOrgScopeResolver {
	return &MapOrgScopeResolver{scopes: scopes}
}

// Verify interface compliance
var _ OrgScopeResolver = (*MapOrgScopeResolver)(nil)

// ResolveOrgUnits returns the units of a scope, nested scopes expanded once each
func (r *MapOrgScopeResolver) ResolveOrgUnits(ctx context.Context, orgScope string) ([]string, error) {
	if orgScope == "" {
		return nil, nil
	}

	seen := map[string]bool{}
	var units []string
	var walk func(scope string)
	walk = func(scope string) {
		if seen[scope] {
			return
		}
		seen[scope] = true
		children, ok := r.scopes[scope]
		if !ok {
			units = append(units, scope)
			return
		}
		for _, child := range children {
			if child == scope {
				units = append(units, child)
				continue
			}
			walk(child)
		}
	}
	walk(orgScope)
	return units, nil
}
