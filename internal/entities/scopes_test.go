package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntities() []Entity {
	return []Entity{
		{ID: "u1", Kind: KindUnit, TenantID: "t1", Name: "Retail"},
		{ID: "u2", Kind: KindUnit, TenantID: "t2", Name: "Wholesale"},
		{ID: "b1", Kind: KindBranch, CompanyID: "u1", TenantID: "t1", Name: "Dhaka"},
		{ID: "b2", Kind: KindBranch, CompanyID: "u2", Name: "Sylhet"},
	}
}

func ids(list []Entity) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func TestSelectableScopesFiltersByContext(t *testing.T) {
	scopes := SelectableScopes(sampleEntities(), "u2", nil)
	assert.Equal(t, []string{"u2", "b2"}, ids(scopes))

	scopes = SelectableScopes(sampleEntities(), "t1", nil)
	assert.Equal(t, []string{"u1", "b1"}, ids(scopes))
}

func TestSelectableScopesFallsBackToEverything(t *testing.T) {
	scopes := SelectableScopes(sampleEntities(), "unknown", nil)
	assert.Equal(t, []string{"u1", "u2", "b1", "b2"}, ids(scopes))
}

func TestSelectableScopesAddsUnknownBranchWhenEditing(t *testing.T) {
	scopes := SelectableScopes(sampleEntities(), "u1", &EditTarget{CompanyID: "u1", WingID: "gone"})
	require.Equal(t, []string{"gone", "u1", "b1"}, ids(scopes))
	assert.Equal(t, KindBranch, scopes[0].Kind)
	assert.Equal(t, "Unknown Branch", scopes[0].Name)
}

func TestSelectableScopesAddsMainUnitWhenEditing(t *testing.T) {
	list := []Entity{{ID: "b1", Kind: KindBranch, CompanyID: "u9", Name: "Dhaka"}}
	scopes := SelectableScopes(list, "u9", &EditTarget{CompanyID: "u9"})
	require.Equal(t, []string{"u9", "b1"}, ids(scopes))
	assert.Equal(t, KindUnit, scopes[0].Kind)
	assert.Equal(t, "Main Unit", scopes[0].Name)
}

func TestSelectableScopesKeepsExistingSelection(t *testing.T) {
	scopes := SelectableScopes(sampleEntities(), "u1", &EditTarget{CompanyID: "u1", WingID: "b1"})
	assert.Equal(t, []string{"u1", "b1"}, ids(scopes))
}
