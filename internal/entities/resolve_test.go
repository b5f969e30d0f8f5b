package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContextUnitPrefersTenant(t *testing.T) {
	list := []Entity{{ID: "u1", Kind: KindUnit, TenantID: "t1", Name: "Unit One"}}

	first := ResolveContext(list, "u1", "root")
	second := ResolveContext(list, "u1", "root")

	assert.Equal(t, first, second)
	assert.Equal(t, Context{CompanyID: "t1", CreationCompanyID: "u1", TargetName: "Unit One"}, first)
}

func TestResolveContextUnitWithoutTenantUsesOwnID(t *testing.T) {
	list := []Entity{{ID: "g1", Kind: KindGroup, Name: "Holding"}}
	ctx := ResolveContext(list, "g1", "t1")
	assert.Equal(t, "g1", ctx.CompanyID)
	assert.Empty(t, ctx.WingID)
	assert.Equal(t, "g1", ctx.CreationCompanyID)
}

func TestResolveContextConsolidatedIgnoresEntities(t *testing.T) {
	lists := [][]Entity{
		nil,
		{{ID: "all", Kind: KindUnit, TenantID: "other"}},
		{{ID: "u1", Kind: KindUnit}},
	}
	for _, list := range lists {
		ctx := ResolveContext(list, SelectAll, "t1")
		assert.Equal(t, Context{CompanyID: "t1", CreationCompanyID: "t1", TargetName: ConsolidatedName}, ctx)
	}
}

func TestResolveContextBranch(t *testing.T) {
	list := []Entity{
		{ID: "u1", Kind: KindUnit, TenantID: "t1"},
		{ID: "b1", Kind: KindBranch, CompanyID: "u1", TenantID: "t1", Name: "Dhaka"},
	}
	ctx := ResolveContext(list, "b1", "t1")
	assert.Equal(t, Context{CompanyID: "t1", WingID: "b1", CreationCompanyID: "u1", TargetName: "Dhaka"}, ctx)
}

func TestResolveContextBranchWithoutTenant(t *testing.T) {
	list := []Entity{{ID: "b1", Kind: KindBranch, CompanyID: "u1"}}
	ctx := ResolveContext(list, "b1", "t1")
	assert.Equal(t, "u1", ctx.CompanyID)
	assert.Equal(t, "b1", ctx.WingID)
}

func TestResolveContextUnknownFallsBack(t *testing.T) {
	ctx := ResolveContext([]Entity{{ID: "u1", Kind: KindUnit}}, "nope", "t1")
	assert.Equal(t, "t1", ctx.CompanyID)
	assert.Equal(t, ConsolidatedName, ctx.TargetName)
	assert.True(t, ctx.Configured())

	assert.False(t, ResolveContext(nil, "nope", "").Configured())
}

func TestKindRejectsUnknownTags(t *testing.T) {
	var e Entity
	err := json.Unmarshal([]byte(`{"id":"x","type":"warehouse"}`), &e)
	require.ErrorIs(t, err, ErrUnknownKind)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"branch"}`), &e))
	assert.Equal(t, KindBranch, e.Kind)
	assert.False(t, e.Kind.IsCompany())
	assert.True(t, KindGroup.IsCompany())
}
