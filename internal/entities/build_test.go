package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
)

func TestBuildEntityListPrependsRoot(t *testing.T) {
	companies := []backend.Company{
		{ID: "u1", Name: "Retail", Code: "RT", AuthCompanyUUID: "t1"},
		{ID: "g1", Name: "Holding", IsGroup: true},
	}
	wings := []backend.Wing{
		{ID: "b1", Name: "Dhaka", Company: "u1"},
		{ID: "b2", Name: "Chittagong", CompanyUUID: "u2"},
	}
	root := &backend.CompanyTree{ID: "r1", Name: "Acme", AuthCompanyUUID: "t1"}

	list := BuildEntityList(companies, wings, root)
	require.Len(t, list, 5)

	assert.Equal(t, Entity{ID: "r1", Kind: KindUnit, TenantID: "t1", Name: "Acme", Code: "ROOT"}, list[0])
	assert.Equal(t, KindUnit, list[1].Kind)
	assert.Equal(t, "t1", list[1].TenantID)
	assert.Equal(t, KindGroup, list[2].Kind)
	assert.Equal(t, Entity{ID: "b1", Kind: KindBranch, TenantID: "t1", CompanyID: "u1", Name: "Dhaka"}, list[3])
	assert.Equal(t, "u2", list[4].CompanyID)
	assert.Equal(t, "t1", list[4].TenantID)
}

func TestBuildEntityListKeepsExistingRoot(t *testing.T) {
	companies := []backend.Company{{ID: "r1", Name: "Acme", Code: "AC"}}
	root := &backend.CompanyTree{ID: "r1", Name: "Acme"}

	list := BuildEntityList(companies, nil, root)
	require.Len(t, list, 1)
	assert.Equal(t, "AC", list[0].Code)
	assert.Equal(t, "r1", RootCompanyID(root))
}

func TestBuildEntityListWithoutRoot(t *testing.T) {
	list := BuildEntityList(nil, []backend.Wing{{ID: "b1", Company: "u1"}}, nil)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].TenantID)
	assert.Empty(t, RootCompanyID(nil))
}
