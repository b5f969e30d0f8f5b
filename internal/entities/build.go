package entities

import "github.com/odyssey-erp/odyssey-desk/internal/backend"

const rootCode = "ROOT"

// RootCompanyID returns the tenant id of the root company, falling back to its
// own id on single-tenant installs.
func RootCompanyID(root *backend.CompanyTree) string {
	if root == nil || root.ID == "" {
		return ""
	}
	return firstNonEmpty(root.AuthCompanyUUID.String(), root.ID.String())
}

// BuildEntityList merges companies, branches and the root company into one
// list: companies first (root prepended when missing), then branches.
//
// Every branch takes the root's tenant id whichever unit it belongs to. That
// is only right for single-tenant deployments.
func BuildEntityList(companies []backend.Company, wings []backend.Wing, root *backend.CompanyTree) []Entity {
	list := make([]Entity, 0, len(companies)+len(wings)+1)
	for _, c := range companies {
		kind := KindUnit
		if c.IsGroup {
			kind = KindGroup
		}
		list = append(list, Entity{
			ID:       c.ID.String(),
			Kind:     kind,
			TenantID: c.AuthCompanyUUID.String(),
			Name:     c.Name,
			Code:     c.Code,
		})
	}

	rootTenant := RootCompanyID(root)
	if rootTenant != "" {
		if _, ok := Find(list, root.ID.String()); !ok {
			list = append([]Entity{{
				ID:       root.ID.String(),
				Kind:     KindUnit,
				TenantID: rootTenant,
				Name:     root.Name,
				Code:     firstNonEmpty(root.Code, rootCode),
			}}, list...)
		}
	}

	for _, w := range wings {
		list = append(list, Entity{
			ID:        w.ID.String(),
			Kind:      KindBranch,
			TenantID:  rootTenant,
			CompanyID: firstNonEmpty(w.Company.String(), w.CompanyUUID.String()),
			Name:      w.Name,
			Code:      w.Code,
		})
	}
	return list
}
