package entities

const (
	// SelectAll is the selector sentinel for the consolidated view.
	SelectAll = "all"
	// ConsolidatedName labels the consolidated context.
	ConsolidatedName = "Consolidated (All Units)"
)

// Context is the accounting scope derived from the current selection.
type Context struct {
	CompanyID         string `json:"companyId"`
	WingID            string `json:"wingId,omitempty"`
	CreationCompanyID string `json:"creationCompanyId"`
	TargetName        string `json:"targetName"`
}

// Configured reports whether the context names a company. It is false only
// when no root company is known.
func (c Context) Configured() bool {
	return c.CompanyID != ""
}

// ResolveContext maps a selection onto its accounting scope. Unknown ids fall
// back to the consolidated context.
func ResolveContext(list []Entity, selectedID, rootCompanyID string) Context {
	if selectedID == SelectAll {
		return consolidated(rootCompanyID)
	}
	entity, ok := Find(list, selectedID)
	if !ok {
		return consolidated(rootCompanyID)
	}
	switch entity.Kind {
	case KindUnit, KindGroup:
		return Context{
			CompanyID:         firstNonEmpty(entity.TenantID, entity.ID),
			CreationCompanyID: entity.ID,
			TargetName:        entity.Name,
		}
	case KindBranch:
		return Context{
			CompanyID:         firstNonEmpty(entity.TenantID, entity.CompanyID),
			WingID:            entity.ID,
			CreationCompanyID: entity.CompanyID,
			TargetName:        entity.Name,
		}
	}
	return consolidated(rootCompanyID)
}

func consolidated(rootCompanyID string) Context {
	return Context{
		CompanyID:         rootCompanyID,
		CreationCompanyID: rootCompanyID,
		TargetName:        ConsolidatedName,
	}
}
