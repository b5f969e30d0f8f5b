package entities

const (
	unknownBranchName = "Unknown Branch"
	mainUnitName      = "Main Unit"
)

// EditTarget names the scope stored on a journal being edited.
type EditTarget struct {
	CompanyID string
	WingID    string
}

// SelectableScopes returns the options offered by the branch/unit selector of
// a journal form. Entities tied to the context company are preferred; when
// none match every entity is offered so the user is never blocked. When
// editing a record whose scope is not in the list a placeholder is prepended
// so the stored value stays selectable.
func SelectableScopes(list []Entity, contextCompanyID string, editing *EditTarget) []Entity {
	related := func(e Entity, id string) bool {
		if id == "" {
			return false
		}
		return e.ID == id || e.CompanyID == id || e.TenantID == id
	}

	scopes := make([]Entity, 0, len(list))
	for _, e := range list {
		if related(e, contextCompanyID) || (editing != nil && related(e, editing.CompanyID)) {
			scopes = append(scopes, e)
		}
	}
	if len(scopes) == 0 {
		for _, e := range list {
			switch e.Kind {
			case KindBranch, KindUnit, KindGroup:
				scopes = append(scopes, e)
			}
		}
	}

	if editing == nil {
		return scopes
	}
	target := firstNonEmpty(editing.WingID, contextCompanyID)
	if target == "" {
		return scopes
	}
	if _, ok := Find(scopes, target); ok {
		return scopes
	}

	placeholder := Entity{ID: target, Kind: KindBranch, Name: unknownBranchName, CompanyID: contextCompanyID}
	if editing.WingID == "" {
		name := mainUnitName
		if e, ok := Find(list, contextCompanyID); ok && e.Name != "" {
			name = e.Name
		}
		placeholder = Entity{ID: target, Kind: KindUnit, Name: name}
	}
	return append([]Entity{placeholder}, scopes...)
}
