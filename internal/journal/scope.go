package journal

import (
	"github.com/odyssey-erp/odyssey-desk/internal/backend"
	"github.com/odyssey-erp/odyssey-desk/internal/entities"
)

// SubmissionScope is the company/wing pair a journal posts under. An empty
// WingUUID posts at unit level.
type SubmissionScope struct {
	CompanyUUID string `json:"company_uuid"`
	WingUUID    string `json:"wing_uuid,omitempty"`
}

func (s SubmissionScope) wingPtr() *string {
	if s.WingUUID == "" {
		return nil
	}
	wing := s.WingUUID
	return &wing
}

// AccountFilter is the account listing for this scope. Branch postings list
// the branch's accounts, unit postings the whole company's.
func (s SubmissionScope) AccountFilter() backend.AccountFilter {
	return backend.AccountFilter{CompanyUUID: s.CompanyUUID, WingUUID: s.WingUUID}
}

// ResolveSubmissionScope derives the posting scope from the live selector
// value. Units and groups post under their own id with no wing; branches post
// under their company; anything unmatched posts under the context company.
func ResolveSubmissionScope(selected string, scopes []entities.Entity, contextCompanyID string) SubmissionScope {
	entity, ok := matchScope(scopes, selected)
	if !ok {
		return SubmissionScope{CompanyUUID: contextCompanyID}
	}
	switch entity.Kind {
	case entities.KindUnit, entities.KindGroup:
		return SubmissionScope{CompanyUUID: entity.ID}
	case entities.KindBranch:
		company := entity.CompanyID
		if company == "" {
			company = contextCompanyID
		}
		return SubmissionScope{CompanyUUID: company, WingUUID: entity.ID}
	}
	return SubmissionScope{CompanyUUID: contextCompanyID}
}

// matchScope finds selected by id, then by tenant id.
func matchScope(scopes []entities.Entity, selected string) (entities.Entity, bool) {
	if selected == "" {
		return entities.Entity{}, false
	}
	if e, ok := entities.Find(scopes, selected); ok {
		return e, true
	}
	for _, e := range scopes {
		if e.TenantID != "" && e.TenantID == selected {
			return e, true
		}
	}
	return entities.Entity{}, false
}
