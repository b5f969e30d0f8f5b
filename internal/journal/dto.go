package journal

import (
	"github.com/odyssey-erp/odyssey-desk/internal/backend"
	"github.com/odyssey-erp/odyssey-desk/internal/entities"
)

// DraftResponse wraps a draft view with its id.
type DraftResponse struct {
	ID string `json:"id"`
	View
}

// SubmitResponse is returned after a successful submission. Draft is the
// reset form, ready for the next entry.
type SubmitResponse struct {
	Journal backend.Journal `json:"journal"`
	Draft   DraftResponse   `json:"draft"`
}

// ScopesResponse lists the selector options of a draft.
type ScopesResponse struct {
	Scopes []ScopeOption `json:"scopes"`
}

// ScopeOption is one branch/unit selector option.
type ScopeOption struct {
	Value string        `json:"value"`
	Label string        `json:"label"`
	Kind  entities.Kind `json:"type"`
}
