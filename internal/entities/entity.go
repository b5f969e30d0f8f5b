// Package entities resolves which company and branch an accounting view or a
// new posting applies to.
package entities

import (
	"encoding/json"
	"fmt"
)

// Kind is the closed set of organizational node types.
type Kind string

const (
	KindGroup  Kind = "group"
	KindUnit   Kind = "unit"
	KindBranch Kind = "branch"
)

// ParseKind validates a raw kind tag.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindGroup, KindUnit, KindBranch:
		return Kind(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
}

// IsCompany reports whether the node is its own accounting company.
func (k Kind) IsCompany() bool {
	switch k {
	case KindUnit, KindGroup:
		return true
	case KindBranch:
		return false
	}
	return false
}

// Label is the display name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindGroup:
		return "Group"
	case KindUnit:
		return "Unit"
	case KindBranch:
		return "Branch"
	}
	return string(k)
}

// UnmarshalJSON rejects unknown kinds.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Entity is a root company, unit, group or branch. Empty optional fields are
// absent.
type Entity struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"type"`
	TenantID  string `json:"tenant_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
}

// Find returns the entity with id.
func Find(list []Entity, id string) (Entity, bool) {
	if id == "" {
		return Entity{}, false
	}
	for _, e := range list {
		if e.ID == id {
			return e, true
		}
	}
	return Entity{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
