package backend

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/odyssey-erp/odyssey-desk/internal/platform/money"
)

// ID is a remote identifier. The API emits UUID strings for most records and
// integers for a few legacy ones; both decode to their string form.
type ID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

// String returns the raw identifier.
func (id ID) String() string { return string(id) }

// Company is a company or group record from the company service.
type Company struct {
	ID              ID     `json:"id"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	IsGroup         bool   `json:"is_group"`
	AuthCompanyUUID ID     `json:"auth_company_uuid"`
}

// Wing is a branch record.
type Wing struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Company     ID     `json:"company"`
	CompanyUUID ID     `json:"company_uuid"`
}

// CompanyTree describes the root company of the deployment.
type CompanyTree struct {
	ID              ID     `json:"id"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	AuthCompanyUUID ID     `json:"auth_company_uuid"`
}

// Account is a ledger account available for posting.
type Account struct {
	ID        ID     `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	GroupType string `json:"group_type"`
}

// AccountFilter scopes an account listing.
type AccountFilter struct {
	CompanyUUID string `json:"company_uuid"`
	WingUUID    string `json:"wing_uuid,omitempty"`
}

// Key identifies the filter for staleness comparisons.
func (f AccountFilter) Key() string {
	return f.CompanyUUID + "|" + f.WingUUID
}

// JournalLine is one debit/credit row on the wire.
type JournalLine struct {
	Account     ID           `json:"account"`
	Debit       money.Amount `json:"debit"`
	Credit      money.Amount `json:"credit"`
	Description string       `json:"description"`
}

// Journal is a persisted journal entry.
type Journal struct {
	ID          ID            `json:"id"`
	Date        string        `json:"date"`
	Reference   string        `json:"reference"`
	VoucherType string        `json:"voucher_type"`
	Description string        `json:"description"`
	CompanyUUID ID            `json:"company_uuid"`
	WingUUID    ID            `json:"wing_uuid"`
	Source      string        `json:"source,omitempty"`
	Items       []JournalLine `json:"items"`
	TotalDebit  money.Amount  `json:"total_debit"`
	TotalCredit money.Amount  `json:"total_credit"`
	CreatedAt   string        `json:"created_at,omitempty"`
	UpdatedAt   string        `json:"updated_at,omitempty"`
}

// JournalPayload is the body for create and update calls. WingUUID is null for
// unit-level postings.
type JournalPayload struct {
	Date        string        `json:"date"`
	Reference   string        `json:"reference"`
	VoucherType string        `json:"voucher_type"`
	Description string        `json:"description"`
	CompanyUUID string        `json:"company_uuid"`
	WingUUID    *string       `json:"wing_uuid"`
	Items       []JournalLine `json:"items"`
}

// JournalFilter narrows a journal listing.
type JournalFilter struct {
	WingUUID    string
	CompanyUUID string
	StartDate   string
	EndDate     string
	VoucherType string
}

func (f JournalFilter) params() map[string]string {
	params := make(map[string]string)
	if f.WingUUID != "" {
		params["wing_uuid"] = f.WingUUID
	}
	if f.CompanyUUID != "" {
		params["company_uuid"] = f.CompanyUUID
	}
	if f.StartDate != "" {
		params["start_date"] = f.StartDate
	}
	if f.EndDate != "" {
		params["end_date"] = f.EndDate
	}
	if f.VoucherType != "" && f.VoucherType != "all" {
		params["voucher_type"] = f.VoucherType
	}
	return params
}

// decodeList accepts both paginated {"results": [...]} bodies and bare arrays.
func decodeList[T any](body []byte) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	if body[0] == '[' {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
