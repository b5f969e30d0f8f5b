// Package journal composes journal entries for the dashboard: live totals,
// balance validation, scope resolution and a single write per submission.
package journal

import (
	"time"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
	"github.com/odyssey-erp/odyssey-desk/internal/platform/money"
)

// VoucherType classifies an entry. It affects display only.
type VoucherType string

const (
	VoucherReceipt VoucherType = "receipt"
	VoucherPayment VoucherType = "payment"
	VoucherContra  VoucherType = "contra"
	VoucherJournal VoucherType = "journal"
)

// Valid reports whether v is one of the known voucher types.
func (v VoucherType) Valid() bool {
	switch v {
	case VoucherReceipt, VoucherPayment, VoucherContra, VoucherJournal:
		return true
	}
	return false
}

// Short is the list-badge abbreviation (RV, PV, CV, JV).
func (v VoucherType) Short() string {
	switch v {
	case VoucherReceipt:
		return "RV"
	case VoucherPayment:
		return "PV"
	case VoucherContra:
		return "CV"
	}
	return "JV"
}

// Line is one debit/credit row of the form.
type Line struct {
	Account     string       `json:"account"`
	Debit       money.Amount `json:"debit"`
	Credit      money.Amount `json:"credit"`
	Description string       `json:"description"`
}

// Entry is the form state of a journal. WingValue is the raw value of the
// branch/unit selector; the posted company/wing pair is derived from it at
// submit time.
type Entry struct {
	ID          string      `json:"id,omitempty"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	Reference   string      `json:"reference"`
	Description string      `json:"description"`
	VoucherType VoucherType `json:"voucher_type" validate:"required,oneof=receipt payment contra journal"`
	WingValue   string      `json:"wing_uuid" validate:"required"`
	Items       []Line      `json:"items"`
}

// BlankLines returns the two empty rows a fresh form starts with.
func BlankLines() []Line {
	return []Line{{}, {}}
}

// NewEntry returns an empty entry dated today.
func NewEntry(now time.Time, selector string) Entry {
	return Entry{
		Date:        now.Format(time.DateOnly),
		VoucherType: VoucherJournal,
		WingValue:   selector,
		Items:       BlankLines(),
	}
}

// EntryFromJournal hydrates form state from a persisted journal.
func EntryFromJournal(record backend.Journal) Entry {
	entry := Entry{
		ID:          record.ID.String(),
		Date:        record.Date,
		Reference:   record.Reference,
		Description: record.Description,
		VoucherType: VoucherType(record.VoucherType),
		WingValue:   record.WingUUID.String(),
	}
	if entry.WingValue == "" {
		entry.WingValue = record.CompanyUUID.String()
	}
	if !entry.VoucherType.Valid() {
		entry.VoucherType = VoucherJournal
	}
	for _, item := range record.Items {
		entry.Items = append(entry.Items, Line{
			Account:     item.Account.String(),
			Debit:       item.Debit.Rounded(),
			Credit:      item.Credit.Rounded(),
			Description: item.Description,
		})
	}
	if len(entry.Items) == 0 {
		entry.Items = BlankLines()
	}
	return entry
}

func (e Entry) clone() Entry {
	out := e
	out.Items = append([]Line(nil), e.Items...)
	return out
}

// payload builds the wire body for scope.
func (e Entry) payload(scope SubmissionScope) backend.JournalPayload {
	items := make([]backend.JournalLine, 0, len(e.Items))
	for _, line := range e.Items {
		items = append(items, backend.JournalLine{
			Account:     backend.ID(line.Account),
			Debit:       money.New(line.Debit.NonNegative()),
			Credit:      money.New(line.Credit.NonNegative()),
			Description: line.Description,
		})
	}
	return backend.JournalPayload{
		Date:        e.Date,
		Reference:   e.Reference,
		VoucherType: string(e.VoucherType),
		Description: e.Description,
		CompanyUUID: scope.CompanyUUID,
		WingUUID:    scope.wingPtr(),
		Items:       items,
	}
}
