package journal

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Tolerance is the largest debit/credit difference still treated as balanced
// (exclusive).
var Tolerance = decimal.New(1, -2)

// Totals are the column sums of an entry.
type Totals struct {
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	Unbalanced decimal.Decimal
}

// ComputeTotals sums debits and credits, ignoring negative amounts.
func ComputeTotals(items []Line) Totals {
	debit, credit := decimal.Zero, decimal.Zero
	for _, item := range items {
		debit = debit.Add(item.Debit.NonNegative())
		credit = credit.Add(item.Credit.NonNegative())
	}
	return Totals{
		Debit:      debit,
		Credit:     credit,
		Unbalanced: debit.Sub(credit).Abs(),
	}
}

// Balanced reports whether the entry may be submitted.
func (t Totals) Balanced() bool {
	return t.Unbalanced.LessThan(Tolerance)
}

// TotalsView is the display form of Totals.
type TotalsView struct {
	Debit      string `json:"total_debit"`
	Credit     string `json:"total_credit"`
	Unbalanced string `json:"unbalanced"`
	Balanced   bool   `json:"balanced"`
	Warning    string `json:"warning,omitempty"`
}

// View formats totals with two decimals and thousands separators.
func (t Totals) View() TotalsView {
	p := message.NewPrinter(language.English)
	view := TotalsView{
		Debit:      formatAmount(p, t.Debit),
		Credit:     formatAmount(p, t.Credit),
		Unbalanced: formatAmount(p, t.Unbalanced),
		Balanced:   t.Balanced(),
	}
	if t.Unbalanced.Round(2).IsPositive() {
		view.Warning = "Unbalanced: " + view.Unbalanced
	}
	return view
}

func formatAmount(p *message.Printer, d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return p.Sprint(number.Decimal(f, number.Scale(2)))
}
