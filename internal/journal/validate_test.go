package journal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEntry() Entry {
	return Entry{
		Date:        "2026-10-19",
		VoucherType: VoucherJournal,
		WingValue:   "b1",
		Items:       []Line{line("cash", "100", "0"), line("sales", "0", "100")},
	}
}

func TestValidatorAcceptsBalancedEntry(t *testing.T) {
	require.NoError(t, NewValidator().Validate(validEntry()))
}

func TestValidatorBlocksUnbalancedEntry(t *testing.T) {
	entry := validEntry()
	entry.Items[1] = line("sales", "0", "99.99")

	err := NewValidator().Validate(entry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnbalanced))
	assert.True(t, errors.Is(err, ErrInvalid))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, msgUnbalanced, verr.Fields["items"])
	assert.Equal(t, "0.01", verr.Totals.Unbalanced.String())
}

func TestValidatorFieldErrors(t *testing.T) {
	entry := validEntry()
	entry.WingValue = ""
	entry.Date = "19/10/2026"
	entry.VoucherType = "transfer"
	entry.Items[0].Account = " "

	err := NewValidator().Validate(entry)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.False(t, errors.Is(err, ErrUnbalanced))
	assert.Equal(t, map[string]string{
		"wing_uuid":       msgBranch,
		"date":            msgDateFormat,
		"voucher_type":    msgVoucherType,
		"items.0.account": msgAccount,
	}, verr.Fields)
}

func TestValidatorRequiresLines(t *testing.T) {
	entry := validEntry()
	entry.Items = nil

	var verr *ValidationError
	require.ErrorAs(t, NewValidator().Validate(entry), &verr)
	assert.Equal(t, msgNoLines, verr.Fields["items"])
}

func TestValidatorRejectsNegativeAmounts(t *testing.T) {
	entry := validEntry()
	entry.Items = append(entry.Items, line("fees", "-5", "0"))

	var verr *ValidationError
	require.ErrorAs(t, NewValidator().Validate(entry), &verr)
	assert.Equal(t, msgNegative, verr.Fields["items.2.debit"])
	_, unbalanced := verr.Fields["items"]
	assert.False(t, unbalanced)
}
