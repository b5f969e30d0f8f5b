package journal

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	fieldItems       = "items"
	msgUnbalanced    = "Debits must equal Credits"
	msgNoLines       = "At least one line is required"
	msgAccount       = "Account required"
	msgNegative      = "Amount cannot be negative"
	msgBranch        = "Branch is required"
	msgDate          = "Date is required"
	msgDateFormat    = "Date must be YYYY-MM-DD"
	msgVoucherType   = "Select a voucher type"
	msgFieldRequired = "This field is required"
)

// ValidationError lists field-level problems found before submission. Keys
// are form field paths such as "wing_uuid" or "items.0.account"; "items"
// holds entry-level line errors.
type ValidationError struct {
	Fields map[string]string
	Totals Totals
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("journal: validation failed: %s", strings.Join(parts, "; "))
}

// FieldErrors returns the field map.
func (e *ValidationError) FieldErrors() map[string]string {
	return e.Fields
}

// Is matches ErrInvalid, and ErrUnbalanced when the balance check failed.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrInvalid:
		return true
	case ErrUnbalanced:
		return e.Fields[fieldItems] == msgUnbalanced
	}
	return false
}

// Validator checks entries before dispatch.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator reporting fields by their JSON names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns nil or a *ValidationError.
func (v *Validator) Validate(entry Entry) error {
	fields := make(map[string]string)

	if err := v.validate.Struct(entry); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("journal: validate: %w", err)
		}
		for _, fe := range verrs {
			fields[fe.Field()] = headerMessage(fe)
		}
	}

	for idx, line := range entry.Items {
		prefix := fieldItems + "." + strconv.Itoa(idx) + "."
		if strings.TrimSpace(line.Account) == "" {
			fields[prefix+"account"] = msgAccount
		}
		if line.Debit.IsNegative() {
			fields[prefix+"debit"] = msgNegative
		}
		if line.Credit.IsNegative() {
			fields[prefix+"credit"] = msgNegative
		}
	}

	totals := ComputeTotals(entry.Items)
	switch {
	case len(entry.Items) == 0:
		fields[fieldItems] = msgNoLines
	case !totals.Balanced():
		fields[fieldItems] = msgUnbalanced
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields, Totals: totals}
}

func headerMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "wing_uuid":
		return msgBranch
	case "voucher_type":
		return msgVoucherType
	case "date":
		if fe.Tag() == "required" {
			return msgDate
		}
		return msgDateFormat
	}
	return msgFieldRequired
}
