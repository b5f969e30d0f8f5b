package journal

import "errors"

var (
	// ErrInvalid marks local validation failures.
	ErrInvalid = errors.New("journal: entry is invalid")
	// ErrUnbalanced indicates debits and credits differ by the tolerance or more.
	ErrUnbalanced = errors.New("journal: debits must equal credits")
	// ErrSubmitInFlight rejects a submit while another is being dispatched.
	ErrSubmitInFlight = errors.New("journal: submission already in progress")
	// ErrLineOutOfRange indicates an invalid line index.
	ErrLineOutOfRange = errors.New("journal: line index out of range")
	// ErrDraftNotFound indicates an unknown or expired draft.
	ErrDraftNotFound = errors.New("journal: draft not found")
	// ErrNotEditable rejects edits of system-generated journals.
	ErrNotEditable = errors.New("journal: only manual journals can be edited")
	// ErrStaleAccounts reports an account response superseded by a newer scope.
	ErrStaleAccounts = errors.New("journal: account response superseded")
)
