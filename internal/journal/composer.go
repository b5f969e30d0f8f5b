package journal

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
	"github.com/odyssey-erp/odyssey-desk/internal/entities"
	"github.com/odyssey-erp/odyssey-desk/internal/platform/money"
)

// State is the composer life-cycle state.
type State int

const (
	StateEditing State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Writer persists journals.
type Writer interface {
	CreateJournal(ctx context.Context, payload backend.JournalPayload) (backend.Journal, error)
	UpdateJournal(ctx context.Context, id string, payload backend.JournalPayload) (backend.Journal, error)
}

// ComposerConfig seeds a Composer.
type ComposerConfig struct {
	// ContextCompanyID is the fallback company for unmatched selector values.
	ContextCompanyID string
	// InitialSelector is the selector value a reset form returns to.
	InitialSelector string
	// Scopes are the selector options.
	Scopes    []entities.Entity
	Validator *Validator
	// OnSuccess runs after each successful write, outside the composer lock.
	OnSuccess func(backend.Journal)
	Now       func() time.Time
}

// HeaderPatch changes header fields; nil fields are left alone.
type HeaderPatch struct {
	Date        *string      `json:"date"`
	Reference   *string      `json:"reference"`
	Description *string      `json:"description"`
	VoucherType *VoucherType `json:"voucher_type"`
	WingValue   *string      `json:"wing_uuid"`
}

// LinePatch changes one line; nil fields are left alone.
type LinePatch struct {
	Account     *string       `json:"account"`
	Debit       *money.Amount `json:"debit"`
	Credit      *money.Amount `json:"credit"`
	Description *string       `json:"description"`
}

// View is a consistent snapshot of a composer.
type View struct {
	Entry       Entry           `json:"entry"`
	Totals      TotalsView      `json:"totals"`
	State       string          `json:"state"`
	LastOutcome string          `json:"last_outcome,omitempty"`
	CanSubmit   bool            `json:"can_submit"`
	Feedback    Feedback        `json:"feedback"`
	Scope       SubmissionScope `json:"scope"`
}

// Composer owns one journal form. It is safe for concurrent use; a submit
// holds the lock only around validation and state changes, so edits and reads
// proceed while the write is in flight and a second submit sees Submitting.
type Composer struct {
	writer    Writer
	validator *Validator
	onSuccess func(backend.Journal)
	now       func() time.Time

	mu               sync.Mutex
	entry            Entry
	state            State
	lastOutcome      State
	feedback         Feedback
	contextCompanyID string
	initialSelector  string
	scopes           []entities.Entity
}

// NewComposer returns a composer holding a blank entry.
func NewComposer(writer Writer, cfg ComposerConfig) *Composer {
	c := &Composer{
		writer:           writer,
		validator:        cfg.Validator,
		onSuccess:        cfg.OnSuccess,
		now:              cfg.Now,
		contextCompanyID: cfg.ContextCompanyID,
		initialSelector:  cfg.InitialSelector,
		scopes:           append([]entities.Entity(nil), cfg.Scopes...),
	}
	if c.validator == nil {
		c.validator = NewValidator()
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.entry = NewEntry(c.now(), c.initialSelector)
	return c
}

// Hydrate loads a persisted journal for editing.
func (c *Composer) Hydrate(record backend.Journal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = EntryFromJournal(record)
	if company := record.CompanyUUID.String(); company != "" {
		c.contextCompanyID = company
	}
	c.feedback = Feedback{}
}

// Restore replaces the entry wholesale, used when reloading a saved draft.
func (c *Composer) Restore(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = entry.clone()
	if c.entry.Items == nil {
		c.entry.Items = []Line{}
	}
	for i, line := range c.entry.Items {
		line.Debit = line.Debit.Rounded()
		line.Credit = line.Credit.Rounded()
		c.entry.Items[i] = line
	}
}

// Entry returns a copy of the current entry.
func (c *Composer) Entry() Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry.clone()
}

// ContextCompanyID returns the fallback company.
func (c *Composer) ContextCompanyID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contextCompanyID
}

// InitialSelector returns the selector value a reset returns to.
func (c *Composer) InitialSelector() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialSelector
}

// Scopes returns the selector options.
func (c *Composer) Scopes() []entities.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entities.Entity(nil), c.scopes...)
}

// Scope is the posting scope for the live selector value.
func (c *Composer) Scope() SubmissionScope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scopeLocked()
}

func (c *Composer) scopeLocked() SubmissionScope {
	return ResolveSubmissionScope(c.entry.WingValue, c.scopes, c.contextCompanyID)
}

// AddLine appends a blank line and returns its index.
func (c *Composer) AddLine() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry.Items = append(c.entry.Items, Line{})
	delete(c.feedback.Fields, fieldItems)
	return len(c.entry.Items) - 1
}

// RemoveLine drops the line at index. Removing the last line is allowed; an
// empty entry is rejected at submit time.
func (c *Composer) RemoveLine(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.entry.Items) {
		return ErrLineOutOfRange
	}
	c.entry.Items = append(c.entry.Items[:index], c.entry.Items[index+1:]...)
	c.clearLineFeedback()
	return nil
}

// UpdateLine applies patch to the line at index.
func (c *Composer) UpdateLine(index int, patch LinePatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.entry.Items) {
		return ErrLineOutOfRange
	}
	line := c.entry.Items[index]
	prefix := fieldItems + "." + strconv.Itoa(index) + "."
	if patch.Account != nil {
		line.Account = strings.TrimSpace(*patch.Account)
		delete(c.feedback.Fields, prefix+"account")
	}
	if patch.Debit != nil {
		line.Debit = patch.Debit.Rounded()
		delete(c.feedback.Fields, prefix+"debit")
		delete(c.feedback.Fields, fieldItems)
	}
	if patch.Credit != nil {
		line.Credit = patch.Credit.Rounded()
		delete(c.feedback.Fields, prefix+"credit")
		delete(c.feedback.Fields, fieldItems)
	}
	if patch.Description != nil {
		line.Description = *patch.Description
	}
	c.entry.Items[index] = line
	return nil
}

// UpdateHeader applies patch. It reports whether the posting scope changed,
// in which case the account listing must be refreshed.
func (c *Composer) UpdateHeader(patch HeaderPatch) (SubmissionScope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.scopeLocked()
	if patch.Date != nil {
		c.entry.Date = strings.TrimSpace(*patch.Date)
		delete(c.feedback.Fields, "date")
	}
	if patch.Reference != nil {
		c.entry.Reference = *patch.Reference
		delete(c.feedback.Fields, "reference")
	}
	if patch.Description != nil {
		c.entry.Description = *patch.Description
		delete(c.feedback.Fields, "description")
	}
	if patch.VoucherType != nil {
		c.entry.VoucherType = *patch.VoucherType
		delete(c.feedback.Fields, "voucher_type")
	}
	if patch.WingValue != nil {
		c.entry.WingValue = strings.TrimSpace(*patch.WingValue)
		delete(c.feedback.Fields, "wing_uuid")
	}
	after := c.scopeLocked()
	return after, after != before
}

// Totals recomputes the column sums.
func (c *Composer) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeTotals(c.entry.Items)
}

// View snapshots the composer.
func (c *Composer) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	totals := ComputeTotals(c.entry.Items)
	view := View{
		Entry:     c.entry.clone(),
		Totals:    totals.View(),
		State:     c.state.String(),
		CanSubmit: totals.Balanced() && c.state != StateSubmitting,
		Feedback:  Feedback{Fields: copyFields(c.feedback.Fields), Notices: append([]string(nil), c.feedback.Notices...)},
		Scope:     c.scopeLocked(),
	}
	if c.lastOutcome == StateSucceeded || c.lastOutcome == StateFailed {
		view.LastOutcome = c.lastOutcome.String()
	}
	return view
}

// State returns the current life-cycle state.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit validates the entry and, when it passes, performs exactly one write:
// an update when the entry has an id, a create otherwise. A submit while
// another is in flight returns ErrSubmitInFlight without touching the
// network. On success the form resets to a fresh entry; on failure the input
// is kept and the error is mapped into Feedback.
func (c *Composer) Submit(ctx context.Context) (backend.Journal, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return backend.Journal{}, ErrSubmitInFlight
	}
	c.state = StateValidating
	entry := c.entry.clone()
	if err := c.validator.Validate(entry); err != nil {
		c.feedback = FeedbackFor(err, entry.hasField)
		c.state = StateEditing
		c.mu.Unlock()
		return backend.Journal{}, err
	}
	payload := entry.payload(c.scopeLocked())
	c.state = StateSubmitting
	c.feedback = Feedback{}
	c.mu.Unlock()

	var (
		record backend.Journal
		err    error
	)
	if entry.ID != "" {
		record, err = c.writer.UpdateJournal(ctx, entry.ID, payload)
	} else {
		record, err = c.writer.CreateJournal(ctx, payload)
	}

	c.mu.Lock()
	if err != nil {
		c.lastOutcome = StateFailed
		c.feedback = FeedbackFor(err, c.entry.hasField)
		c.state = StateEditing
		c.mu.Unlock()
		return backend.Journal{}, err
	}
	c.lastOutcome = StateSucceeded
	c.entry = NewEntry(c.now(), c.initialSelector)
	c.state = StateEditing
	onSuccess := c.onSuccess
	c.mu.Unlock()

	if onSuccess != nil {
		onSuccess(record)
	}
	return record, nil
}

func (c *Composer) clearLineFeedback() {
	for key := range c.feedback.Fields {
		if strings.HasPrefix(key, fieldItems) {
			delete(c.feedback.Fields, key)
		}
	}
}
