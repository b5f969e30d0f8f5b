package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
	"github.com/odyssey-erp/odyssey-desk/internal/entities"
	"github.com/odyssey-erp/odyssey-desk/internal/platform/money"
)

// Backend is the remote ledger API used by the service.
type Backend interface {
	Writer
	AccountLister
	GetJournal(ctx context.Context, id string) (backend.Journal, error)
	ListJournals(ctx context.Context, filter backend.JournalFilter) ([]backend.Journal, error)
}

// EntityProvider supplies the merged entity list.
type EntityProvider interface {
	Snapshot(ctx context.Context) (entities.Snapshot, error)
}

// ServiceConfig tunes the service.
type ServiceConfig struct {
	DraftTTL      time.Duration
	FetchTimeout  time.Duration
	SubmitTimeout time.Duration
}

const (
	// maxAccountAttempts bounds refetches when a listing keeps being superseded.
	maxAccountAttempts = 3
	// lockGrace keeps a submission claim alive a little past the write timeout.
	lockGrace = 5 * time.Second
)

// Service manages journal drafts between HTTP calls.
type Service struct {
	backend   Backend
	entities  EntityProvider
	store     *Store
	snapshots SnapshotStore
	idem      *IdempotencyStore
	restores  singleflight.Group
	validator *Validator
	metrics   *Metrics
	logger    *slog.Logger
	cfg       ServiceConfig
	now       func() time.Time
}

// NewService wires a Service. snapshots and metrics may be nil.
func NewService(b Backend, provider EntityProvider, snapshots SnapshotStore, metrics *Metrics, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 30 * time.Second
	}
	return &Service{
		backend:   b,
		entities:  provider,
		store:     NewStore(cfg.DraftTTL),
		snapshots: snapshots,
		validator: NewValidator(),
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithNow overrides the clock.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// OpenInput opens a draft for the page-level selection, optionally editing an
// existing journal.
type OpenInput struct {
	Selected  string `json:"selected"`
	JournalID string `json:"journal_id"`
}

// OpenDraft creates a new draft.
func (s *Service) OpenDraft(ctx context.Context, in OpenInput) (string, View, error) {
	snap, err := s.entities.Snapshot(ctx)
	if err != nil {
		return "", View{}, fmt.Errorf("journal: load entities: %w", err)
	}
	selected := in.Selected
	if selected == "" {
		selected = entities.SelectAll
	}
	resolved := snap.Resolve(selected)

	state := DraftState{
		ID:               NewDraftID(),
		ContextCompanyID: resolved.CreationCompanyID,
		InitialSelector:  firstNonEmpty(resolved.WingID, resolved.CreationCompanyID),
	}
	var record *backend.Journal
	if in.JournalID != "" {
		j, err := s.backend.GetJournal(ctx, in.JournalID)
		if err != nil {
			return "", View{}, err
		}
		if j.Source != "" && j.Source != "manual" {
			return "", View{}, ErrNotEditable
		}
		record = &j
		state.Editing = true
		state.ContextCompanyID = firstNonEmpty(j.CompanyUUID.String(), resolved.CreationCompanyID)
		state.Scopes = entities.SelectableScopes(snap.Entities, state.ContextCompanyID, &entities.EditTarget{
			CompanyID: j.CompanyUUID.String(),
			WingID:    j.WingUUID.String(),
		})
	} else {
		state.Scopes = entities.SelectableScopes(snap.Entities, state.ContextCompanyID, nil)
	}

	draft := s.buildDraft(state)
	if record != nil {
		draft.Composer.Hydrate(*record)
	}
	s.store.Put(draft)
	s.metrics.OpenDrafts(s.store.Len())
	s.persist(ctx, draft)
	s.refreshAccounts(draft)
	s.logger.Info("journal draft opened", slog.String("draft_id", draft.ID), slog.Bool("editing", draft.Editing))
	return draft.ID, draft.Composer.View(), nil
}

// View returns the draft view.
func (s *Service) View(ctx context.Context, id string) (View, error) {
	draft, err := s.draft(ctx, id)
	if err != nil {
		return View{}, err
	}
	return draft.Composer.View(), nil
}

// UpdateHeader edits header fields. A scope change triggers a new account
// listing; older listings still in flight are discarded when they land.
func (s *Service) UpdateHeader(ctx context.Context, id string, patch HeaderPatch) (View, error) {
	draft, err := s.draft(ctx, id)
	if err != nil {
		return View{}, err
	}
	if _, changed := draft.Composer.UpdateHeader(patch); changed {
		s.refreshAccounts(draft)
	}
	s.persist(ctx, draft)
	return draft.Composer.View(), nil
}

// AddLine appends a blank line.
func (s *Service) AddLine(ctx context.Context, id string) (View, error) {
	draft, err := s.draft(ctx, id)
	if err != nil {
		return View{}, err
	}
	draft.Composer.AddLine()
	s.persist(ctx, draft)
	return draft.Composer.View(), nil
}

// UpdateLine edits one line.
func (s *Service) UpdateLine(ctx context.Context, id string, index int, patch LinePatch) (View, error) {
	draft, err := s.draft(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := draft.Composer.UpdateLine(index, patch); err != nil {
		return View{}, err
	}
	s.persist(ctx, draft)
	return draft.Composer.View(), nil
}

// RemoveLine drops one line.
func (s *Service) RemoveLine(ctx context.Context, id string, index int) (View, error) {
	draft, err := s.draft(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := draft.Composer.RemoveLine(index); err != nil {
		return View{}, err
	}
	s.persist(ctx, draft)
	return draft.Composer.View(), nil
}

// Accounts returns the account listing for the draft's live scope, fetching it
// when nothing is applied yet or the applied set belongs to another scope.
func (s *Service) Accounts(ctx context.Context, id string) (AccountSet, error) {
	draft, err := s.draft(ctx, id)
	if err != nil {
		return AccountSet{}, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	var set AccountSet
	// Every attempt may be superseded by a concurrent scope change; the set
	// returned always matches the scope current at return.
	for attempt := 0; attempt < maxAccountAttempts; attempt++ {
		filter := draft.Composer.Scope().AccountFilter()
		if current, ok := draft.Accounts.Current(); ok && current.Scope == filter {
			return current, nil
		}
		set, err = draft.Accounts.Fetch(fetchCtx, filter)
		if !errors.Is(err, ErrStaleAccounts) {
			return set, err
		}
	}
	if set.Scope == draft.Composer.Scope().AccountFilter() {
		return set, nil
	}
	return AccountSet{}, ErrStaleAccounts
}

// Scopes returns the branch/unit selector options of the draft.
func (s *Service) Scopes(ctx context.Context, id string) ([]entities.Entity, error) {
	draft, err := s.draft(ctx, id)
	if err != nil {
		return nil, err
	}
	return draft.Composer.Scopes(), nil
}

// WithIdempotency enables Idempotency-Key handling for SubmitOnce.
func (s *Service) WithIdempotency(store *IdempotencyStore) {
	s.idem = store
}

// SubmitOnce is Submit guarded by a client supplied key. A replayed key
// returns ErrDuplicateSubmission without touching the draft. The key is
// released again when the submission does not succeed.
func (s *Service) SubmitOnce(ctx context.Context, id, key string) (backend.Journal, View, error) {
	if key == "" || s.idem == nil {
		return s.Submit(ctx, id)
	}
	draft, err := s.draft(ctx, id)
	if err != nil {
		return backend.Journal{}, View{}, err
	}
	if err := s.idem.CheckAndInsert(ctx, key, id); err != nil {
		if errors.Is(err, ErrDuplicateSubmission) {
			s.metrics.Submission("duplicate")
		}
		return backend.Journal{}, draft.Composer.View(), err
	}
	record, view, err := s.Submit(ctx, id)
	if err != nil {
		if delErr := s.idem.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Warn("release idempotency key", slog.String("draft_id", id), slog.Any("error", delErr))
		}
	}
	return record, view, err
}

// Submit validates and dispatches the draft. The write is detached from the
// request context so a client disconnect cannot abort it halfway.
func (s *Service) Submit(ctx context.Context, id string) (backend.Journal, View, error) {
	draft, err := s.draft(ctx, id)
	if err != nil {
		return backend.Journal{}, View{}, err
	}
	release, err := s.claim(ctx, draft)
	if err != nil {
		if errors.Is(err, ErrSubmitInFlight) {
			s.metrics.Submission("in_flight")
		}
		return backend.Journal{}, draft.Composer.View(), err
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SubmitTimeout)
	defer cancel()
	record, err := draft.Composer.Submit(writeCtx)
	switch {
	case err == nil:
		s.metrics.Submission("success")
		s.logger.Info("journal submitted", slog.String("draft_id", id), slog.String("journal_id", record.ID.String()))
	case errors.Is(err, ErrSubmitInFlight):
		s.metrics.Submission("in_flight")
	case errors.Is(err, ErrInvalid):
		s.metrics.Submission("invalid")
	default:
		s.metrics.Submission("failed")
		s.logger.Error("journal submit", slog.String("draft_id", id), slog.Any("error", err))
	}
	if errors.Is(err, ErrSubmitInFlight) {
		release()
		return record, draft.Composer.View(), err
	}
	// A posted entry whose reset was not saved keeps the claim until it
	// lapses, so no other process submits the stale snapshot meanwhile.
	if saveErr := s.persist(context.WithoutCancel(ctx), draft); saveErr == nil || err != nil {
		release()
	}
	return record, draft.Composer.View(), err
}

// Discard drops the draft.
func (s *Service) Discard(ctx context.Context, id string) error {
	if _, err := s.draft(ctx, id); err != nil {
		return err
	}
	s.store.Delete(id)
	s.metrics.OpenDrafts(s.store.Len())
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, id); err != nil {
			s.logger.Warn("delete draft snapshot", slog.String("draft_id", id), slog.Any("error", err))
		}
	}
	return nil
}

// ListInput filters the journal list.
type ListInput struct {
	Selected    string
	StartDate   string
	EndDate     string
	VoucherType string
}

// ListRow is one journal of the list with its display totals.
type ListRow struct {
	backend.Journal
	Badge  string     `json:"badge"`
	Totals TotalsView `json:"totals"`
}

// ListResult is the filtered journal list.
type ListResult struct {
	Context entities.Context `json:"context"`
	Rows    []ListRow        `json:"journals"`
	Totals  TotalsView       `json:"totals"`
}

// ListJournals lists journals for the page-level selection. A branch
// selection filters by wing, anything else by company.
func (s *Service) ListJournals(ctx context.Context, in ListInput) (ListResult, error) {
	snap, err := s.entities.Snapshot(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("journal: load entities: %w", err)
	}
	selected := in.Selected
	if selected == "" {
		selected = entities.SelectAll
	}
	resolved := snap.Resolve(selected)
	filter := backend.JournalFilter{
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		VoucherType: in.VoucherType,
	}
	if resolved.WingID != "" {
		filter.WingUUID = resolved.WingID
	} else {
		filter.CompanyUUID = resolved.CompanyID
	}
	records, err := s.backend.ListJournals(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{Context: resolved, Rows: make([]ListRow, 0, len(records))}
	page := make([]Line, 0, len(records))
	for _, record := range records {
		totals := rowTotals(record)
		page = append(page, Line{Debit: money.New(totals.Debit), Credit: money.New(totals.Credit)})
		result.Rows = append(result.Rows, ListRow{
			Journal: record,
			Badge:   VoucherType(record.VoucherType).Short(),
			Totals:  totals.View(),
		})
	}
	result.Totals = ComputeTotals(page).View()
	return result, nil
}

// rowTotals sums the items, falling back to the server totals when the
// listing did not expand them.
func rowTotals(record backend.Journal) Totals {
	if len(record.Items) == 0 {
		return ComputeTotals([]Line{{Debit: record.TotalDebit, Credit: record.TotalCredit}})
	}
	lines := make([]Line, 0, len(record.Items))
	for _, item := range record.Items {
		lines = append(lines, Line{Debit: item.Debit, Credit: item.Credit})
	}
	return ComputeTotals(lines)
}

func (s *Service) buildDraft(state DraftState) *Draft {
	draft := &Draft{ID: state.ID, Editing: state.Editing}
	draft.Composer = NewComposer(s.backend, ComposerConfig{
		ContextCompanyID: state.ContextCompanyID,
		InitialSelector:  state.InitialSelector,
		Scopes:           state.Scopes,
		Validator:        s.validator,
		Now:              s.now,
		OnSuccess: func(backend.Journal) {
			s.refreshAccounts(draft)
		},
	})
	draft.Accounts = NewAccountQuery(s.backend, s.metrics.StaleDiscard)
	return draft
}

// draft returns the live draft, restoring it from snapshots on a miss.
// Concurrent misses for one id share a single restore so every caller ends
// up on the same composer.
func (s *Service) draft(ctx context.Context, id string) (*Draft, error) {
	draft, err := s.store.Get(id)
	if err == nil || s.snapshots == nil {
		return draft, err
	}
	v, err, _ := s.restores.Do(id, func() (any, error) {
		if draft, err := s.store.Get(id); err == nil {
			return draft, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.FetchTimeout)
		defer cancel()
		state, err := s.snapshots.Load(loadCtx, id)
		if err != nil {
			return nil, err
		}
		restored := s.buildDraft(state)
		restored.Composer.Restore(state.Entry)
		stored := s.store.PutIfAbsent(restored)
		if stored == restored {
			s.metrics.OpenDrafts(s.store.Len())
			s.refreshAccounts(stored)
		}
		return stored, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Draft), nil
}

// claim takes the cross-process submission lock when the snapshot store
// offers one, then reloads the draft so a submission finished elsewhere is
// not sent twice. The returned release is never nil.
func (s *Service) claim(ctx context.Context, draft *Draft) (func(), error) {
	locker, ok := s.snapshots.(SubmitLocker)
	if !ok {
		return func() {}, nil
	}
	unlock, err := locker.LockSubmit(ctx, draft.ID, s.cfg.SubmitTimeout+lockGrace)
	if err != nil {
		return nil, err
	}
	release := func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release submission lock", slog.String("draft_id", draft.ID), slog.Any("error", err))
		}
	}
	state, err := s.snapshots.Load(ctx, draft.ID)
	if err != nil {
		release()
		if errors.Is(err, ErrDraftNotFound) {
			s.store.Delete(draft.ID)
		}
		return nil, err
	}
	draft.Composer.Restore(state.Entry)
	return release, nil
}

func (s *Service) persist(ctx context.Context, draft *Draft) error {
	if s.snapshots == nil {
		return nil
	}
	err := s.snapshots.Save(ctx, draft.State())
	if err != nil {
		s.logger.Warn("save draft snapshot", slog.String("draft_id", draft.ID), slog.Any("error", err))
	}
	return err
}

// refreshAccounts starts a background account listing for the live scope.
func (s *Service) refreshAccounts(draft *Draft) {
	filter := draft.Composer.Scope().AccountFilter()
	if filter.CompanyUUID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
		defer cancel()
		if _, err := draft.Accounts.Fetch(ctx, filter); err != nil && !errors.Is(err, ErrStaleAccounts) {
			s.logger.Warn("list accounts", slog.String("draft_id", draft.ID), slog.Any("error", err))
		}
	}()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
