package journal

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
)

// AccountLister lists ledger accounts for a scope.
type AccountLister interface {
	ListAccounts(ctx context.Context, filter backend.AccountFilter) ([]backend.Account, error)
}

// AccountSet is an applied account listing.
type AccountSet struct {
	Scope    backend.AccountFilter `json:"scope"`
	Accounts []backend.Account     `json:"accounts"`
	Epoch    uint64                `json:"epoch"`
}

// AccountQuery is the account listing derived from a draft's scope. Every
// fetch takes a new epoch; a response is applied only if no later fetch was
// issued meanwhile, so a slow response for an old scope never overwrites a
// newer one.
type AccountQuery struct {
	lister  AccountLister
	onStale func()

	issued atomic.Uint64

	mu      sync.Mutex
	current AccountSet
	loaded  bool
}

// NewAccountQuery constructs an AccountQuery. onStale, if set, runs for each
// discarded response.
func NewAccountQuery(lister AccountLister, onStale func()) *AccountQuery {
	return &AccountQuery{lister: lister, onStale: onStale}
}

// Fetch lists accounts for filter. It returns ErrStaleAccounts, together with
// the currently applied set, when a newer fetch was issued first.
func (q *AccountQuery) Fetch(ctx context.Context, filter backend.AccountFilter) (AccountSet, error) {
	epoch := q.issued.Add(1)
	accounts, err := q.lister.ListAccounts(ctx, filter)

	q.mu.Lock()
	defer q.mu.Unlock()
	if epoch != q.issued.Load() {
		if q.onStale != nil {
			q.onStale()
		}
		return q.current, ErrStaleAccounts
	}
	if err != nil {
		return q.current, err
	}
	q.current = AccountSet{Scope: filter, Accounts: accounts, Epoch: epoch}
	q.loaded = true
	return q.current, nil
}

// Current returns the applied set and whether one was applied yet.
func (q *AccountQuery) Current() (AccountSet, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current, q.loaded
}
