package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-desk/internal/entities"
)

// Draft is an open journal form together with its account listing.
type Draft struct {
	ID       string
	Composer *Composer
	Accounts *AccountQuery
	// Editing is set when the draft was opened from a persisted journal.
	Editing bool
}

// NewDraftID returns a fresh draft identifier.
func NewDraftID() string {
	return uuid.NewString()
}

// State captures what is needed to rebuild the draft elsewhere.
func (d *Draft) State() DraftState {
	return DraftState{
		ID:               d.ID,
		Editing:          d.Editing,
		ContextCompanyID: d.Composer.ContextCompanyID(),
		InitialSelector:  d.Composer.InitialSelector(),
		Scopes:           d.Composer.Scopes(),
		Entry:            d.Composer.Entry(),
	}
}

// DraftState is the serialisable form of a Draft.
type DraftState struct {
	ID               string            `json:"id"`
	Editing          bool              `json:"editing"`
	ContextCompanyID string            `json:"context_company_id"`
	InitialSelector  string            `json:"initial_selector"`
	Scopes           []entities.Entity `json:"scopes"`
	Entry            Entry             `json:"entry"`
}

// SnapshotStore persists draft state between processes.
type SnapshotStore interface {
	Save(ctx context.Context, state DraftState) error
	Load(ctx context.Context, id string) (DraftState, error)
	Delete(ctx context.Context, id string) error
}

// SubmitLocker is implemented by snapshot stores shared between processes.
// LockSubmit claims the submission of draft id, returning ErrSubmitInFlight
// while another holder has it. The claim lapses after ttl if never released.
type SubmitLocker interface {
	LockSubmit(ctx context.Context, id string, ttl time.Duration) (release func(context.Context) error, err error)
}

// Store keeps open drafts in memory and expires them after a period of
// inactivity.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	drafts map[string]*storedDraft
}

type storedDraft struct {
	draft   *Draft
	expires time.Time
}

// NewStore constructs a Store. A non-positive ttl keeps drafts until deleted.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, now: time.Now, drafts: make(map[string]*storedDraft)}
}

// Put stores d, replacing any draft with the same id.
func (s *Store) Put(d *Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.drafts[d.ID] = &storedDraft{draft: d, expires: s.expiry()}
}

// PutIfAbsent stores d unless a live draft with the same id exists, and
// returns whichever draft is stored afterwards.
func (s *Store) PutIfAbsent(d *Draft) *Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.drafts[d.ID]; ok && !s.expired(stored) {
		stored.expires = s.expiry()
		return stored.draft
	}
	s.drafts[d.ID] = &storedDraft{draft: d, expires: s.expiry()}
	return d
}

// Get returns the draft and extends its lifetime.
func (s *Store) Get(id string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if s.expired(stored) {
		delete(s.drafts, id)
		return nil, ErrDraftNotFound
	}
	stored.expires = s.expiry()
	return stored.draft, nil
}

// Delete drops the draft. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
}

// Len returns the number of live drafts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.drafts)
}

func (s *Store) expiry() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(s.ttl)
}

func (s *Store) expired(stored *storedDraft) bool {
	return !stored.expires.IsZero() && !s.now().Before(stored.expires)
}

func (s *Store) sweepLocked() {
	for id, stored := range s.drafts {
		if s.expired(stored) {
			delete(s.drafts, id)
		}
	}
}

const (
	draftKeyPrefix    = "journal:draft:"
	inflightKeyPrefix = "journal:inflight:"
)

// releaseLock deletes KEYS[1] only while it still holds the caller's token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSnapshots stores draft state in Redis with a sliding TTL.
type RedisSnapshots struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshots constructs a Redis backed SnapshotStore.
func NewRedisSnapshots(client *redis.Client, ttl time.Duration) *RedisSnapshots {
	return &RedisSnapshots{client: client, ttl: ttl}
}

// Save writes state.
func (r *RedisSnapshots) Save(ctx context.Context, state DraftState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("journal: encode draft: %w", err)
	}
	if err := r.client.Set(ctx, draftKeyPrefix+state.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("journal: save draft: %w", err)
	}
	return nil
}

// Load reads state, returning ErrDraftNotFound when absent or expired.
func (r *RedisSnapshots) Load(ctx context.Context, id string) (DraftState, error) {
	raw, err := r.client.Get(ctx, draftKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return DraftState{}, ErrDraftNotFound
	}
	if err != nil {
		return DraftState{}, fmt.Errorf("journal: load draft: %w", err)
	}
	var state DraftState
	if err := json.Unmarshal(raw, &state); err != nil {
		return DraftState{}, fmt.Errorf("journal: decode draft: %w", err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, draftKeyPrefix+id, r.ttl).Err(); err != nil {
			return DraftState{}, fmt.Errorf("journal: extend draft: %w", err)
		}
	}
	return state, nil
}

// Delete removes state.
func (r *RedisSnapshots) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, draftKeyPrefix+id).Err()
}

// LockSubmit implements SubmitLocker with SET NX and a random token.
func (r *RedisSnapshots) LockSubmit(ctx context.Context, id string, ttl time.Duration) (func(context.Context) error, error) {
	key := inflightKeyPrefix + id
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("journal: lock submission: %w", err)
	}
	if !ok {
		return nil, ErrSubmitInFlight
	}
	return func(ctx context.Context) error {
		return releaseLock.Run(ctx, r.client, []string{key}, token).Err()
	}, nil
}
