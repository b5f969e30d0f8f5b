package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreExpiresIdleDrafts(t *testing.T) {
	now := fixedNow
	store := NewStore(time.Minute)
	store.now = func() time.Time { return now }

	draft := &Draft{ID: NewDraftID()}
	store.Put(draft)

	now = now.Add(50 * time.Second)
	got, err := store.Get(draft.ID)
	require.NoError(t, err)
	assert.Same(t, draft, got)

	now = now.Add(50 * time.Second)
	_, err = store.Get(draft.ID)
	require.NoError(t, err, "a read extends the lifetime")

	now = now.Add(2 * time.Minute)
	_, err = store.Get(draft.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Zero(t, store.Len())
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(0)
	store.Put(&Draft{ID: "d1"})
	store.Put(&Draft{ID: "d2"})
	store.Delete("d1")
	store.Delete("missing")

	_, err := store.Get("d1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Equal(t, 1, store.Len())
}

func TestRedisSnapshots(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	snapshots := NewRedisSnapshots(client, 10*time.Minute)
	ctx := context.Background()

	state := DraftState{
		ID:               "d1",
		ContextCompanyID: "u1",
		InitialSelector:  "b1",
		Scopes:           testScopes(),
		Entry:            validEntry(),
	}
	require.NoError(t, snapshots.Save(ctx, state))
	assert.Equal(t, 10*time.Minute, mr.TTL(draftKeyPrefix+"d1"))

	loaded, err := snapshots.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.ContextCompanyID)
	assert.Equal(t, state.Scopes, loaded.Scopes)
	assert.Equal(t, "b1", loaded.Entry.WingValue)
	require.Len(t, loaded.Entry.Items, 2)
	assert.Equal(t, "100.00", loaded.Entry.Items[0].Debit.Fixed())

	mr.FastForward(11 * time.Minute)
	_, err = snapshots.Load(ctx, "d1")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	require.NoError(t, snapshots.Save(ctx, state))
	require.NoError(t, snapshots.Delete(ctx, "d1"))
	_, err = snapshots.Load(ctx, "d1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestStorePutIfAbsentKeepsLiveDraft(t *testing.T) {
	store := NewStore(time.Hour)
	first := &Draft{ID: "d1"}
	second := &Draft{ID: "d1"}

	assert.Same(t, first, store.PutIfAbsent(first))
	assert.Same(t, first, store.PutIfAbsent(second))

	got, err := store.Get("d1")
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestRedisSnapshotsLockSubmit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	snapshots := NewRedisSnapshots(client, time.Hour)
	ctx := context.Background()

	release, err := snapshots.LockSubmit(ctx, "d1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(inflightKeyPrefix+"d1"))

	_, err = snapshots.LockSubmit(ctx, "d1", time.Minute)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(inflightKeyPrefix+"d1"))

	again, err := snapshots.LockSubmit(ctx, "d1", time.Minute)
	require.NoError(t, err)
	// A stale release must not drop a claim taken after it lapsed.
	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists(inflightKeyPrefix+"d1"))
	require.NoError(t, again(ctx))
}

type refuseExpire struct{}

func (refuseExpire) DialHook(next redis.DialHook) redis.DialHook { return next }

func (refuseExpire) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "expire" {
			return errors.New("expire refused")
		}
		return next(ctx, cmd)
	}
}

func (refuseExpire) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisSnapshotsReportsTTLRefreshFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	snapshots := NewRedisSnapshots(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, snapshots.Save(ctx, DraftState{ID: "d1", Entry: validEntry()}))
	client.AddHook(refuseExpire{})

	_, err := snapshots.Load(ctx, "d1")
	assert.ErrorContains(t, err, "extend draft")
}
