package entities

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
)

type stubSource struct {
	calls     atomic.Int32
	companies []backend.Company
	wings     []backend.Wing
	root      *backend.CompanyTree
	err       error
	delay     time.Duration
}

func (s *stubSource) ListCompanies(ctx context.Context) ([]backend.Company, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.companies, s.err
}

func (s *stubSource) ListWings(ctx context.Context) ([]backend.Wing, error) {
	return s.wings, nil
}

func (s *stubSource) CompanyTree(ctx context.Context) (*backend.CompanyTree, error) {
	return s.root, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDirectory(t *testing.T, src Source) *Directory {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDirectory(src, NewCache(client, time.Minute), quietLogger())
}

func TestDirectoryCachesSnapshot(t *testing.T) {
	src := &stubSource{
		companies: []backend.Company{{ID: "u1", Name: "Retail"}},
		wings:     []backend.Wing{{ID: "b1", Company: "u1"}},
		root:      &backend.CompanyTree{ID: "r1", AuthCompanyUUID: "t1"},
	}
	dir := newTestDirectory(t, src)
	ctx := context.Background()

	snap, err := dir.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", snap.RootCompanyID)
	assert.Len(t, snap.Entities, 3)

	_, err = dir.Snapshot(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load())

	src.companies = append(src.companies, backend.Company{ID: "u2"})
	snap, err = dir.Refresh(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
	assert.Len(t, snap.Entities, 4)

	resolved := snap.Resolve("b1")
	assert.Equal(t, "t1", resolved.CompanyID)
	assert.Equal(t, "b1", resolved.WingID)
}

func TestDirectorySharesConcurrentLoads(t *testing.T) {
	src := &stubSource{
		companies: []backend.Company{{ID: "u1"}},
		root:      &backend.CompanyTree{ID: "u1"},
		delay:     50 * time.Millisecond,
	}
	dir := NewDirectory(src, nil, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := dir.Snapshot(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, src.calls.Load(), int32(8))
}

func TestDirectoryPropagatesSourceErrors(t *testing.T) {
	src := &stubSource{err: errors.New("boom")}
	dir := NewDirectory(src, nil, quietLogger())
	_, err := dir.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

type gatedSource struct {
	stubSource
	entered chan struct{}
	release chan struct{}
}

func (s *gatedSource) ListCompanies(ctx context.Context) ([]backend.Company, error) {
	s.entered <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.stubSource.ListCompanies(ctx)
}

func TestDirectoryLoadSurvivesFirstCallerCancel(t *testing.T) {
	src := &gatedSource{
		stubSource: stubSource{
			companies: []backend.Company{{ID: "u1", Name: "Retail"}},
			root:      &backend.CompanyTree{ID: "u1"},
		},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	dir := NewDirectory(src, nil, quietLogger())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := dir.Snapshot(firstCtx)
		firstErr <- err
	}()
	<-src.entered

	waiter := make(chan error, 1)
	go func() {
		snap, err := dir.Snapshot(context.Background())
		if err == nil && len(snap.Entities) == 0 {
			err = errors.New("empty snapshot")
		}
		waiter <- err
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	close(src.release)
	assert.NoError(t, <-waiter)
}
