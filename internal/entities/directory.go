package entities

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
)

// Source provides the raw organizational records.
type Source interface {
	ListCompanies(ctx context.Context) ([]backend.Company, error)
	ListWings(ctx context.Context) ([]backend.Wing, error)
	CompanyTree(ctx context.Context) (*backend.CompanyTree, error)
}

// Snapshot is the merged entity list plus the consolidated root id.
type Snapshot struct {
	Entities      []Entity  `json:"entities"`
	RootCompanyID string    `json:"root_company_id"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// Resolve derives the accounting context for a selection.
func (s Snapshot) Resolve(selectedID string) Context {
	return ResolveContext(s.Entities, selectedID, s.RootCompanyID)
}

// Directory serves entity snapshots from the cache, loading them from Source
// on a miss. Concurrent misses share one load.
type Directory struct {
	source Source
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time

	loadTimeout time.Duration
}

// defaultLoadTimeout bounds one shared directory load.
const defaultLoadTimeout = 30 * time.Second

// NewDirectory wires a Directory.
func NewDirectory(source Source, cache *Cache, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{source: source, cache: cache, logger: logger, now: time.Now, loadTimeout: defaultLoadTimeout}
}

// Snapshot returns the current entity snapshot.
func (d *Directory) Snapshot(ctx context.Context) (Snapshot, error) {
	key, err := d.cache.Key(ctx, "snapshot")
	if err != nil {
		d.logger.Warn("entity cache version", slog.Any("error", err))
		key = "entities:snapshot:0"
	}
	resultCh := d.group.DoChan(key, func() (any, error) {
		// Shared by every waiter, so it must not die with the first caller.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.loadTimeout)
		defer cancel()
		var snap Snapshot
		err := d.cache.FetchJSON(loadCtx, key, &snap, func(ctx context.Context) (any, error) {
			return d.load(ctx)
		})
		return snap, err
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-resultCh:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

// Refresh drops cached snapshots and reloads.
func (d *Directory) Refresh(ctx context.Context) (Snapshot, error) {
	if err := d.cache.Bump(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("entities: bump cache: %w", err)
	}
	return d.Snapshot(ctx)
}

func (d *Directory) load(ctx context.Context) (Snapshot, error) {
	var (
		companies []backend.Company
		wings     []backend.Wing
		root      *backend.CompanyTree
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		companies, err = d.source.ListCompanies(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		wings, err = d.source.ListWings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		root, err = d.source.CompanyTree(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		d.logger.Error("load entities", slog.Any("error", err))
		return Snapshot{}, fmt.Errorf("entities: load: %w", err)
	}
	snap := Snapshot{
		Entities:      BuildEntityList(companies, wings, root),
		RootCompanyID: RootCompanyID(root),
		LoadedAt:      d.now().UTC(),
	}
	d.logger.Info("entities loaded", slog.Int("count", len(snap.Entities)), slog.String("root_company_id", snap.RootCompanyID))
	return snap, nil
}
