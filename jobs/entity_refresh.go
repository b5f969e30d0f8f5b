package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-desk/internal/entities"
	jobmetrics "github.com/odyssey-erp/odyssey-desk/internal/jobs"
)

// EntityRefresher reloads the entity directory.
type EntityRefresher interface {
	Refresh(ctx context.Context) (entities.Snapshot, error)
}

// EntityRefreshJob drops the cached entity directory and reloads it so the
// server picks up new companies and branches without a restart.
type EntityRefreshJob struct {
	Refresher EntityRefresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewEntityRefreshJob constructs the job handler.
func NewEntityRefreshJob(refresher EntityRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *EntityRefreshJob {
	return &EntityRefreshJob{Refresher: refresher, Logger: logger, Metrics: metrics}
}

// Handle executes the refresh.
func (j *EntityRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Refresher == nil {
		return errors.New("entity refresh: dependencies not configured")
	}
	var payload EntityRefreshPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskEntityRefresh)
	snap, err := j.Refresher.Refresh(ctx)
	if err != nil {
		j.log().Error("entity refresh", slog.String("reason", payload.Reason), slog.Any("error", err))
		return tracker.End(err)
	}

	counts := make(map[string]int)
	for _, e := range snap.Entities {
		counts[string(e.Kind)]++
	}
	j.Metrics.SetEntityCounts(counts)
	j.log().Info("entity directory refreshed",
		slog.String("reason", payload.Reason),
		slog.Int("entities", len(snap.Entities)),
		slog.String("root_company_id", snap.RootCompanyID),
	)
	return tracker.End(nil)
}

func (j *EntityRefreshJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
