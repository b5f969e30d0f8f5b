package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEntityRefresh reloads the entity directory from the accounting API.
	TaskEntityRefresh = "entities:refresh"
)

// EntityRefreshPayload records why a refresh was requested.
type EntityRefreshPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewEntityRefreshTask constructs an Asynq task. Duplicate refreshes requested
// within a minute collapse into one.
func NewEntityRefreshTask(reason string, now time.Time) (*asynq.Task, error) {
	if reason == "" {
		reason = "scheduled"
	}
	body, err := json.Marshal(EntityRefreshPayload{Reason: reason, RequestedAt: now.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEntityRefresh, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Unique(time.Minute),
	), nil
}
