package queue

import (
	"context"
	"time"

	"github.com/xamogh/medxz/internal/application/ports"
	"github.com/xamogh/medxz/internal/domain"
)

// NoopEnqueuer is used when Redis/Asynq is not configured. It reports
// ports.ErrQueueDisabled so callers do the work inline.
type NoopEnqueuer struct{}

func NewNoopEnqueuer() *NoopEnqueuer {
	return &NoopEnqueuer{}
}

func (q *NoopEnqueuer) EnqueueSessionTouch(ctx context.Context, id domain.SessionID, at time.Time) error {
	return ports.ErrQueueDisabled
}

var _ ports.TaskEnqueuer = (*NoopEnqueuer)(nil)
