package ports

import (
	"context"
	"errors"
	"time"

	"github.com/xamogh/medxz/internal/domain"
)

// ErrQueueDisabled signals that no task queue is configured and the caller
// should do the work inline instead.
var ErrQueueDisabled = errors.New("task queue disabled")

// TaskEnqueuer hands off best-effort background work (session upkeep).
type TaskEnqueuer interface {
	EnqueueSessionTouch(ctx context.Context, id domain.SessionID, at time.Time) error
}
