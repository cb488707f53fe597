package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/xamogh/medxz/internal/application/ports"
	"github.com/xamogh/medxz/internal/domain"
)

const TypeSessionTouch = "session:touch"

// sessionTouchPayload is the JSON body of a TypeSessionTouch task.
type sessionTouchPayload struct {
	SessionID string    `json:"session_id"`
	TouchedAt time.Time `json:"touched_at"`
}

// TaskEnqueuer hands session upkeep to the Asynq worker.
type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) (*TaskEnqueuer, error) {
	client := asynq.NewClient(redisOpt)
	return &TaskEnqueuer{client: client, log: log}, nil
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueSessionTouch(ctx context.Context, id domain.SessionID, at time.Time) error {
	payload, _ := json.Marshal(sessionTouchPayload{
		SessionID: id.String(),
		TouchedAt: at,
	})
	task := asynq.NewTask(TypeSessionTouch, payload)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("session_id", id.String()).Msg("enqueue session touch failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
