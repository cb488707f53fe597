package queue

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/xamogh/medxz/internal/application/ports"
	"github.com/xamogh/medxz/internal/domain"
)

// Worker runs Asynq task handlers for session upkeep.
type Worker struct {
	srv      *asynq.Server
	mux      *asynq.ServeMux
	sessions ports.SessionStore
	log      zerolog.Logger
}

// NewWorker creates an Asynq server and registers handlers. Call Run() to start.
func NewWorker(redisOpt asynq.RedisClientOpt, sessions ports.SessionStore, log zerolog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.InfoLevel,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, sessions: sessions, log: log}
	mux.HandleFunc(TypeSessionTouch, w.handleSessionTouch)
	return w
}

func (w *Worker) handleSessionTouch(ctx context.Context, t *asynq.Task) error {
	var p sessionTouchPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("session touch task payload invalid")
		return err
	}
	id, err := uuid.Parse(p.SessionID)
	if err != nil {
		w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("session touch task has bad session id")
		return err
	}
	if err := w.sessions.TouchLastUsed(ctx, domain.NewSessionID(id), p.TouchedAt); err != nil {
		w.log.Warn().Err(err).Str("session_id", p.SessionID).Msg("session touch failed")
		return err
	}
	return nil
}

// Run blocks until shutdown. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
