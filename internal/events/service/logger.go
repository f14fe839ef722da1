package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/corvusHold/rentmail/internal/events/domain"
)

// Logger is a Publisher that writes events to the structured log.
// In production, replace with a queue or external sink.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger { return &Logger{log: log} }

func (l *Logger) Publish(ctx context.Context, e domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	l.log.Info().
		Str("event_id", e.ID).
		Str("type", e.Type).
		Str("user_id", e.UserID).
		Str("actor_id", e.ActorID).
		Fields(map[string]any{"meta": e.Meta}).
		Time("ts", e.Time).
		Msg("event")
	return nil
}
