package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/corvusHold/rentmail/internal/config"
	edomain "github.com/corvusHold/rentmail/internal/email/domain"
	"github.com/corvusHold/rentmail/internal/metrics"
)

// Ensure Router implements domain.Sender
var _ edomain.Sender = (*Router)(nil)

// Router dispatches to the provider named by EMAIL_PROVIDER and records outcomes.
type Router struct {
	cfg   config.Config
	smtp  edomain.Sender
	brevo edomain.Sender
	log   zerolog.Logger
}

func NewRouter(cfg config.Config, log zerolog.Logger) *Router {
	return &Router{cfg: cfg, smtp: NewSMTP(cfg), brevo: NewBrevo(cfg), log: log}
}

func (r *Router) provider() (string, edomain.Sender) {
	switch strings.ToLower(r.cfg.EmailProvider) {
	case "brevo":
		return "brevo", r.brevo
	default:
		return "smtp", r.smtp
	}
}

func (r *Router) Send(ctx context.Context, msg edomain.Message) error {
	name, sender := r.provider()
	start := time.Now()
	err := sender.Send(ctx, msg)
	metrics.ObserveEmailSend(name, time.Since(start).Seconds())
	if err != nil {
		metrics.IncEmailSent(string(msg.Kind), name, "failure")
		r.log.Error().Err(err).Str("provider", name).Str("kind", string(msg.Kind)).Str("to", msg.To).Msg("email send failed")
		return err
	}
	metrics.IncEmailSent(string(msg.Kind), name, "success")
	r.log.Debug().Str("provider", name).Str("kind", string(msg.Kind)).Str("to", msg.To).Int("attachments", len(msg.Attachments)).Msg("email sent")
	return nil
}
