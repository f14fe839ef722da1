package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/corvusHold/rentmail/internal/config"
	edomain "github.com/corvusHold/rentmail/internal/email/domain"
)

// Ensure SMTP implements domain.Sender
var _ edomain.Sender = (*SMTP)(nil)

const smtpTimeout = 30 * time.Second

// SMTP delivers mail through the configured relay, one connection per message.
type SMTP struct {
	cfg       config.Config
	tlsConfig *tls.Config
	now       func() time.Time
}

func NewSMTP(cfg config.Config) *SMTP {
	return &SMTP{cfg: cfg, tlsConfig: &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12}, now: time.Now}
}

func (s *SMTP) Send(ctx context.Context, msg edomain.Message) error {
	if msg.To == "" {
		return edomain.ErrNoRecipient
	}
	from := msg.From
	if from == "" {
		from = s.cfg.SMTPFrom
	}
	if from == "" {
		return edomain.ErrNoSender
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("smtp: invalid recipient %q: %w", msg.To, err)
	}

	raw, err := buildMIME(from, msg, s.now())
	if err != nil {
		return fmt.Errorf("smtp: build message: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("smtp: dial %s: %w", addr, err)
	}
	deadline := time.Now().Add(smtpTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp: handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if !s.cfg.SMTPSecure {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig); err != nil {
				return fmt.Errorf("smtp: starttls: %w", err)
			}
		}
	}
	if s.cfg.SMTPUsername != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("smtp: auth: %w", err)
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp: MAIL FROM: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp: RCPT TO: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp: DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: end data: %w", err)
	}
	return c.Quit()
}

func (s *SMTP) dial(ctx context.Context, addr string) (net.Conn, error) {
	nd := &net.Dialer{Timeout: smtpTimeout}
	if s.cfg.SMTPSecure {
		td := &tls.Dialer{NetDialer: nd, Config: s.tlsConfig}
		return td.DialContext(ctx, "tcp", addr)
	}
	return nd.DialContext(ctx, "tcp", addr)
}
