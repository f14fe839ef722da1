package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/corvusHold/rentmail/internal/config"
	edomain "github.com/corvusHold/rentmail/internal/email/domain"
)

// Ensure Brevo implements domain.Sender
var _ edomain.Sender = (*Brevo)(nil)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type Brevo struct {
	cfg  config.Config
	http *http.Client
}

func NewBrevo(cfg config.Config) *Brevo {
	return &Brevo{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}
}

type brevoAttachment struct {
	Content string `json:"content"`
	Name    string `json:"name"`
}

type brevoEmail struct {
	To          []map[string]string `json:"to"`
	Sender      map[string]string   `json:"sender"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
	TextContent string              `json:"textContent,omitempty"`
	Attachment  []brevoAttachment   `json:"attachment,omitempty"`
}

func (b *Brevo) Send(ctx context.Context, msg edomain.Message) error {
	if msg.To == "" {
		return edomain.ErrNoRecipient
	}
	sender := msg.From
	if sender == "" {
		sender = b.cfg.BrevoSender
	}
	if b.cfg.BrevoAPIKey == "" || sender == "" {
		return fmt.Errorf("brevo not configured")
	}
	payload := brevoEmail{
		To:          []map[string]string{{"email": msg.To}},
		Sender:      map[string]string{"email": sender},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
	}
	for _, a := range msg.Attachments {
		payload.Attachment = append(payload.Attachment, brevoAttachment{
			Content: base64.StdEncoding.EncodeToString(a.Content),
			Name:    a.Filename,
		})
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoEndpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", b.cfg.BrevoAPIKey)
	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: %s", resp.Status)
	}
	return nil
}
