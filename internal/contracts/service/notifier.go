package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/corvusHold/rentmail/internal/contracts/domain"
	"github.com/corvusHold/rentmail/internal/contracts/pricing"
	"github.com/corvusHold/rentmail/internal/contracts/templates"
	edomain "github.com/corvusHold/rentmail/internal/email/domain"
	evdomain "github.com/corvusHold/rentmail/internal/events/domain"
	udomain "github.com/corvusHold/rentmail/internal/users/domain"
)

const (
	SubjectAdmin    = "🚗 New Rental Contract Submitted"
	SubjectCustomer = "✅ Your Rental Contract Submission"
	SubjectContract = "✅ Your Rental Contract"
)

// Ensure Notifier implements domain.Notifier
var _ domain.Notifier = (*Notifier)(nil)

type Notifier struct {
	users       udomain.Service
	mail        edomain.Sender
	tmpl        *templates.Renderer
	pub         evdomain.Publisher
	platformURL string
	log         zerolog.Logger
}

func New(users udomain.Service, mail edomain.Sender, tmpl *templates.Renderer, pub evdomain.Publisher, platformURL string, log zerolog.Logger) *Notifier {
	return &Notifier{users: users, mail: mail, tmpl: tmpl, pub: pub, platformURL: platformURL, log: log}
}

// recipient loads the contract's owner and checks it can receive mail.
func (n *Notifier) recipient(ctx context.Context, c domain.Contract) (udomain.AppUser, error) {
	if c.UserID == "" {
		return udomain.AppUser{}, domain.ErrMissingUserID
	}
	u, err := n.users.Get(ctx, c.UserID)
	if err != nil {
		return udomain.AppUser{}, fmt.Errorf("load user %s: %w", c.UserID, err)
	}
	if u.Email == "" {
		return udomain.AppUser{}, domain.ErrNoEmail
	}
	return u, nil
}

// Submit emails every admin concurrently, then the customer. Admin sends are
// independent: one failing does not cancel mail already handed to the relay.
func (n *Notifier) Submit(ctx context.Context, c domain.Contract) error {
	u, err := n.recipient(ctx, c)
	if err != nil {
		return err
	}
	admins, err := n.users.Admins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	adminBody, err := n.tmpl.Admin(c, u, n.platformURL)
	if err != nil {
		return err
	}
	var g errgroup.Group
	for _, a := range admins {
		to := a.Email
		g.Go(func() error {
			return n.mail.Send(ctx, edomain.Message{
				Kind:    edomain.KindAdmin,
				To:      to,
				Subject: SubjectAdmin,
				HTML:    adminBody.HTML,
				Text:    adminBody.Text,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("notify admins: %w", err)
	}

	customerBody, err := n.tmpl.Customer(c, u)
	if err != nil {
		return err
	}
	if err := n.mail.Send(ctx, edomain.Message{
		Kind:    edomain.KindCustomer,
		To:      u.Email,
		Subject: SubjectCustomer,
		HTML:    customerBody.HTML,
		Text:    customerBody.Text,
	}); err != nil {
		return fmt.Errorf("notify customer: %w", err)
	}

	n.publish(ctx, evdomain.Event{
		Type:   evdomain.TypeContractSubmitted,
		UserID: u.UID,
		Meta: map[string]string{
			"admins": strconv.Itoa(len(admins)),
			"total":  pricing.Money(pricing.TotalAmount(c)),
		},
	})
	return nil
}

// SubmitWithAttachment emails the customer a contract summary with file attached.
func (n *Notifier) SubmitWithAttachment(ctx context.Context, c domain.Contract, file edomain.Attachment) error {
	u, err := n.recipient(ctx, c)
	if err != nil {
		return err
	}
	body, err := n.tmpl.ContractSummary(c, u)
	if err != nil {
		return err
	}
	if err := n.mail.Send(ctx, edomain.Message{
		Kind:        edomain.KindContract,
		To:          u.Email,
		Subject:     SubjectContract,
		HTML:        body.HTML,
		Text:        body.Text,
		Attachments: []edomain.Attachment{file},
	}); err != nil {
		return fmt.Errorf("send contract: %w", err)
	}

	n.publish(ctx, evdomain.Event{
		Type:   evdomain.TypeContractEmailed,
		UserID: u.UID,
		Meta: map[string]string{
			"file":  file.Filename,
			"bytes": strconv.Itoa(len(file.Content)),
		},
	})
	return nil
}

func (n *Notifier) publish(ctx context.Context, e evdomain.Event) {
	if n.pub == nil {
		return
	}
	if err := n.pub.Publish(ctx, e); err != nil {
		n.log.Warn().Err(err).Str("event", e.Type).Msg("publish audit event")
	}
}
