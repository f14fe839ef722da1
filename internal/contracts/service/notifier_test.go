package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/rentmail/internal/contracts/domain"
	"github.com/corvusHold/rentmail/internal/contracts/templates"
	edomain "github.com/corvusHold/rentmail/internal/email/domain"
	evdomain "github.com/corvusHold/rentmail/internal/events/domain"
	"github.com/corvusHold/rentmail/internal/logger"
	udomain "github.com/corvusHold/rentmail/internal/users/domain"
)

type fakeUsers struct {
	users    map[string]udomain.AppUser
	adminErr error
}

func (f *fakeUsers) Get(ctx context.Context, uid string) (udomain.AppUser, error) {
	u, ok := f.users[uid]
	if !ok {
		return udomain.AppUser{}, udomain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Admins(ctx context.Context) ([]udomain.AppUser, error) {
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	var out []udomain.AppUser
	for _, u := range f.users {
		if u.IsAdmin() && u.Email != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Delete(ctx context.Context, actorUID, uid string) error { return nil }

type captureSender struct {
	mu     sync.Mutex
	sent   []edomain.Message
	failTo string
}

func (c *captureSender) Send(ctx context.Context, msg edomain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.To == c.failTo {
		return errors.New("relay refused")
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureSender) to(kind edomain.Kind) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, m := range c.sent {
		if m.Kind == kind {
			out = append(out, m.To)
		}
	}
	sort.Strings(out)
	return out
}

type capturePublisher struct{ events []evdomain.Event }

func (p *capturePublisher) Publish(ctx context.Context, e evdomain.Event) error {
	p.events = append(p.events, e)
	return nil
}

func fixture(t *testing.T) (*Notifier, *captureSender, *capturePublisher, *fakeUsers) {
	t.Helper()
	users := &fakeUsers{users: map[string]udomain.AppUser{
		"cust":    {UID: "cust", Email: "jane@example.com", FirstName: "Jane", Type: udomain.TypeCustomer},
		"noemail": {UID: "noemail", FirstName: "Ghost", Type: udomain.TypeCustomer},
		"a1":      {UID: "a1", Email: "boss@example.com", Type: udomain.TypeAdmin},
		"a2":      {UID: "a2", Email: "ops@example.com", Type: udomain.TypeAdmin},
		"a3":      {UID: "a3", Type: udomain.TypeAdmin},
	}}
	r, err := templates.New(time.UTC)
	require.NoError(t, err)
	sender := &captureSender{}
	pub := &capturePublisher{}
	return New(users, sender, r, pub, "https://platform.example.com", logger.Nop()), sender, pub, users
}

func contract(uid string) domain.Contract {
	return domain.Contract{
		UserID:  uid,
		Name:    "Jane Doe",
		Car:     domain.Car{CarMake: "Toyota", CarModel: "Corolla", CarDailyRate: decimal.RequireFromString("45")},
		DateOut: "2025-03-01",
		DateDue: "2025-03-04",
	}
}

func TestSubmit_NotifiesAdminsThenCustomer(t *testing.T) {
	n, sender, pub, _ := fixture(t)
	require.NoError(t, n.Submit(context.Background(), contract("cust")))

	assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, sender.to(edomain.KindAdmin))
	assert.Equal(t, []string{"jane@example.com"}, sender.to(edomain.KindCustomer))

	last := sender.sent[len(sender.sent)-1]
	assert.Equal(t, edomain.KindCustomer, last.Kind)
	assert.Equal(t, SubjectCustomer, last.Subject)
	assert.Contains(t, last.HTML, "Jane")
	assert.NotEmpty(t, last.Text)

	for _, m := range sender.sent[:2] {
		assert.Equal(t, SubjectAdmin, m.Subject)
		assert.Contains(t, m.HTML, "https://platform.example.com")
	}

	require.Len(t, pub.events, 1)
	assert.Equal(t, evdomain.TypeContractSubmitted, pub.events[0].Type)
	assert.Equal(t, "2", pub.events[0].Meta["admins"])
	assert.Equal(t, "135.00", pub.events[0].Meta["total"])
}

func TestSubmit_NoAdmins(t *testing.T) {
	n, sender, _, users := fixture(t)
	for uid, u := range users.users {
		if u.IsAdmin() {
			delete(users.users, uid)
		}
	}
	require.NoError(t, n.Submit(context.Background(), contract("cust")))
	assert.Empty(t, sender.to(edomain.KindAdmin))
	assert.Equal(t, []string{"jane@example.com"}, sender.to(edomain.KindCustomer))
}

func TestSubmit_Errors(t *testing.T) {
	ctx := context.Background()

	n, _, _, _ := fixture(t)
	assert.ErrorIs(t, n.Submit(ctx, contract("")), domain.ErrMissingUserID)
	assert.ErrorIs(t, n.Submit(ctx, contract("missing")), udomain.ErrNotFound)
	assert.ErrorIs(t, n.Submit(ctx, contract("noemail")), domain.ErrNoEmail)

	n, _, _, users := fixture(t)
	users.adminErr = errors.New("db down")
	assert.Error(t, n.Submit(ctx, contract("cust")))
}

func TestSubmit_AdminFailureSkipsCustomer(t *testing.T) {
	n, sender, pub, _ := fixture(t)
	sender.failTo = "ops@example.com"

	err := n.Submit(context.Background(), contract("cust"))
	require.Error(t, err)
	assert.Equal(t, []string{"boss@example.com"}, sender.to(edomain.KindAdmin))
	assert.Empty(t, sender.to(edomain.KindCustomer))
	assert.Empty(t, pub.events)
}

func TestSubmitWithAttachment(t *testing.T) {
	n, sender, pub, _ := fixture(t)
	c := contract("cust")
	c.ID = "abc123xyz"
	file := edomain.Attachment{Filename: "contract.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")}

	require.NoError(t, n.SubmitWithAttachment(context.Background(), c, file))
	require.Len(t, sender.sent, 1)
	m := sender.sent[0]
	assert.Equal(t, edomain.KindContract, m.Kind)
	assert.Equal(t, "jane@example.com", m.To)
	assert.Equal(t, SubjectContract, m.Subject)
	assert.Equal(t, []edomain.Attachment{file}, m.Attachments)
	assert.Contains(t, m.HTML, "ABC123")

	require.Len(t, pub.events, 1)
	assert.Equal(t, evdomain.TypeContractEmailed, pub.events[0].Type)
	assert.Equal(t, "contract.pdf", pub.events[0].Meta["file"])
}

func TestSubmitWithAttachment_Errors(t *testing.T) {
	n, sender, _, _ := fixture(t)
	ctx := context.Background()
	file := edomain.Attachment{Filename: "a.txt", Content: []byte("x")}

	assert.ErrorIs(t, n.SubmitWithAttachment(ctx, contract("missing"), file), udomain.ErrNotFound)
	assert.ErrorIs(t, n.SubmitWithAttachment(ctx, contract("noemail"), file), domain.ErrNoEmail)

	sender.failTo = "jane@example.com"
	assert.Error(t, n.SubmitWithAttachment(ctx, contract("cust"), file))
}
