// Package templates renders the contract notification emails.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"github.com/corvusHold/rentmail/internal/contracts/domain"
	"github.com/corvusHold/rentmail/internal/contracts/pricing"
	udomain "github.com/corvusHold/rentmail/internal/users/domain"
)

//go:embed *.html.tmpl
var files embed.FS

// timestampLayout mirrors the en-US locale string the emails have always shown.
const timestampLayout = "1/2/2006, 3:04:05 PM"

// Rendered is an HTML email body with its plain-text alternative.
type Rendered struct {
	HTML string
	Text string
}

type Renderer struct {
	tmpl  *template.Template
	strip *bluemonday.Policy
	loc   *time.Location
	now   func() time.Time
}

// New parses the embedded templates. Timestamps are rendered in loc.
func New(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	funcs := template.FuncMap{
		"money":      pricing.Money,
		"formatTime": pricing.FormatTime,
		"subtotal":   pricing.Subtotal,
	}
	t, err := template.New("emails").Funcs(funcs).ParseFS(files, "*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Renderer{tmpl: t, strip: bluemonday.StrictPolicy(), loc: loc, now: time.Now}, nil
}

// WithClock overrides the timestamp source.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

type customerView struct {
	Contract domain.Contract
	User     udomain.AppUser
	SentAt   string
}

type adminView struct {
	Contract    domain.Contract
	User        udomain.AppUser
	Quote       pricing.Quote
	PlatformURL string
	SentAt      string
}

type contractView struct {
	Contract  domain.Contract
	User      udomain.AppUser
	Total     decimal.Decimal
	Reference string
	SentAt    string
}

// Customer renders the submission confirmation sent to the customer.
func (r *Renderer) Customer(c domain.Contract, u udomain.AppUser) (Rendered, error) {
	return r.render("customer", customerView{Contract: c, User: u, SentAt: r.timestamp()})
}

// Admin renders the new-contract notice sent to each admin, including the price breakdown.
func (r *Renderer) Admin(c domain.Contract, u udomain.AppUser, platformURL string) (Rendered, error) {
	return r.render("admin", adminView{
		Contract:    c,
		User:        u,
		Quote:       pricing.QuoteFor(c),
		PlatformURL: platformURL,
		SentAt:      r.timestamp(),
	})
}

// ContractSummary renders the lessee/vehicle summary that accompanies an attached contract.
func (r *Renderer) ContractSummary(c domain.Contract, u udomain.AppUser) (Rendered, error) {
	return r.render("contract", contractView{
		Contract:  c,
		User:      u,
		Total:     pricing.TotalAmount(c),
		Reference: pricing.ShortRef(c.ID),
		SentAt:    r.timestamp(),
	})
}

func (r *Renderer) timestamp() string {
	return r.now().In(r.loc).Format(timestampLayout)
}

func (r *Renderer) render(name string, data any) (Rendered, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s email: %w", name, err)
	}
	out := strings.TrimSpace(buf.String())
	return Rendered{HTML: out, Text: r.plainText(out)}, nil
}

// plainText strips markup and collapses the blank lines left behind.
func (r *Renderer) plainText(markup string) string {
	stripped := html.UnescapeString(r.strip.Sanitize(markup))
	lines := strings.Split(stripped, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
