// Package pricing derives rental durations and amounts from contract fields.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corvusHold/rentmail/internal/contracts/domain"
)

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD contract date.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RentalDays is the number of whole days between dateOut and dateDue, at least 1.
// Unparseable or reversed dates count as a single day.
func RentalDays(dateOut, dateDue string) int {
	from, ok1 := ParseDate(dateOut)
	to, ok2 := ParseDate(dateDue)
	if !ok1 || !ok2 {
		return 1
	}
	days := int(math.Round(to.Sub(from).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// Subtotal is rate × days.
func Subtotal(rate decimal.Decimal, days int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(days)))
}

// AdditionalTotal sums the subtotals of the additional cars.
func AdditionalTotal(cars []domain.Car, days int) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cars {
		total = total.Add(Subtotal(c.CarDailyRate, days))
	}
	return total
}

// Quote is the breakdown shown to admins.
type Quote struct {
	Days            int
	PrimarySubtotal decimal.Decimal
	AdditionalTotal decimal.Decimal
	GrandTotal      decimal.Decimal
}

// QuoteFor prices the primary and additional cars over the rental period.
func QuoteFor(c domain.Contract) Quote {
	days := RentalDays(c.DateOut, c.DateDue)
	primary := Subtotal(c.CarDailyRate, days)
	extra := AdditionalTotal(c.AdditionalCars, days)
	return Quote{Days: days, PrimarySubtotal: primary, AdditionalTotal: extra, GrandTotal: primary.Add(extra)}
}

// TotalAmount is the explicit contract amount when present, otherwise the day count
// (noOfDays, else the date span) times the daily rate. Never negative.
func TotalAmount(c domain.Contract) decimal.Decimal {
	if c.Amount != nil {
		return *c.Amount
	}
	days := c.NoOfDays.Int()
	if days <= 0 {
		days = RentalDays(c.DateOut, c.DateDue)
	}
	total := Subtotal(c.CarDailyRate, days)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Money formats an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatTime converts a 24-hour "HH:MM" value to "h:MMam|pm". Empty input stays empty;
// values that do not parse are returned unchanged.
func FormatTime(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	hs, ms, ok := strings.Cut(t, ":")
	if !ok {
		return t
	}
	h, err1 := strconv.Atoi(hs)
	m, err2 := strconv.Atoi(ms)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return t
	}
	suffix := "am"
	if h >= 12 {
		suffix = "pm"
	}
	hour := h % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d%s", hour, m, suffix)
}

// ShortRef is the customer-facing contract reference: the first six characters of the
// id, upper-cased, or "N/A".
func ShortRef(id string) string {
	if id == "" {
		return "N/A"
	}
	r := []rune(id)
	if len(r) > 6 {
		r = r[:6]
	}
	return strings.ToUpper(string(r))
}
