package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

type PaymentRecord struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	OrderID     uuid.UUID     `json:"order_id" db:"order_id"`
	UserID      string        `json:"user_id" db:"user_id"`
	AmountCents int64         `json:"amount_cents" db:"amount_cents"`
	Status      PaymentStatus `json:"status" db:"status"`
	PaidAt      *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// PaymentIntent is a freshly created pending record plus the gateway URL
// the renter is redirected to.
type PaymentIntent struct {
	Payment     *PaymentRecord `json:"payment"`
	RedirectURL string         `json:"payment_url"`
}

// FormatAmount renders cents as a two-decimal amount string ("12.50").
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseAmount parses a decimal amount with at most two fraction digits into cents.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || strings.HasPrefix(whole, "-") || strings.HasPrefix(whole, "+") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || strings.HasPrefix(frac, "-") || strings.HasPrefix(frac, "+") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("amount %q is out of range", s)
	}
	return units*100 + cents, nil
}
