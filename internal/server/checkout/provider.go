// Package checkout adapts the hosted payment provider: opening checkout
// sessions, re-reading them, and verifying webhook deliveries.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// Metadata keys attached to every session.
const (
	MetaApplicationID = "applicationId"
	MetaScholarshipID = "scholarshipId"
	MetaUserEmail     = "userEmail"
)

// PaymentStatusPaid is the provider's payment status of a settled session.
const PaymentStatusPaid = "paid"

// SessionRequest describes a single-line-item checkout.
type SessionRequest struct {
	ApplicationID   string
	ScholarshipID   string
	ScholarshipName string
	UniversityName  string
	UniversityImage string
	UserEmail       string
	TotalPrice      decimal.Decimal
}

// Session is the provider's view of a checkout session. AmountTotal is in
// the smallest currency unit.
type Session struct {
	ID              string
	URL             string
	AmountTotal     int64
	Metadata        map[string]string
	PaymentIntentID string
	PaymentStatus   string
}

// AmountPaid converts AmountTotal to currency units.
func (s *Session) AmountPaid() decimal.Decimal {
	return decimal.New(s.AmountTotal, -2)
}

type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

// UnitAmount returns price in cents, rounded half away from zero.
func UnitAmount(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
