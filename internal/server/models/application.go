package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Workflow status of an application. Review workflows are out of scope, so
// only the initial state is ever written.
const (
	ApplicationStatusPending = "pending"
)

// Payment status of an application. The only transition is unpaid → paid.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Application is a user's recorded intent to apply to a scholarship.
// At most one exists per (ScholarshipID, UserEmail).
type Application struct {
	ID            string `json:"_id"`
	ScholarshipID string `json:"scholarshipId"`
	UserEmail     string `json:"userEmail"`

	// Snapshot taken when the application is created.
	UserName            string          `json:"userName"`
	ScholarshipName     string          `json:"scholarshipName"`
	UniversityName      string          `json:"universityName"`
	ScholarshipCategory string          `json:"scholarshipCategory"`
	Degree              string          `json:"degree"`
	ApplicationFees     decimal.Decimal `json:"applicationFees"`
	ServiceCharge       decimal.Decimal `json:"serviceCharge"`

	ApplicationStatus string    `json:"applicationStatus"`
	PaymentStatus     string    `json:"paymentStatus"`
	ApplicationDate   time.Time `json:"applicationDate"`

	// Set once, by the first successful reconciliation.
	TransactionID string           `json:"transactionId,omitempty"`
	AmountPaid    *decimal.Decimal `json:"amountPaid,omitempty"`

	CheckoutSessionID string `json:"checkoutSessionId,omitempty"`
}

// IsPaid reports whether the application has been reconciled.
func (a *Application) IsPaid() bool {
	return a.PaymentStatus == PaymentStatusPaid
}
