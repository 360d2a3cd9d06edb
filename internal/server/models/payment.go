package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the audit record written once per successful reconciliation.
// TransactionID is the provider's payment reference and is unique.
type Payment struct {
	ID            string          `json:"_id"`
	ApplicationID string          `json:"applicationId"`
	TransactionID string          `json:"transactionId"`
	SessionID     string          `json:"sessionId"`
	UserEmail     string          `json:"userEmail"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Receipt is the archived summary of a paid application.
type Receipt struct {
	Application *Application `json:"application"`
	SessionID   string       `json:"sessionId"`
	IssuedAt    time.Time    `json:"issuedAt"`
}
