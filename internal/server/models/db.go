// Package models defines server-side data models persisted in the database
// and exchanged with the web client.
package models

import "github.com/shopspring/decimal"

func init() {
	// Fees and amounts travel as JSON numbers, the way the web client sends them.
	decimal.MarshalJSONWithoutQuotes = true
}
