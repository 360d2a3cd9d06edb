package checkout

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// SignatureHeader carries the provider's delivery signature.
const SignatureHeader = "Stripe-Signature"

// EventSessionCompleted is the only event type acted upon.
const EventSessionCompleted = "checkout.session.completed"

// Event is a verified webhook delivery.
type Event struct {
	ID        string
	Type      string
	SessionID string
}

// ParseEvent verifies payload against the signature header and secret.
// Verification failures wrap common.ErrorValidation.
func ParseEvent(payload []byte, signature, secret string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("webhook signature: %v: %w", err, common.ErrorValidation)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if out.Type == EventSessionCompleted && ev.Data != nil {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("webhook payload: %v: %w", err, common.ErrorValidation)
		}
		out.SessionID = cs.ID
	}
	return out, nil
}
