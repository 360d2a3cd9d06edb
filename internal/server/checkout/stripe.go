package checkout

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeProvider implements Provider on Stripe Checkout.
type StripeProvider struct {
	api       sessionAPI
	domainURL string
}

// NewStripeProvider builds a provider with its own API client, so the
// package-level stripe.Key is never touched.
func NewStripeProvider(secretKey, domainURL string) *StripeProvider {
	return &StripeProvider{
		api:       &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		domainURL: domainURL,
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := buildSessionParams(req, p.domainURL)
	params.Context = ctx

	cs, err := p.api.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(cs), nil
}

func (p *StripeProvider) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := p.api.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	return fromStripe(cs), nil
}

func buildSessionParams(req SessionRequest, domainURL string) *stripe.CheckoutSessionParams {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String("Application for: " + req.ScholarshipName),
		Description: stripe.String("University: " + req.UniversityName),
	}
	if req.UniversityImage != "" {
		product.Images = stripe.StringSlice([]string{req.UniversityImage})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(string(stripe.CurrencyUSD)),
					ProductData: product,
					UnitAmount:  stripe.Int64(UnitAmount(req.TotalPrice)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(req.UserEmail),
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(domainURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(domainURL + "/payment/fail"),
	}
	params.AddMetadata(MetaApplicationID, req.ApplicationID)
	params.AddMetadata(MetaScholarshipID, req.ScholarshipID)
	params.AddMetadata(MetaUserEmail, req.UserEmail)

	return params
}

func fromStripe(cs *stripe.CheckoutSession) *Session {
	s := &Session{
		ID:            cs.ID,
		URL:           cs.URL,
		AmountTotal:   cs.AmountTotal,
		Metadata:      cs.Metadata,
		PaymentStatus: string(cs.PaymentStatus),
	}
	if cs.PaymentIntent != nil {
		s.PaymentIntentID = cs.PaymentIntent.ID
	}
	return s
}
