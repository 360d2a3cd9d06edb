package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/dbx"
	"github.com/dmitrijs2005/scholarstream/internal/logging"
	"github.com/dmitrijs2005/scholarstream/internal/server/checkout"
	"github.com/dmitrijs2005/scholarstream/internal/server/config"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/dmitrijs2005/scholarstream/internal/server/receipts"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// Outcomes of a duplicate application attempt.
const (
	DuplicatePending   = "pending"
	DuplicateCompleted = "completed"
)

const (
	msgDuplicatePending   = "You have a pending application. Please pay from your dashboard."
	msgDuplicateCompleted = "You have already completed the application for this scholarship."
)

// Outcomes of a successful reconciliation.
const (
	OutcomeConfirmed   = "confirmed"
	OutcomeAlreadyPaid = "already_paid"
)

// DuplicateApplicationError reports that the caller already applied to the
// scholarship. It matches common.ErrorAlreadyExists.
type DuplicateApplicationError struct {
	Outcome string
	Message string
}

func (e *DuplicateApplicationError) Error() string { return e.Message }

func (e *DuplicateApplicationError) Unwrap() error { return common.ErrorAlreadyExists }

func duplicateOf(app *models.Application) *DuplicateApplicationError {
	if app.IsPaid() {
		return &DuplicateApplicationError{Outcome: DuplicateCompleted, Message: msgDuplicateCompleted}
	}
	return &DuplicateApplicationError{Outcome: DuplicatePending, Message: msgDuplicatePending}
}

// CheckoutInput is the checkout request body. The display fields are
// informational; the ledger snapshot is taken from the catalog record.
type CheckoutInput struct {
	ScholarshipID       string          `json:"scholarshipId"`
	UserEmail           string          `json:"userEmail"`
	UserName            string          `json:"userName"`
	ScholarshipName     string          `json:"scholarshipName"`
	UniversityName      string          `json:"universityName"`
	UniversityImage     string          `json:"universityImage"`
	ScholarshipCategory string          `json:"scholarshipCategory"`
	Degree              string          `json:"degree"`
	ApplicationFees     decimal.Decimal `json:"applicationFees"`
	ServiceCharge       decimal.Decimal `json:"serviceCharge"`
	TotalPrice          decimal.Decimal `json:"totalPrice"`
}

// ConfirmResult is the outcome of reconciling a checkout session.
type ConfirmResult struct {
	Outcome     string
	Application *models.Application
}

type PaymentService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	provider      checkout.Provider
	archive       receipts.Archive
	webhookSecret string
	log           logging.Logger
	now           func() time.Time
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, provider checkout.Provider,
	archive receipts.Archive, cfg *config.Config, log logging.Logger) *PaymentService {
	return &PaymentService{
		db:            db,
		repomanager:   m,
		provider:      provider,
		archive:       archive,
		webhookSecret: cfg.StripeWebhookSecret,
		log:           log.With("module", "payments"),
		now:           time.Now,
	}
}

// CreateCheckoutSession records a new unpaid application for the caller and
// opens a provider checkout session for it, returning the redirect URL.
// Nothing is written when the caller is not the applicant, the scholarship
// is unknown, or an application already exists.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, in CheckoutInput, authEmail string) (string, error) {
	if in.UserEmail != authEmail {
		return "", common.ErrorForbidden
	}
	if !in.TotalPrice.IsPositive() {
		return "", fmt.Errorf("totalPrice must be positive: %w", common.ErrorValidation)
	}

	sch, err := s.repomanager.Scholarships(s.db).GetByID(ctx, in.ScholarshipID)
	if err != nil {
		return "", err
	}

	apps := s.repomanager.Applications(s.db)

	existing, err := apps.FindByScholarshipAndEmail(ctx, sch.ID, authEmail)
	switch {
	case err == nil:
		return "", duplicateOf(existing)
	case errors.Is(err, common.ErrorNotFound):
	default:
		return "", err
	}

	app := &models.Application{
		ScholarshipID:       sch.ID,
		UserEmail:           authEmail,
		UserName:            in.UserName,
		ScholarshipName:     sch.Name,
		UniversityName:      sch.UniversityName,
		ScholarshipCategory: sch.ScholarshipCategory,
		Degree:              sch.Degree,
		ApplicationFees:     sch.ApplicationFees,
		ServiceCharge:       sch.ServiceCharge,
		ApplicationStatus:   models.ApplicationStatusPending,
		PaymentStatus:       models.PaymentStatusUnpaid,
		ApplicationDate:     s.now().UTC(),
	}

	if err := apps.Create(ctx, app); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// Lost the race to a concurrent request for the same pair.
			existing, ferr := apps.FindByScholarshipAndEmail(ctx, sch.ID, authEmail)
			if ferr != nil {
				return "", ferr
			}
			return "", duplicateOf(existing)
		}
		return "", err
	}

	image := sch.UniversityImage
	if image == "" {
		image = in.UniversityImage
	}

	session, err := s.provider.CreateSession(ctx, checkout.SessionRequest{
		ApplicationID:   app.ID,
		ScholarshipID:   sch.ID,
		ScholarshipName: sch.Name,
		UniversityName:  sch.UniversityName,
		UniversityImage: image,
		UserEmail:       authEmail,
		TotalPrice:      in.TotalPrice,
	})
	if err != nil {
		s.log.Error(ctx, "checkout session failed", "application_id", app.ID, "error", err)
		return "", err
	}

	if err := apps.SetCheckoutSession(ctx, app.ID, session.ID); err != nil {
		s.log.Warn(ctx, "recording checkout session failed", "application_id", app.ID, "session_id", session.ID, "error", err)
	}

	s.log.Info(ctx, "checkout session created", "application_id", app.ID, "session_id", session.ID)
	return session.URL, nil
}

// ConfirmPayment re-reads the session from the provider and, when it is paid
// and belongs to the caller, marks the referenced application paid. A second
// confirmation of the same application changes nothing.
func (s *PaymentService) ConfirmPayment(ctx context.Context, sessionID, authEmail string) (*ConfirmResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId is required: %w", common.ErrorValidation)
	}

	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.reconcile(ctx, session, authEmail, true)
}

// ReconcileWebhook verifies a provider delivery and reconciles the session
// named by a completed-checkout event. Other event types are acknowledged
// with a nil result.
func (s *PaymentService) ReconcileWebhook(ctx context.Context, payload []byte, signature string) (*ConfirmResult, error) {
	if s.webhookSecret == "" {
		return nil, common.ErrorNotFound
	}

	ev, err := checkout.ParseEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, err
	}
	if ev.Type != checkout.EventSessionCompleted {
		s.log.Debug(ctx, "webhook event ignored", "event_id", ev.ID, "type", ev.Type)
		return nil, nil
	}
	if ev.SessionID == "" {
		return nil, fmt.Errorf("event %s has no session: %w", ev.ID, common.ErrorValidation)
	}

	session, err := s.provider.GetSession(ctx, ev.SessionID)
	if err != nil {
		return nil, err
	}

	return s.reconcile(ctx, session, "", false)
}

func (s *PaymentService) reconcile(ctx context.Context, session *checkout.Session, authEmail string, checkCaller bool) (*ConfirmResult, error) {
	appID := session.Metadata[checkout.MetaApplicationID]
	scholarshipID := session.Metadata[checkout.MetaScholarshipID]
	email := session.Metadata[checkout.MetaUserEmail]
	if appID == "" || scholarshipID == "" || email == "" {
		return nil, common.ErrorIncorrectMetadata
	}
	if checkCaller && email != authEmail {
		return nil, common.ErrorForbidden
	}
	if session.PaymentStatus != checkout.PaymentStatusPaid {
		return nil, common.ErrPaymentIncomplete
	}

	transactionID := session.PaymentIntentID
	if transactionID == "" {
		transactionID = session.ID
	}

	var result *ConfirmResult

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		apps := s.repomanager.Applications(tx)

		current, err := apps.GetByID(ctx, appID)
		if err != nil {
			return err
		}
		if current.ScholarshipID != scholarshipID || current.UserEmail != email {
			return common.ErrorIncorrectMetadata
		}
		if current.IsPaid() {
			result = &ConfirmResult{Outcome: OutcomeAlreadyPaid, Application: current}
			return nil
		}

		app, updated, err := apps.MarkPaid(ctx, appID, transactionID, session.AmountPaid())
		if err != nil {
			return err
		}

		if !updated {
			// A concurrent confirmation won between the read and the update.
			current, err := apps.GetByID(ctx, appID)
			if err != nil {
				return err
			}
			if !current.IsPaid() {
				return common.ErrUpdateFailed
			}
			result = &ConfirmResult{Outcome: OutcomeAlreadyPaid, Application: current}
			return nil
		}

		err = s.repomanager.Payments(tx).Create(ctx, &models.Payment{
			ApplicationID: app.ID,
			TransactionID: transactionID,
			SessionID:     session.ID,
			UserEmail:     app.UserEmail,
			AmountPaid:    session.AmountPaid(),
		})
		if err != nil {
			return fmt.Errorf("error recording payment: %w", err)
		}

		result = &ConfirmResult{Outcome: OutcomeConfirmed, Application: app}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeConfirmed {
		s.log.Info(ctx, "payment confirmed", "application_id", appID, "transaction_id", transactionID)
		s.issueReceipt(ctx, result.Application, session.ID)
	}

	return result, nil
}

func (s *PaymentService) issueReceipt(ctx context.Context, app *models.Application, sessionID string) {
	err := s.archive.Put(ctx, &models.Receipt{Application: app, SessionID: sessionID, IssuedAt: s.now().UTC()})
	if err != nil {
		s.log.Warn(ctx, "receipt archive failed", "application_id", app.ID, "error", err)
	}
}

// ListApplications returns the caller's applications, newest first.
func (s *PaymentService) ListApplications(ctx context.Context, email string) ([]*models.Application, error) {
	return s.repomanager.Applications(s.db).ListByEmail(ctx, email)
}

// ReceiptURL returns a short-lived download link for the receipt of one of
// the caller's paid applications.
func (s *PaymentService) ReceiptURL(ctx context.Context, applicationID, email string) (string, error) {
	app, err := s.repomanager.Applications(s.db).GetByID(ctx, applicationID)
	if err != nil {
		return "", err
	}
	if app.UserEmail != email {
		return "", common.ErrorForbidden
	}
	if !app.IsPaid() {
		return "", common.ErrPaymentIncomplete
	}

	url, err := s.archive.PresignedURL(ctx, app)
	if err != nil {
		if errors.Is(err, receipts.ErrDisabled) {
			return "", fmt.Errorf("receipts: %w", common.ErrorNotFound)
		}
		return "", err
	}
	return url, nil
}
