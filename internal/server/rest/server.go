// Package rest exposes the ScholarStream HTTP API on fiber.
package rest

import (
	"context"
	"time"

	"github.com/dmitrijs2005/scholarstream/internal/logging"
	"github.com/dmitrijs2005/scholarstream/internal/server/auth"
	"github.com/dmitrijs2005/scholarstream/internal/server/config"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/dmitrijs2005/scholarstream/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const shutdownTimeout = 10 * time.Second

type UserService interface {
	Register(ctx context.Context, user *models.User) (*models.User, bool, error)
	IssueToken(ctx context.Context, email string) (string, error)
	Authenticate(token string) (*auth.Claims, error)
	TokenValidity() time.Duration
}

type ScholarshipService interface {
	List(ctx context.Context, filter models.ScholarshipFilter) ([]*models.ScholarshipListing, error)
	Get(ctx context.Context, id string) (*models.Scholarship, error)
}

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, in services.CheckoutInput, authEmail string) (string, error)
	ConfirmPayment(ctx context.Context, sessionID, authEmail string) (*services.ConfirmResult, error)
	ReconcileWebhook(ctx context.Context, payload []byte, signature string) (*services.ConfirmResult, error)
	ListApplications(ctx context.Context, email string) ([]*models.Application, error)
	ReceiptURL(ctx context.Context, applicationID, email string) (string, error)
}

type HTTPServer struct {
	address      string
	app          *fiber.App
	users        UserService
	scholarships ScholarshipService
	payments     PaymentService
	logger       logging.Logger
	production   bool
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us UserService, ss ScholarshipService, ps PaymentService) *HTTPServer {
	s := &HTTPServer{
		address:      cfg.EndpointAddrHTTP,
		users:        us,
		scholarships: ss,
		payments:     ps,
		logger:       l.With("module", "http_server"),
		production:   cfg.IsProduction(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "ScholarStream",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.DomainURL,
		AllowCredentials: true,
	}))

	s.routes(cfg.StripeWebhookSecret != "")
	return s
}

func (s *HTTPServer) routes(webhookEnabled bool) {
	s.app.Get("/", s.banner)

	s.app.Post("/users", s.registerUser)
	s.app.Post("/getToken", s.issueToken)
	s.app.Post("/logout", s.logout)

	s.app.Get("/scholarships", s.listScholarships)
	s.app.Get("/scholarship/:id", s.getScholarship)

	s.app.Post("/create-checkout-session", s.requireAuth, s.createCheckoutSession)
	s.app.Patch("/payment/success", s.requireAuth, s.confirmPayment)

	s.app.Get("/applications", s.requireAuth, s.listApplications)
	s.app.Get("/applications/:id/receipt", s.requireAuth, s.receiptURL)

	if webhookEnabled {
		s.app.Post("/webhook/checkout", s.checkoutWebhook)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Error(context.Background(), "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.app.Listen(s.address); err != nil {
		return err
	}

	return nil
}
