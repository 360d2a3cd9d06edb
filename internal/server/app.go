// Package server wires configuration, storage, the payment provider and the
// HTTP API together and runs them until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/scholarstream/internal/logging"
	"github.com/dmitrijs2005/scholarstream/internal/server/checkout"
	"github.com/dmitrijs2005/scholarstream/internal/server/config"
	"github.com/dmitrijs2005/scholarstream/internal/server/receipts"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/scholarstream/internal/server/rest"
	"github.com/dmitrijs2005/scholarstream/internal/server/services"
)

type App struct {
	config             *config.Config
	logger             logging.Logger
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	userService        *services.UserService
	scholarshipService *services.ScholarshipService
	paymentService     *services.PaymentService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewForEnv(os.Stdout, c.Environment)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if c.StripeSecretKey == "" {
		logger.Warn(ctx, "no payment provider key configured, checkout calls will fail")
	}
	provider := checkout.NewStripeProvider(c.StripeSecretKey, c.DomainURL)

	var archive receipts.Archive = receipts.Nop{}
	if c.ReceiptsEnabled() {
		s3a, err := receipts.NewS3Archive(ctx, c)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("receipt archive init error: %w", err)
		}
		archive = s3a
	}

	return &App{
		config:             c,
		logger:             logger,
		db:                 db,
		repomanager:        rm,
		userService:        services.NewUserService(db, rm, c, logger),
		scholarshipService: services.NewScholarshipService(db, rm),
		paymentService:     services.NewPaymentService(db, rm, provider, archive, c, logger),
	}, nil
}

// Migrate applies pending schema migrations and logs the resulting version.
func (app *App) Migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	v, err := app.repomanager.SchemaVersion(ctx, app.db)
	if err != nil {
		return err
	}
	app.logger.Info(ctx, "schema up to date", "version", v)
	return nil
}

func (app *App) Close() error {
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := rest.NewHTTPServer(app.config, app.logger, app.userService, app.scholarshipService, app.paymentService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Run migrates the schema, then serves HTTP until a termination signal
// arrives or the server fails. A listener failure is returned. The database
// is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		serveErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		serveErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return serveErr
}
