// Package applications provides the PostgreSQL-backed application ledger.
package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/dbx"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const columns = `id, scholarship_id, user_email, user_name, scholarship_name, university_name,
		scholarship_category, degree, application_fees, service_charge, application_status,
		payment_status, application_date, transaction_id, amount_paid, checkout_session_id`

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresRepository implements the ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts app, assigning its ID. A second application for the same
// (scholarship, email) pair violates the table's unique constraint and is
// reported as common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (id, scholarship_id, user_email, user_name, scholarship_name,
			university_name, scholarship_category, degree, application_fees, service_charge,
			application_status, payment_status, application_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	app.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx, query,
		app.ID, app.ScholarshipID, app.UserEmail, app.UserName, app.ScholarshipName,
		app.UniversityName, app.ScholarshipCategory, app.Degree, app.ApplicationFees, app.ServiceCharge,
		app.ApplicationStatus, app.PaymentStatus, app.ApplicationDate)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("application for %s: %w", app.ScholarshipID, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the application or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + columns + ` FROM applications WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByScholarshipAndEmail returns the caller's application to a
// scholarship, or common.ErrorNotFound.
func (r *PostgresRepository) FindByScholarshipAndEmail(ctx context.Context, scholarshipID, email string) (*models.Application, error) {
	query := `SELECT ` + columns + ` FROM applications WHERE scholarship_id = $1 AND user_email = $2`
	return scanOne(r.db.QueryRowContext(ctx, query, scholarshipID, email))
}

// ListByEmail returns every application of a user, newest first.
func (r *PostgresRepository) ListByEmail(ctx context.Context, email string) ([]*models.Application, error) {
	query := `SELECT ` + columns + ` FROM applications WHERE user_email = $1 ORDER BY application_date DESC`

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to select applications: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Application, 0)
	for rows.Next() {
		app, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetCheckoutSession records the provider session opened for an application.
func (r *PostgresRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	query := `UPDATE applications SET checkout_session_id = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, sessionID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// MarkPaid flips an unpaid application to paid and stores the transaction
// reference and amount, in a single conditional statement. The boolean is
// false, with a nil application, when no unpaid row with that id exists;
// an already paid row is never touched.
func (r *PostgresRepository) MarkPaid(ctx context.Context, id, transactionID string, amount decimal.Decimal) (*models.Application, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false, nil
	}
	query := `
		UPDATE applications
		SET payment_status = 'paid', transaction_id = $2, amount_paid = $3
		WHERE id = $1 AND payment_status = 'unpaid'
		RETURNING ` + columns

	app, err := scanOne(r.db.QueryRowContext(ctx, query, id, transactionID, amount))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return app, true, nil
}

func scanOne(row *sql.Row) (*models.Application, error) {
	app, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

func scan(row rowScanner) (*models.Application, error) {
	var (
		app           models.Application
		transactionID sql.NullString
		amountPaid    decimal.NullDecimal
		sessionID     sql.NullString
	)

	err := row.Scan(
		&app.ID, &app.ScholarshipID, &app.UserEmail, &app.UserName, &app.ScholarshipName, &app.UniversityName,
		&app.ScholarshipCategory, &app.Degree, &app.ApplicationFees, &app.ServiceCharge, &app.ApplicationStatus,
		&app.PaymentStatus, &app.ApplicationDate, &transactionID, &amountPaid, &sessionID,
	)
	if err != nil {
		return nil, err
	}

	app.TransactionID = transactionID.String
	app.CheckoutSessionID = sessionID.String
	if amountPaid.Valid {
		amount := amountPaid.Decimal
		app.AmountPaid = &amount
	}
	return &app, nil
}
