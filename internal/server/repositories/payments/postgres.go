// Package payments stores the audit trail of reconciled payments: one row
// per application that went from unpaid to paid.
package payments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/dbx"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends a payment record. A transaction reference already on file
// yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (id, application_id, transaction_id, session_id, user_email, amount_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	p.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.ApplicationID, p.TransactionID, p.SessionID, p.UserEmail, p.AmountPaid).Scan(&p.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("transaction %s: %w", p.TransactionID, common.ErrorAlreadyExists)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByApplication(ctx context.Context, applicationID string) ([]*models.Payment, error) {
	query := `
		SELECT id, application_id, transaction_id, session_id, user_email, amount_paid, created_at
		FROM payments WHERE application_id = $1 ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to select payments: %w", err)
	}
	defer rows.Close()

	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.ApplicationID, &p.TransactionID, &p.SessionID, &p.UserEmail, &p.AmountPaid, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
