package applications

import (
	"context"

	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	FindByScholarshipAndEmail(ctx context.Context, scholarshipID, email string) (*models.Application, error)
	ListByEmail(ctx context.Context, email string) ([]*models.Application, error)
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	MarkPaid(ctx context.Context, id, transactionID string, amount decimal.Decimal) (*models.Application, bool, error)
}
