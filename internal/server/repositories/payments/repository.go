package payments

import (
	"context"

	"github.com/dmitrijs2005/scholarstream/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListByApplication(ctx context.Context, applicationID string) ([]*models.Payment, error)
}
