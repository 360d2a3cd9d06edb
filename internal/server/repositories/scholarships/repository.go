package scholarships

import (
	"context"

	"github.com/dmitrijs2005/scholarstream/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, filter models.ScholarshipFilter) ([]*models.ScholarshipListing, error)
	GetByID(ctx context.Context, id string) (*models.Scholarship, error)
}
