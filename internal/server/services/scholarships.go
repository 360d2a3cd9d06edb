package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/repomanager"
)

type ScholarshipService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewScholarshipService(db *sql.DB, m repomanager.RepositoryManager) *ScholarshipService {
	return &ScholarshipService{db: db, repomanager: m}
}

// List returns catalog listings matching filter. A negative limit is rejected.
func (s *ScholarshipService) List(ctx context.Context, filter models.ScholarshipFilter) ([]*models.ScholarshipListing, error) {
	if filter.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative: %w", common.ErrorValidation)
	}
	switch filter.Sort {
	case "", models.SortFeesAsc, models.SortFeesDesc:
	default:
		filter.Sort = ""
	}
	return s.repomanager.Scholarships(s.db).List(ctx, filter)
}

func (s *ScholarshipService) Get(ctx context.Context, id string) (*models.Scholarship, error) {
	return s.repomanager.Scholarships(s.db).GetByID(ctx, id)
}
