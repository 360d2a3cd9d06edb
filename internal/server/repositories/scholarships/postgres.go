// Package scholarships provides the read-only PostgreSQL catalog of
// scholarship postings.
package scholarships

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/dbx"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/google/uuid"
)

const listingColumns = `id, scholarship_name, university_name, university_image, university_country,
		subject_category, scholarship_category, degree, application_fees, application_deadline, scholarship_post_date`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns the listing projection of every scholarship matching filter.
// Category, subject and location are case-insensitive substring matches;
// Search matches name, university or degree.
func (r *PostgresRepository) List(ctx context.Context, filter models.ScholarshipFilter) ([]*models.ScholarshipListing, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select scholarships: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ScholarshipListing, 0)
	for rows.Next() {
		var item models.ScholarshipListing
		var deadline sql.NullTime
		if err := rows.Scan(
			&item.ID, &item.Name, &item.UniversityName, &item.UniversityImage, &item.UniversityCountry,
			&item.SubjectCategory, &item.ScholarshipCategory, &item.Degree, &item.ApplicationFees,
			&deadline, &item.PostDate,
		); err != nil {
			return nil, err
		}
		if deadline.Valid {
			item.Deadline = &deadline.Time
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the full scholarship record. Identifiers that are not
// UUIDs cannot exist and yield common.ErrorNotFound without a query.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Scholarship, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + listingColumns + `,
		university_city, university_world_rank, service_charge, posted_user_email
		FROM scholarships WHERE id = $1`

	s := &models.Scholarship{}
	var deadline sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.UniversityName, &s.UniversityImage, &s.UniversityCountry,
		&s.SubjectCategory, &s.ScholarshipCategory, &s.Degree, &s.ApplicationFees,
		&deadline, &s.PostDate,
		&s.UniversityCity, &s.UniversityWorldRank, &s.ServiceCharge, &s.PostedUserEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if deadline.Valid {
		s.Deadline = &deadline.Time
	}

	return s, nil
}

func buildListQuery(f models.ScholarshipFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	contains := func(v string) string {
		args = append(args, "%"+likeEscaper.Replace(v)+"%")
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		conds = append(conds, "scholarship_category ILIKE "+contains(f.Category))
	}
	if f.Subject != "" {
		conds = append(conds, "subject_category ILIKE "+contains(f.Subject))
	}
	if f.Location != "" {
		conds = append(conds, "university_country ILIKE "+contains(f.Location))
	}
	if f.Search != "" {
		p := contains(f.Search)
		conds = append(conds, fmt.Sprintf("(scholarship_name ILIKE %[1]s OR university_name ILIKE %[1]s OR degree ILIKE %[1]s)", p))
	}

	var b strings.Builder
	b.WriteString("SELECT " + listingColumns + " FROM scholarships")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	switch f.Sort {
	case models.SortFeesAsc:
		b.WriteString(" ORDER BY application_fees ASC")
	case models.SortFeesDesc:
		b.WriteString(" ORDER BY application_fees DESC")
	default:
		b.WriteString(" ORDER BY application_fees ASC, scholarship_post_date DESC")
	}

	if f.Limit > 0 {
		args = append(args, f.Limit)
		b.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	return b.String(), args
}
