package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scholarship is a read-only catalog entry.
type Scholarship struct {
	ScholarshipListing
	UniversityCity      string `json:"universityCity"`
	UniversityWorldRank int    `json:"universityWorldRank"`
	PostedUserEmail     string `json:"postedUserEmail"`

	ServiceCharge decimal.Decimal `json:"serviceCharge"`
}

// ScholarshipListing is the public projection used by the catalog listing.
// It leaves out the poster, the service charge and the ranking details.
type ScholarshipListing struct {
	ID                  string          `json:"_id"`
	Name                string          `json:"scholarshipName"`
	UniversityName      string          `json:"universityName"`
	UniversityImage     string          `json:"universityImage"`
	UniversityCountry   string          `json:"universityCountry"`
	SubjectCategory     string          `json:"subjectCategory"`
	ScholarshipCategory string          `json:"scholarshipCategory"`
	Degree              string          `json:"degree"`
	ApplicationFees     decimal.Decimal `json:"applicationFees"`
	Deadline            *time.Time      `json:"applicationDeadline,omitempty"`
	PostDate            time.Time       `json:"scholarshipPostDate"`
}

// Fee ordering accepted by ScholarshipFilter.Sort.
const (
	SortFeesAsc  = "asc"
	SortFeesDesc = "dsc"
)

// ScholarshipFilter narrows the catalog listing. Empty strings mean "no
// filter"; Limit 0 means unlimited.
type ScholarshipFilter struct {
	Limit    int
	Category string
	Subject  string
	Location string
	Search   string
	Sort     string
}
