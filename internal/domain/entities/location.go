package entities

import "time"

// Location is a hospital ward, department or service area patients rate.
type Location struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	LocationType string    `json:"locationType" db:"location_type"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	SubmissionLocations []*SubmissionLocation `json:"submissionLocations,omitempty" db:"-"`
	Ratings             []*Rating             `json:"ratings,omitempty" db:"-"`
	DepartmentConcerns  []*DepartmentConcern  `json:"departmentConcerns,omitempty" db:"-"`
}
