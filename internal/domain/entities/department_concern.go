package entities

import "time"

// DepartmentConcern is a free-text concern raised about a location.
type DepartmentConcern struct {
	ID           int       `json:"id" db:"id"`
	SubmissionID string    `json:"submissionId" db:"submission_id"`
	LocationID   int       `json:"locationId" db:"location_id"`
	Concern      string    `json:"concern" db:"concern"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	Submission *SurveySubmission `json:"submission,omitempty" db:"-"`
	Location   *Location         `json:"location,omitempty" db:"-"`
}
