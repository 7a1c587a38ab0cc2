package entities

import "time"

// SubmissionLocation records that a submission covered a location.
type SubmissionLocation struct {
	ID           int       `json:"id" db:"id"`
	SubmissionID string    `json:"submissionId" db:"submission_id"`
	LocationID   int       `json:"locationId" db:"location_id"`
	IsPrimary    bool      `json:"isPrimary" db:"is_primary"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	Submission *SurveySubmission `json:"submission,omitempty" db:"-"`
	Location   *Location         `json:"location,omitempty" db:"-"`
}
