package entities

import "time"

// GeneralObservation is the optional hospital-wide section of a submission.
type GeneralObservation struct {
	ID           int       `json:"id" db:"id"`
	SubmissionID string    `json:"submissionId" db:"submission_id"`
	Cleanliness  *string   `json:"cleanliness" db:"cleanliness"`
	Facilities   *string   `json:"facilities" db:"facilities"`
	Security     *string   `json:"security" db:"security"`
	Overall      *string   `json:"overall" db:"overall"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`

	Submission *SurveySubmission `json:"submission,omitempty" db:"-"`
}
