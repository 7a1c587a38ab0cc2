package entities

import "time"

// Rating holds the per-location answers of a submission. Every score is
// optional because the questions shown depend on the location type.
type Rating struct {
	ID                    int       `json:"id" db:"id"`
	SubmissionID          string    `json:"submissionId" db:"submission_id"`
	LocationID            int       `json:"locationId" db:"location_id"`
	Reception             *string   `json:"reception" db:"reception"`
	Professionalism       *string   `json:"professionalism" db:"professionalism"`
	Understanding         *string   `json:"understanding" db:"understanding"`
	PromptnessCare        *string   `json:"promptnessCare" db:"promptness_care"`
	PromptnessFeedback    *string   `json:"promptnessFeedback" db:"promptness_feedback"`
	Overall               *string   `json:"overall" db:"overall"`
	Admission             *string   `json:"admission" db:"admission"`
	NurseProfessionalism  *string   `json:"nurseProfessionalism" db:"nurse_professionalism"`
	DoctorProfessionalism *string   `json:"doctorProfessionalism" db:"doctor_professionalism"`
	Discharge             *string   `json:"discharge" db:"discharge"`
	FoodQuality           *string   `json:"foodQuality" db:"food_quality"`
	CreatedAt             time.Time `json:"createdAt" db:"created_at"`

	Submission *SurveySubmission `json:"submission,omitempty" db:"-"`
	Location   *Location         `json:"location,omitempty" db:"-"`
}
