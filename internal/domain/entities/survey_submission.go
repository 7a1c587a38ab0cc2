package entities

import "time"

// SurveySubmission is one completed patient experience survey.
type SurveySubmission struct {
	ID                 string    `json:"id" db:"id"`
	VisitTime          string    `json:"visitTime" db:"visit_time"`
	VisitPurpose       string    `json:"visitPurpose" db:"visit_purpose"`
	VisitedOtherPlaces bool      `json:"visitedOtherPlaces" db:"visited_other_places"`
	WouldRecommend     *bool     `json:"wouldRecommend" db:"would_recommend"`
	WhyNotRecommend    *string   `json:"whyNotRecommend" db:"why_not_recommend"`
	Recommendation     *string   `json:"recommendation" db:"recommendation"`
	UserType           string    `json:"userType" db:"user_type"`
	PatientType        string    `json:"patientType" db:"patient_type"`
	SubmittedAt        time.Time `json:"submittedAt" db:"submitted_at"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`

	// Relations, populated only when requested through Include.
	Locations          []*SubmissionLocation `json:"locations,omitempty" db:"-"`
	Ratings            []*Rating             `json:"ratings,omitempty" db:"-"`
	DepartmentConcerns []*DepartmentConcern  `json:"departmentConcerns,omitempty" db:"-"`
	GeneralObservation *GeneralObservation   `json:"generalObservation,omitempty" db:"-"`
}
