package entities

import "time"

// ServicePointFeedback is a single rating left at a service point.
type ServicePointFeedback struct {
	ID             int       `json:"id" db:"id"`
	ServicePointID int       `json:"service_point_id" db:"service_point_id"`
	Rating         int       `json:"rating" db:"rating"`
	Recommend      *bool     `json:"recommend" db:"recommend"`
	Comment        *string   `json:"comment" db:"comment"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	ServicePoint *ServicePoint `json:"service_point,omitempty" db:"-"`
}
