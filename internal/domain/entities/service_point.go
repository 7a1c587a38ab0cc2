package entities

import "time"

// ServicePoint is a kiosk-style feedback point (pharmacy window, billing desk).
type ServicePoint struct {
	ID                    int       `json:"id" db:"id"`
	Name                  string    `json:"name" db:"name"`
	IsActive              bool      `json:"is_active" db:"is_active"`
	ShowRecommendQuestion bool      `json:"show_recommend_question" db:"show_recommend_question"`
	ShowCommentsBox       bool      `json:"show_comments_box" db:"show_comments_box"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`

	Feedback []*ServicePointFeedback `json:"feedback,omitempty" db:"-"`
}
