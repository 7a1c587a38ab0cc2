package entities

import (
	"time"

	"github.com/google/uuid"
)

// SurveyEventType represents the type of survey event
type SurveyEventType string

const (
	SurveyEventSubmitted           SurveyEventType = "survey.submitted"
	SurveyEventDeleted             SurveyEventType = "survey.deleted"
	SurveyEventLocationChanged     SurveyEventType = "location.changed"
	SurveyEventServicePointChanged SurveyEventType = "service_point.changed"
	SurveyEventFeedbackReceived    SurveyEventType = "service_point.feedback"
)

// SurveyEvent is published on the event bus after a committed change.
type SurveyEvent struct {
	ID        string                 `json:"id"`
	EventType SurveyEventType        `json:"event_type"`
	EntityID  string                 `json:"entity_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewSurveyEvent creates a new survey event
func NewSurveyEvent(eventType SurveyEventType, entityID string, data map[string]interface{}) *SurveyEvent {
	return &SurveyEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
