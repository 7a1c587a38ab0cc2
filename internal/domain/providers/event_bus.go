package providers

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SurveyEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SurveyEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// Event channels
const (
	// EventChannelSurveys carries submitted and deleted surveys
	EventChannelSurveys = "surveys:updates"

	// EventChannelLocations carries location changes
	EventChannelLocations = "locations:updates"

	// EventChannelServicePoints carries service point changes and new feedback
	EventChannelServicePoints = "service_points:updates"
)
