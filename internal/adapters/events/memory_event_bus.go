package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
)

// MemoryEventBus is an in-process EventBus used when Redis is not configured.
type MemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.SurveyEvent]struct{}
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{subscribers: make(map[string]map[chan *entities.SurveyEvent]struct{})}
}

// Publish delivers event to the current subscribers of channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.SurveyEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers[channel] {
		select {
		case sub <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).
				Msg("Subscriber channel full, skipping event")
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SurveyEvent, error) {
	ch := make(chan *entities.SurveyEvent, 100)
	b.mu.Lock()
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.SurveyEvent]struct{})
	}
	b.subscribers[channel][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[channel][ch]; ok {
			delete(b.subscribers[channel], ch)
			close(ch)
		}
	}()
	return ch, nil
}

// Unsubscribe closes every subscriber of channel
func (b *MemoryEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers[channel] {
		close(ch)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close closes every subscriber
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for channel, subs := range b.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(b.subscribers, channel)
	}
	return nil
}
