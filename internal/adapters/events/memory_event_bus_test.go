package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
)

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, providers.EventChannelSurveys)
	require.NoError(t, err)

	event := entities.NewSurveyEvent(entities.SurveyEventSubmitted, "sub-1", nil)
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelSurveys, event))

	select {
	case got := <-ch:
		assert.Equal(t, event.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestMemoryEventBus_CancelClosesChannel(t *testing.T) {
	bus := NewMemoryEventBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, providers.EventChannelLocations)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryEventBus_OtherChannelsAreIsolated(t *testing.T) {
	bus := NewMemoryEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, providers.EventChannelLocations)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelSurveys,
		entities.NewSurveyEvent(entities.SurveyEventSubmitted, "sub-2", nil)))

	select {
	case <-ch:
		t.Fatal("unexpected event")
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, bus.Close())
}
