package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
)

const sseHeartbeatInterval = 30 * time.Second

// SSEHandler streams survey and kiosk events to dashboards over
// Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration
	clients   map[string]map[chan *entities.SurveyEvent]bool // channel -> clients
	mu        sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		heartbeat: sseHeartbeatInterval,
		clients:   make(map[string]map[chan *entities.SurveyEvent]bool),
	}
}

// StreamSurveys handles GET /api/stream/surveys
func (h *SSEHandler) StreamSurveys(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelSurveys, map[string]interface{}{}, nil)
}

// StreamServicePoint handles GET /api/stream/service-points/{id}. Only
// events for that service point are sent.
func (h *SSEHandler) StreamServicePoint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "service point ID is required")
		return
	}

	h.stream(w, r, providers.EventChannelServicePoints, map[string]interface{}{
		"service_point_id": id,
	}, func(event *entities.SurveyEvent) bool {
		return event.EntityID == id
	})
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}, keep func(*entities.SurveyEvent) bool) {
	logger := observability.LoggerFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan *entities.SurveyEvent, 50)
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("Failed to subscribe to channel")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	hello["timestamp"] = time.Now()
	h.sendEvent(w, "connected", hello)
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan, keep)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("channel", channel).Msg("Client disconnected from stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents copies bus events to a client channel, dropping events
// when the client falls behind
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.SurveyEvent, clientChan chan<- *entities.SurveyEvent, keep func(*entities.SurveyEvent) bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if keep != nil && !keep(event) {
				continue
			}
			select {
			case clientChan <- event:
			default:
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.SurveyEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.SurveyEvent]bool)
	}
	h.clients[channel][clientChan] = true
}

func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.SurveyEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
