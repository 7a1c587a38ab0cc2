package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zatekoja/patientsurvey/internal/api/loaders"
	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
)

const (
	feedbackRateLimit   = 5
	feedbackRateWindow  = time.Hour
	feedbackDedupWindow = 24 * time.Hour
)

// ServicePointService defines the service point operations used by the handler.
type ServicePointService interface {
	Create(ctx context.Context, in *services.CreateServicePointInput) (*entities.ServicePoint, error)
	Update(ctx context.Context, id int, in *services.UpdateServicePointInput) (*entities.ServicePoint, error)
	Get(ctx context.Context, id int) (*entities.ServicePoint, error)
	List(ctx context.Context, activeOnly bool) ([]*entities.ServicePoint, error)
	SubmitFeedback(ctx context.Context, servicePointID int, in *services.FeedbackInput) (*entities.ServicePointFeedback, error)
	Feedback(ctx context.Context, servicePointID int, args query.FindArgs) ([]*entities.ServicePointFeedback, error)
	Stats(ctx context.Context, servicePointID int) (*services.ServicePointStats, error)
}

// ServicePointHandler handles kiosk service points and the feedback left at
// them. Feedback is throttled per client IP and repeated submissions are
// ignored; both use the shared cache when one is configured.
type ServicePointHandler struct {
	service ServicePointService
	cache   providers.CacheProvider
	local   *localRateLimiter
	deduper *localDeduper
}

// NewServicePointHandler creates a new service point handler. cache may be nil.
func NewServicePointHandler(service ServicePointService, cache providers.CacheProvider) *ServicePointHandler {
	return &ServicePointHandler{
		service: service,
		cache:   cache,
		local:   newLocalRateLimiter(),
		deduper: newLocalDeduper(),
	}
}

// ListServicePoints handles GET /api/service-points?active=true
func (h *ServicePointHandler) ListServicePoints(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	points, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"service_points": points,
		"count":          len(points),
	})
}

// GetServicePoint handles GET /api/service-points/{id}
func (h *ServicePointHandler) GetServicePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	sp, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sp)
}

// CreateServicePoint handles POST /api/service-points
func (h *ServicePointHandler) CreateServicePoint(w http.ResponseWriter, r *http.Request) {
	var in services.CreateServicePointInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	sp, err := h.service.Create(r.Context(), &in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sp)
}

// UpdateServicePoint handles PATCH /api/service-points/{id}
func (h *ServicePointHandler) UpdateServicePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var in services.UpdateServicePointInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	sp, err := h.service.Update(r.Context(), id, &in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sp)
}

// SubmitFeedback handles POST /api/service-points/{id}/feedback
func (h *ServicePointHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var in services.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	ip := clientIP(r)
	allowed, retryAfter := h.allowRequest(r.Context(), "feedback:rate:"+ip)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	dupKey := "feedback:dup:" + feedbackFingerprint(id, &in, ip)
	if h.isDuplicate(r.Context(), dupKey) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	feedback, err := h.service.SubmitFeedback(r.Context(), id, &in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	// Only stored feedback counts as seen, so a failed submit can be retried.
	h.rememberFeedback(r.Context(), dupKey)
	respondWithJSON(w, http.StatusCreated, feedback)
}

// ListFeedback handles GET /api/service-points/{id}/feedback?take=&skip=&include=service_point
func (h *ServicePointHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	args := query.FindArgs{}
	take, err := queryInt(r, "take")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	args.Take = take
	if skip, err := queryInt(r, "skip"); err != nil {
		respondWithAppError(w, r, err)
		return
	} else if skip != nil {
		args.Skip = *skip
	}

	feedback, err := h.service.Feedback(r.Context(), id, args)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if r.URL.Query().Get("include") == "service_point" {
		if err := loaders.AttachServicePoints(r.Context(), feedback); err != nil {
			respondWithAppError(w, r, err)
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"service_point_id": id,
		"feedback":         feedback,
		"count":            len(feedback),
	})
}

// GetStats handles GET /api/service-points/{id}/stats
func (h *ServicePointHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	stats, err := h.service.Stats(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

func (h *ServicePointHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key, feedbackRateLimit, feedbackRateWindow)
	}

	n, err := h.cache.Increment(ctx, key, int(feedbackRateWindow.Seconds()))
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Rate limit cache unavailable, using local limiter")
		return h.local.allow(key, feedbackRateLimit, feedbackRateWindow)
	}
	if n > feedbackRateLimit {
		return false, feedbackRateWindow
	}
	return true, feedbackRateWindow
}

func (h *ServicePointHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.deduper.seen(key)
	}

	exists, err := h.cache.Exists(ctx, key)
	if err != nil {
		return h.deduper.seen(key)
	}
	return exists
}

func (h *ServicePointHandler) rememberFeedback(ctx context.Context, key string) {
	if h.cache == nil {
		h.deduper.mark(key, feedbackDedupWindow)
		return
	}

	if err := h.cache.Set(ctx, key, []byte("1"), int(feedbackDedupWindow.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Dedup cache unavailable, using local deduper")
		h.deduper.mark(key, feedbackDedupWindow)
	}
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

type localDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) seen(key string) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, expiresAt := range d.entries {
		if now.After(expiresAt) {
			delete(d.entries, k)
		}
	}
	expiresAt, ok := d.entries[key]
	return ok && now.Before(expiresAt)
}

func (d *localDeduper) mark(key string, window time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[key] = time.Now().Add(window)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func feedbackFingerprint(servicePointID int, in *services.FeedbackInput, ip string) string {
	recommend := "-"
	if in.Recommend != nil {
		recommend = strconv.FormatBool(*in.Recommend)
	}
	comment := ""
	if in.Comment != nil {
		comment = normalizeComment(*in.Comment)
	}

	hash := sha256.Sum256([]byte(strings.Join([]string{
		strconv.Itoa(servicePointID),
		strconv.Itoa(in.Rating),
		recommend,
		comment,
		ip,
	}, "|")))
	return hex.EncodeToString(hash[:])
}

func normalizeComment(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
