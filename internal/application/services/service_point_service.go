package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// CreateServicePointInput creates a service point. Unset toggles default to
// true.
type CreateServicePointInput struct {
	Name                  string `json:"name" validate:"required,max=200"`
	IsActive              *bool  `json:"is_active"`
	ShowRecommendQuestion *bool  `json:"show_recommend_question"`
	ShowCommentsBox       *bool  `json:"show_comments_box"`
}

// UpdateServicePointInput changes the fields that are set.
type UpdateServicePointInput struct {
	Name                  *string `json:"name" validate:"omitempty,min=1,max=200"`
	IsActive              *bool   `json:"is_active"`
	ShowRecommendQuestion *bool   `json:"show_recommend_question"`
	ShowCommentsBox       *bool   `json:"show_comments_box"`
}

// FeedbackInput is one rating left at a service point.
type FeedbackInput struct {
	Rating    int     `json:"rating" validate:"min=1,max=5"`
	Recommend *bool   `json:"recommend"`
	Comment   *string `json:"comment" validate:"omitempty,max=1000"`
}

// ServicePointStats summarises the feedback of one service point.
type ServicePointStats struct {
	ServicePointID int             `json:"service_point_id"`
	Count          int64           `json:"count"`
	AverageRating  *float64        `json:"average_rating"`
	MinRating      interface{}     `json:"min_rating"`
	MaxRating      interface{}     `json:"max_rating"`
	Distribution   map[int64]int64 `json:"distribution"`
	Recommend      RecommendCounts `json:"recommend"`
}

// RecommendCounts splits feedback by its answer to the recommend question.
type RecommendCounts struct {
	Yes        int64 `json:"yes"`
	No         int64 `json:"no"`
	Unanswered int64 `json:"unanswered"`
}

// ServicePointService manages kiosk service points and their feedback
type ServicePointService struct {
	servicePoints repositories.ServicePointRepository
	feedback      repositories.ServicePointFeedbackRepository
	index         providers.SearchIndex
	eventBus      providers.EventBus
}

// NewServicePointService creates a new service point service. index and
// eventBus may be nil.
func NewServicePointService(
	servicePoints repositories.ServicePointRepository,
	feedback repositories.ServicePointFeedbackRepository,
	index providers.SearchIndex,
	eventBus providers.EventBus,
) *ServicePointService {
	return &ServicePointService{
		servicePoints: servicePoints,
		feedback:      feedback,
		index:         index,
		eventBus:      eventBus,
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Create adds a service point.
func (s *ServicePointService) Create(ctx context.Context, in *CreateServicePointInput) (*entities.ServicePoint, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	sp, err := s.servicePoints.Create(ctx, &entities.ServicePoint{
		Name:                  strings.TrimSpace(in.Name),
		IsActive:              boolOr(in.IsActive, true),
		ShowRecommendQuestion: boolOr(in.ShowRecommendQuestion, true),
		ShowCommentsBox:       boolOr(in.ShowCommentsBox, true),
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, sp, "created")
	return sp, nil
}

// Update applies a partial update.
func (s *ServicePointService) Update(ctx context.Context, id int, in *UpdateServicePointInput) (*entities.ServicePoint, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	data := query.Data{}
	if in.Name != nil {
		data["name"] = strings.TrimSpace(*in.Name)
	}
	if in.IsActive != nil {
		data["is_active"] = *in.IsActive
	}
	if in.ShowRecommendQuestion != nil {
		data["show_recommend_question"] = *in.ShowRecommendQuestion
	}
	if in.ShowCommentsBox != nil {
		data["show_comments_box"] = *in.ShowCommentsBox
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("no fields to update")
	}

	sp, err := s.servicePoints.Update(ctx, query.ByID(id), data)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, sp, "updated")
	return sp, nil
}

// Get returns a service point by id.
func (s *ServicePointService) Get(ctx context.Context, id int) (*entities.ServicePoint, error) {
	return s.servicePoints.FindUniqueOrThrow(ctx, query.ByID(id))
}

// List returns service points ordered by name. With activeOnly, inactive
// points are left out.
func (s *ServicePointService) List(ctx context.Context, activeOnly bool) ([]*entities.ServicePoint, error) {
	args := query.FindArgs{OrderBy: query.OrderBy{query.Asc("name"), query.Asc("id")}}
	if activeOnly {
		args.Where = query.Where("is_active", query.Eq(true))
	}
	return s.servicePoints.FindMany(ctx, args)
}

// SubmitFeedback records feedback, honouring the service point's toggles:
// inactive points accept nothing, and recommend and comment are only
// accepted when the point shows that question.
func (s *ServicePointService) SubmitFeedback(ctx context.Context, servicePointID int, in *FeedbackInput) (*entities.ServicePointFeedback, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	sp, err := s.servicePoints.FindUniqueOrThrow(ctx, query.ByID(servicePointID))
	if err != nil {
		return nil, err
	}
	if !sp.IsActive {
		return nil, apperrors.NewValidationErrorf("service point %d is not accepting feedback", servicePointID)
	}
	if in.Recommend != nil && !sp.ShowRecommendQuestion {
		return nil, apperrors.NewValidationError("this service point does not ask the recommend question")
	}

	comment := in.Comment
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if trimmed == "" {
			comment = nil
		} else {
			comment = &trimmed
		}
	}
	if comment != nil && !sp.ShowCommentsBox {
		return nil, apperrors.NewValidationError("this service point does not accept comments")
	}

	fb, err := s.feedback.Create(ctx, &entities.ServicePointFeedback{
		ServicePointID: servicePointID,
		Rating:         in.Rating,
		Recommend:      in.Recommend,
		Comment:        comment,
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventBus, providers.EventChannelServicePoints,
		entities.NewSurveyEvent(entities.SurveyEventFeedbackReceived, strconv.Itoa(servicePointID), map[string]interface{}{
			"feedback_id": fb.ID,
			"rating":      fb.Rating,
		}))
	return fb, nil
}

// Feedback lists the feedback of a service point, newest first.
func (s *ServicePointService) Feedback(ctx context.Context, servicePointID int, args query.FindArgs) ([]*entities.ServicePointFeedback, error) {
	if _, err := s.servicePoints.FindUniqueOrThrow(ctx, query.ByID(servicePointID)); err != nil {
		return nil, err
	}
	if len(args.OrderBy) == 0 {
		args.OrderBy = query.OrderBy{query.Desc("created_at"), query.Desc("id")}
	}
	args.Take = clampTake(args.Take)
	return s.servicePoints.Feedback(ctx, servicePointID, args)
}

// Stats aggregates the ratings of a service point.
func (s *ServicePointService) Stats(ctx context.Context, servicePointID int) (*ServicePointStats, error) {
	if _, err := s.servicePoints.FindUniqueOrThrow(ctx, query.ByID(servicePointID)); err != nil {
		return nil, err
	}
	where := query.Where("service_point_id", query.Eq(servicePointID))

	agg, err := s.feedback.Aggregate(ctx, query.AggregateArgs{
		Where: where,
		Aggregates: query.Aggregates{
			Count: query.FieldSet{query.AllRows},
			Avg:   query.FieldSet{"rating"},
			Min:   query.FieldSet{"rating"},
			Max:   query.FieldSet{"rating"},
		},
	})
	if err != nil {
		return nil, err
	}

	stats := &ServicePointStats{
		ServicePointID: servicePointID,
		Count:          agg.Count[query.AllRows],
		AverageRating:  agg.Avg["rating"],
		MinRating:      agg.Min["rating"],
		MaxRating:      agg.Max["rating"],
		Distribution:   map[int64]int64{},
	}

	byRating, err := s.feedback.GroupBy(ctx, query.GroupByArgs{
		By:         query.FieldSet{"rating"},
		Where:      where,
		OrderBy:    query.OrderBy{query.Asc("rating")},
		Aggregates: query.Aggregates{Count: query.FieldSet{query.AllRows}},
	})
	if err != nil {
		return nil, err
	}
	for _, row := range byRating {
		if r, ok := row.Keys["rating"].(int64); ok {
			stats.Distribution[r] = row.Count[query.AllRows]
		}
	}

	byRecommend, err := s.feedback.GroupBy(ctx, query.GroupByArgs{
		By:         query.FieldSet{"recommend"},
		Where:      where,
		Aggregates: query.Aggregates{Count: query.FieldSet{query.AllRows}},
	})
	if err != nil {
		return nil, err
	}
	for _, row := range byRecommend {
		n := row.Count[query.AllRows]
		switch v := row.Keys["recommend"].(type) {
		case bool:
			if v {
				stats.Recommend.Yes += n
			} else {
				stats.Recommend.No += n
			}
		default:
			stats.Recommend.Unanswered += n
		}
	}
	return stats, nil
}

// Reindex writes every service point to the search index.
func (s *ServicePointService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	points, err := s.servicePoints.FindMany(ctx, query.FindArgs{OrderBy: query.OrderBy{query.Asc("id")}})
	if err != nil {
		return 0, err
	}
	if err := s.index.IndexServicePoints(ctx, points...); err != nil {
		return 0, err
	}
	return len(points), nil
}

func (s *ServicePointService) changed(ctx context.Context, sp *entities.ServicePoint, action string) {
	if s.index != nil {
		if err := s.index.IndexServicePoints(ctx, sp); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Int("service_point_id", sp.ID).Msg("Failed to index service point")
		}
	}
	publishEvent(ctx, s.eventBus, providers.EventChannelServicePoints,
		entities.NewSurveyEvent(entities.SurveyEventServicePointChanged, strconv.Itoa(sp.ID), map[string]interface{}{
			"action":    action,
			"is_active": sp.IsActive,
		}))
}
