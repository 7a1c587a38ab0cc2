package services

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// SubmissionIncludes are the relations loaded by SurveyService.Get.
var SubmissionIncludes = []string{"locations", "ratings", "departmentConcerns", "generalObservation"}

// VisitedLocationInput is one location covered by a survey.
type VisitedLocationInput struct {
	LocationID int  `json:"locationId" validate:"gt=0"`
	IsPrimary  bool `json:"isPrimary"`
}

// RatingInput holds the answers given for one visited location.
type RatingInput struct {
	LocationID            int     `json:"locationId" validate:"gt=0"`
	Reception             *string `json:"reception" validate:"omitempty,max=50"`
	Professionalism       *string `json:"professionalism" validate:"omitempty,max=50"`
	Understanding         *string `json:"understanding" validate:"omitempty,max=50"`
	PromptnessCare        *string `json:"promptnessCare" validate:"omitempty,max=50"`
	PromptnessFeedback    *string `json:"promptnessFeedback" validate:"omitempty,max=50"`
	Overall               *string `json:"overall" validate:"omitempty,max=50"`
	Admission             *string `json:"admission" validate:"omitempty,max=50"`
	NurseProfessionalism  *string `json:"nurseProfessionalism" validate:"omitempty,max=50"`
	DoctorProfessionalism *string `json:"doctorProfessionalism" validate:"omitempty,max=50"`
	Discharge             *string `json:"discharge" validate:"omitempty,max=50"`
	FoodQuality           *string `json:"foodQuality" validate:"omitempty,max=50"`
}

// ConcernInput is a concern raised about a visited location.
type ConcernInput struct {
	LocationID int    `json:"locationId" validate:"gt=0"`
	Concern    string `json:"concern" validate:"required,max=2000"`
}

// GeneralObservationInput is the hospital-wide section of a survey.
type GeneralObservationInput struct {
	Cleanliness *string `json:"cleanliness" validate:"omitempty,max=50"`
	Facilities  *string `json:"facilities" validate:"omitempty,max=50"`
	Security    *string `json:"security" validate:"omitempty,max=50"`
	Overall     *string `json:"overall" validate:"omitempty,max=50"`
}

// SubmitSurveyInput is a complete survey as sent by the survey form.
type SubmitSurveyInput struct {
	VisitTime          string                   `json:"visitTime" validate:"required,max=100"`
	VisitPurpose       string                   `json:"visitPurpose" validate:"required,max=200"`
	VisitedOtherPlaces bool                     `json:"visitedOtherPlaces"`
	WouldRecommend     *bool                    `json:"wouldRecommend"`
	WhyNotRecommend    *string                  `json:"whyNotRecommend" validate:"omitempty,max=2000"`
	Recommendation     *string                  `json:"recommendation" validate:"omitempty,max=2000"`
	UserType           string                   `json:"userType" validate:"required,max=50"`
	PatientType        string                   `json:"patientType" validate:"required,max=50"`
	Locations          []VisitedLocationInput   `json:"locations" validate:"required,min=1,dive"`
	Ratings            []RatingInput            `json:"ratings" validate:"dive"`
	DepartmentConcerns []ConcernInput           `json:"departmentConcerns" validate:"dive"`
	GeneralObservation *GeneralObservationInput `json:"generalObservation"`
}

// Validate checks field constraints and the cross-field rules: exactly one
// primary location, no location listed twice, and ratings and concerns only
// for visited locations.
func (in *SubmitSurveyInput) Validate() error {
	if err := validateInput(in); err != nil {
		return err
	}

	visited := make(map[int]bool, len(in.Locations))
	primaries := 0
	for _, l := range in.Locations {
		if visited[l.LocationID] {
			return apperrors.NewValidationErrorf("location %d is listed more than once", l.LocationID)
		}
		visited[l.LocationID] = true
		if l.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		return apperrors.NewValidationErrorf("exactly one primary location is required, got %d", primaries)
	}

	rated := make(map[int]bool, len(in.Ratings))
	for _, r := range in.Ratings {
		if !visited[r.LocationID] {
			return apperrors.NewValidationErrorf("rating for location %d which was not visited", r.LocationID)
		}
		if rated[r.LocationID] {
			return apperrors.NewValidationErrorf("location %d is rated more than once", r.LocationID)
		}
		rated[r.LocationID] = true
	}
	for _, c := range in.DepartmentConcerns {
		if !visited[c.LocationID] {
			return apperrors.NewValidationErrorf("concern for location %d which was not visited", c.LocationID)
		}
	}
	return nil
}

// SurveyService records and reports on patient surveys
type SurveyService struct {
	store    repositories.SurveyStore
	surveys  repositories.SurveyRepositories
	eventBus providers.EventBus
}

// NewSurveyService creates a new survey service. eventBus may be nil.
func NewSurveyService(store repositories.SurveyStore, eventBus providers.EventBus) *SurveyService {
	return &SurveyService{store: store, surveys: store.Surveys(), eventBus: eventBus}
}

// Submit stores a survey and all of its sections in one transaction and
// returns it with every relation loaded.
func (s *SurveyService) Submit(ctx context.Context, in *SubmitSurveyInput) (*entities.SurveySubmission, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var submission *entities.SurveySubmission
	err := s.store.SurveyTransaction(ctx, func(ctx context.Context, tx repositories.SurveyRepositories) error {
		created, err := tx.Submissions.Create(ctx, &entities.SurveySubmission{
			VisitTime:          in.VisitTime,
			VisitPurpose:       in.VisitPurpose,
			VisitedOtherPlaces: in.VisitedOtherPlaces,
			WouldRecommend:     in.WouldRecommend,
			WhyNotRecommend:    in.WhyNotRecommend,
			Recommendation:     in.Recommendation,
			UserType:           in.UserType,
			PatientType:        in.PatientType,
		})
		if err != nil {
			return err
		}

		locations := make([]*entities.SubmissionLocation, 0, len(in.Locations))
		for _, l := range in.Locations {
			locations = append(locations, &entities.SubmissionLocation{
				SubmissionID: created.ID,
				LocationID:   l.LocationID,
				IsPrimary:    l.IsPrimary,
			})
		}
		if _, err := tx.SubmissionLocations.CreateMany(ctx, locations, false); err != nil {
			return err
		}

		if len(in.Ratings) > 0 {
			ratings := make([]*entities.Rating, 0, len(in.Ratings))
			for _, r := range in.Ratings {
				ratings = append(ratings, ratingFromInput(created.ID, r))
			}
			if _, err := tx.Ratings.CreateMany(ctx, ratings, false); err != nil {
				return err
			}
		}

		if len(in.DepartmentConcerns) > 0 {
			concerns := make([]*entities.DepartmentConcern, 0, len(in.DepartmentConcerns))
			for _, c := range in.DepartmentConcerns {
				concerns = append(concerns, &entities.DepartmentConcern{
					SubmissionID: created.ID,
					LocationID:   c.LocationID,
					Concern:      c.Concern,
				})
			}
			if _, err := tx.DepartmentConcerns.CreateMany(ctx, concerns, false); err != nil {
				return err
			}
		}

		if g := in.GeneralObservation; g != nil {
			if _, err := tx.GeneralObservations.Create(ctx, &entities.GeneralObservation{
				SubmissionID: created.ID,
				Cleanliness:  g.Cleanliness,
				Facilities:   g.Facilities,
				Security:     g.Security,
				Overall:      g.Overall,
			}); err != nil {
				return err
			}
		}

		submission, err = tx.Submissions.FindUniqueOrThrow(ctx, query.ByID(created.ID), SubmissionIncludes...)
		return err
	})
	if err != nil {
		return nil, err
	}

	primary := 0
	for _, l := range in.Locations {
		if l.IsPrimary {
			primary = l.LocationID
		}
	}
	s.publish(ctx, entities.NewSurveyEvent(entities.SurveyEventSubmitted, submission.ID, map[string]interface{}{
		"primary_location_id": primary,
		"location_count":      len(in.Locations),
		"patient_type":        submission.PatientType,
	}))

	observability.LoggerFromContext(ctx).Info().
		Str("submission_id", submission.ID).
		Int("locations", len(in.Locations)).
		Msg("Survey submitted")
	return submission, nil
}

func ratingFromInput(submissionID string, r RatingInput) *entities.Rating {
	return &entities.Rating{
		SubmissionID:          submissionID,
		LocationID:            r.LocationID,
		Reception:             r.Reception,
		Professionalism:       r.Professionalism,
		Understanding:         r.Understanding,
		PromptnessCare:        r.PromptnessCare,
		PromptnessFeedback:    r.PromptnessFeedback,
		Overall:               r.Overall,
		Admission:             r.Admission,
		NurseProfessionalism:  r.NurseProfessionalism,
		DoctorProfessionalism: r.DoctorProfessionalism,
		Discharge:             r.Discharge,
		FoodQuality:           r.FoodQuality,
	}
}

// Get returns a submission with every relation loaded.
func (s *SurveyService) Get(ctx context.Context, id string) (*entities.SurveySubmission, error) {
	return s.surveys.Submissions.FindUniqueOrThrow(ctx, query.ByID(id), SubmissionIncludes...)
}

// List returns submissions matching args, newest first unless args orders
// otherwise. Page size defaults to 50 and is capped at 200.
func (s *SurveyService) List(ctx context.Context, args query.FindArgs) ([]*entities.SurveySubmission, error) {
	if len(args.OrderBy) == 0 {
		args.OrderBy = query.OrderBy{query.Desc("submittedAt")}
	}
	args.Take = clampTake(args.Take)
	return s.surveys.Submissions.FindMany(ctx, args)
}

// Delete removes a submission together with its sections.
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	deleted, err := s.surveys.Submissions.Delete(ctx, query.ByID(id))
	if err != nil {
		return err
	}
	s.publish(ctx, entities.NewSurveyEvent(entities.SurveyEventDeleted, deleted.ID, nil))
	return nil
}

// RatingSummary counts ratings per location and overall score. A
// locationID of zero summarises every location.
func (s *SurveyService) RatingSummary(ctx context.Context, locationID int) ([]query.GroupRow, error) {
	args := query.GroupByArgs{
		By:         query.FieldSet{"locationId", "overall"},
		OrderBy:    query.OrderBy{query.Asc("locationId"), query.Asc("overall")},
		Aggregates: query.Aggregates{Count: query.FieldSet{query.AllRows}},
	}
	if locationID > 0 {
		args.Where = query.Where("locationId", query.Eq(locationID))
	}
	return s.surveys.Ratings.GroupBy(ctx, args)
}

// GroupRatings runs a caller supplied groupBy over ratings.
func (s *SurveyService) GroupRatings(ctx context.Context, args query.GroupByArgs) ([]query.GroupRow, error) {
	return s.surveys.Ratings.GroupBy(ctx, args)
}

func (s *SurveyService) publish(ctx context.Context, event *entities.SurveyEvent) {
	publishEvent(ctx, s.eventBus, providers.EventChannelSurveys, event)
}

// publishEvent delivers event after a committed change. Failures are logged
// and do not fail the change.
func publishEvent(ctx context.Context, bus providers.EventBus, channel string, event *entities.SurveyEvent) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, channel, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("channel", channel).
			Str("event_type", string(event.EventType)).
			Msg("Failed to publish event")
	}
}

func clampTake(take *int) *int {
	if take == nil {
		return query.TakeN(defaultPageSize)
	}
	switch {
	case *take > maxPageSize:
		return query.TakeN(maxPageSize)
	case *take < -maxPageSize:
		return query.TakeN(-maxPageSize)
	}
	return take
}
