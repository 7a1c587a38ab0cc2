package handlers_test

import (
	"context"
	"sync"

	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

// MockEventBus delivers published events to in-process subscribers.
type MockEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *entities.SurveyEvent
	published   []*entities.SurveyEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.SurveyEvent),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.SurveyEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	channels := append([]chan *entities.SurveyEvent(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SurveyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.SurveyEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = make(map[string][]chan *entities.SurveyEvent)
	m.mu.Unlock()
	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	return nil
}

func (m *MockEventBus) SubscriberCount(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[channel])
}

type stubSurveyService struct {
	submitted []*services.SubmitSurveyInput
	listArgs  []query.FindArgs
	groupArgs []query.GroupByArgs
	err       error
	rows      []*entities.SurveySubmission
	groups    []query.GroupRow
}

func (s *stubSurveyService) Submit(ctx context.Context, in *services.SubmitSurveyInput) (*entities.SurveySubmission, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.submitted = append(s.submitted, in)
	return &entities.SurveySubmission{ID: "s-1", VisitTime: in.VisitTime, PatientType: in.PatientType}, nil
}

func (s *stubSurveyService) Get(ctx context.Context, id string) (*entities.SurveySubmission, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entities.SurveySubmission{ID: id}, nil
}

func (s *stubSurveyService) List(ctx context.Context, args query.FindArgs) ([]*entities.SurveySubmission, error) {
	s.listArgs = append(s.listArgs, args)
	return s.rows, s.err
}

func (s *stubSurveyService) Delete(ctx context.Context, id string) error {
	return s.err
}

func (s *stubSurveyService) RatingSummary(ctx context.Context, locationID int) ([]query.GroupRow, error) {
	return s.groups, s.err
}

func (s *stubSurveyService) GroupRatings(ctx context.Context, args query.GroupByArgs) ([]query.GroupRow, error) {
	s.groupArgs = append(s.groupArgs, args)
	return s.groups, s.err
}

type stubLocationService struct {
	err         error
	searchText  string
	searchLimit int
	listType    string
}

func (s *stubLocationService) Create(ctx context.Context, in *services.LocationInput) (*entities.Location, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Location{ID: 1, Name: in.Name, LocationType: in.LocationType}, nil
}

func (s *stubLocationService) Update(ctx context.Context, id int, in *services.LocationInput) (*entities.Location, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Location{ID: id, Name: in.Name, LocationType: in.LocationType}, nil
}

func (s *stubLocationService) Delete(ctx context.Context, id int) error {
	return s.err
}

func (s *stubLocationService) Get(ctx context.Context, id int) (*entities.Location, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Location{ID: id, Name: "Laboratory"}, nil
}

func (s *stubLocationService) List(ctx context.Context, locationType string) ([]*entities.Location, error) {
	s.listType = locationType
	return []*entities.Location{{ID: 1, Name: "Laboratory", LocationType: locationType}}, s.err
}

func (s *stubLocationService) Ratings(ctx context.Context, id int, args query.FindArgs) ([]*entities.Rating, error) {
	return nil, s.err
}

func (s *stubLocationService) Search(ctx context.Context, text string, limit int) ([]*entities.Location, error) {
	s.searchText = text
	s.searchLimit = limit
	return []*entities.Location{{ID: 2, Name: "Pharmacy"}}, s.err
}

type stubServicePointService struct {
	mu       sync.Mutex
	feedback []*services.FeedbackInput
	err      error
}

func (s *stubServicePointService) Create(ctx context.Context, in *services.CreateServicePointInput) (*entities.ServicePoint, error) {
	return &entities.ServicePoint{ID: 1, Name: in.Name, IsActive: true}, s.err
}

func (s *stubServicePointService) Update(ctx context.Context, id int, in *services.UpdateServicePointInput) (*entities.ServicePoint, error) {
	return &entities.ServicePoint{ID: id}, s.err
}

func (s *stubServicePointService) Get(ctx context.Context, id int) (*entities.ServicePoint, error) {
	return &entities.ServicePoint{ID: id}, s.err
}

func (s *stubServicePointService) List(ctx context.Context, activeOnly bool) ([]*entities.ServicePoint, error) {
	return nil, s.err
}

func (s *stubServicePointService) SubmitFeedback(ctx context.Context, servicePointID int, in *services.FeedbackInput) (*entities.ServicePointFeedback, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, in)
	return &entities.ServicePointFeedback{ID: len(s.feedback), ServicePointID: servicePointID, Rating: in.Rating}, nil
}

func (s *stubServicePointService) Feedback(ctx context.Context, servicePointID int, args query.FindArgs) ([]*entities.ServicePointFeedback, error) {
	return nil, s.err
}

func (s *stubServicePointService) Stats(ctx context.Context, servicePointID int) (*services.ServicePointStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.ServicePointStats{ServicePointID: servicePointID, Count: 3}, nil
}

func (s *stubServicePointService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feedback)
}
