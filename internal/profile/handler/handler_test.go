package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	id "trueconnect/pkg/domain"
	"trueconnect/pkg/platform/middleware"

	"trueconnect/internal/profile"
	"trueconnect/internal/realtime"
	"trueconnect/internal/verification/status"
)

// fakeSubscriber hands out a pre-filled, closed event channel so the stream
// handler drains it and returns.
type fakeSubscriber struct {
	events   []realtime.Event
	channels []string
}

func (f *fakeSubscriber) Subscribe(_ context.Context, channel string) (<-chan realtime.Event, func()) {
	f.channels = append(f.channels, channel)
	out := make(chan realtime.Event, len(f.events))
	for _, event := range f.events {
		out <- event
	}
	close(out)
	return out, func() {}
}

type ProfileHandlerSuite struct {
	suite.Suite
	store      *profile.InMemoryStore
	subscriber *fakeSubscriber
	router     chi.Router
	userID     id.UserID
}

func (s *ProfileHandlerSuite) SetupTest() {
	s.store = profile.NewInMemory()
	s.subscriber = &fakeSubscriber{}
	s.userID = id.NewUserID()

	s.Require().NoError(s.store.Create(context.Background(), &profile.Profile{
		UserID:      s.userID,
		Email:       "dana@example.com",
		DisplayName: "Dana",
		Status:      status.Pending,
		CreatedAt:   time.Now().UTC(),
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := profile.NewService(s.store, logger)

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.ContextKeyUserID, s.userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	New(svc, s.subscriber, logger, nil).Register(s.router)
}

func TestProfileHandlerSuite(t *testing.T) {
	suite.Run(t, new(ProfileHandlerSuite))
}

func (s *ProfileHandlerSuite) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ProfileHandlerSuite) TestMeReturnsProfileView() {
	w := s.get("/me")

	s.Equal(http.StatusOK, w.Code)

	var view profile.View
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&view))
	s.Equal(s.userID.String(), view.UserID)
	s.Equal("pending", view.Status)
}

func (s *ProfileHandlerSuite) TestRouteForRegularUser() {
	w := s.get("/me/route")

	s.Equal(http.StatusOK, w.Code)

	var route profile.Route
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&route))
	s.Equal(profile.RouteDashboard, route.Destination)
	s.False(route.IsAdmin)
}

func (s *ProfileHandlerSuite) TestRouteForAdmin() {
	prof, err := s.store.FindByID(context.Background(), s.userID)
	s.Require().NoError(err)
	prof.IsAdmin = true
	s.Require().NoError(s.store.Save(context.Background(), prof))

	w := s.get("/me/route")

	s.Equal(http.StatusOK, w.Code)

	var route profile.Route
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&route))
	s.Equal(profile.RouteAdmin, route.Destination)
	s.True(route.IsAdmin)
}

func (s *ProfileHandlerSuite) TestEventsStreamOpensWithSnapshot() {
	w := s.get("/me/events")

	s.Equal(http.StatusOK, w.Code)
	s.Equal("text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	s.Contains(body, "event: profile_updated\n")
	s.Contains(body, `"verification_status":"pending"`)

	s.Require().Len(s.subscriber.channels, 1)
	s.Equal(realtime.ProfileChannel(s.userID), s.subscriber.channels[0])
}

// orderRecorder captures the call sequence across the service and the
// subscriber.
type orderRecorder struct {
	calls []string
}

type orderedService struct {
	rec  *orderRecorder
	prof *profile.Profile
}

func (s orderedService) Get(context.Context, id.UserID) (*profile.Profile, error) {
	s.rec.calls = append(s.rec.calls, "get")
	return s.prof, nil
}

func (s orderedService) RouteFor(context.Context, id.UserID) (profile.Route, error) {
	return profile.Route{Destination: profile.RouteDashboard}, nil
}

type orderedSubscriber struct {
	rec *orderRecorder
}

func (s orderedSubscriber) Subscribe(context.Context, string) (<-chan realtime.Event, func()) {
	s.rec.calls = append(s.rec.calls, "subscribe")
	out := make(chan realtime.Event)
	close(out)
	return out, func() {}
}

func (s *ProfileHandlerSuite) TestEventsStreamSubscribesBeforeSnapshotRead() {
	rec := &orderRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	prof := &profile.Profile{
		UserID: s.userID, Email: "dana@example.com",
		Status: status.Pending, CreatedAt: time.Now().UTC(),
	}

	router := chi.NewRouter()
	New(orderedService{rec: rec, prof: prof}, orderedSubscriber{rec: rec}, logger, nil).Register(router)

	req := httptest.NewRequest(http.MethodGet, "/me/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	// A write landing between the two calls must show up as an event,
	// which only holds when the subscription exists before the read.
	s.Equal([]string{"subscribe", "get"}, rec.calls)
}

func (s *ProfileHandlerSuite) TestEventsStreamForwardsChanges() {
	payload, _ := json.Marshal(map[string]string{"verification_status": "verified"})
	s.subscriber.events = []realtime.Event{{
		Kind:      realtime.KindProfileUpdated,
		SubjectID: s.userID.String(),
		Payload:   payload,
		At:        time.Now().UTC(),
	}}

	w := s.get("/me/events")

	body := w.Body.String()
	s.Contains(body, `"verification_status":"verified"`)
}
