// Package handler exposes the authenticated profile surface: the current
// profile, the landing route, and a live event stream. All three sit behind
// the auth middleware.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"
	"trueconnect/pkg/platform/httputil"
	"trueconnect/pkg/platform/middleware"

	"trueconnect/internal/platform/metrics"
	"trueconnect/internal/profile"
	"trueconnect/internal/realtime"
	"trueconnect/internal/sse"
)

// Service defines the profile reads the handler depends on.
type Service interface {
	Get(ctx context.Context, userID id.UserID) (*profile.Profile, error)
	RouteFor(ctx context.Context, userID id.UserID) (profile.Route, error)
}

// Subscriber delivers change events for a channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan realtime.Event, func())
}

// Handler wires the profile endpoints to the profile service and event hub.
type Handler struct {
	service Service
	events  Subscriber
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(service Service, events Subscriber, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{service: service, events: events, logger: logger, metrics: m}
}

// Register mounts the profile endpoints; the group must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleMe)
	r.Get("/me/route", h.HandleRoute)
	r.Get("/me/events", h.HandleEvents)
}

// HandleMe handles GET /me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	prof, err := h.service.Get(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prof.ToView())
}

// HandleRoute handles GET /me/route. The server, not the client, decides
// where a signed-in user lands.
func (h *Handler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	route, err := h.service.RouteFor(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, route)
}

// HandleEvents handles GET /me/events. The stream opens with a snapshot of
// the current profile, then forwards change events as they arrive, so a
// client that reconnects never misses the current state.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	// Subscribe before reading the snapshot. A write landing between the
	// two arrives as an event; the reverse order would lose it.
	events, cancel := h.events.Subscribe(ctx, realtime.ProfileChannel(userID))
	defer cancel()

	prof, err := h.service.Get(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stream, err := sse.Open(w)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	if h.metrics != nil {
		h.metrics.RealtimeSubscribers.Inc()
		defer h.metrics.RealtimeSubscribers.Dec()
	}

	if err := stream.SendSnapshot(realtime.KindProfileUpdated, prof.ToView()); err != nil {
		return
	}

	h.logger.InfoContext(ctx, "profile stream opened",
		"request_id", middleware.GetRequestID(ctx), "user_id", userID.String())

	sse.Forward(ctx, stream, events)
}
