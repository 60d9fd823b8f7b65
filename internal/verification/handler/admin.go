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
	"trueconnect/internal/realtime"
	"trueconnect/internal/sse"
	"trueconnect/internal/verification"
)

// ReviewService defines the admin operations the handler depends on.
type ReviewService interface {
	Queue(ctx context.Context) ([]*verification.Request, error)
	Approve(ctx context.Context, adminID id.UserID, requestID id.RequestID) (*verification.Request, error)
	Reject(ctx context.Context, adminID id.UserID, requestID id.RequestID, reason string) (*verification.Request, error)
}

// Subscriber delivers change events for a channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan realtime.Event, func())
}

// AdminHandler wires the review panel endpoints.
type AdminHandler struct {
	service ReviewService
	events  Subscriber
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewAdmin(service ReviewService, events Subscriber, logger *slog.Logger, m *metrics.Metrics) *AdminHandler {
	return &AdminHandler{service: service, events: events, logger: logger, metrics: m}
}

// Register mounts the admin endpoints; the group must already require auth
// and the admin flag.
func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/admin/queue", h.HandleQueue)
	r.Get("/admin/queue/events", h.HandleQueueEvents)
	r.Post("/admin/requests/{requestID}/approve", h.HandleApprove)
	r.Post("/admin/requests/{requestID}/reject", h.HandleReject)
}

type queueResponse struct {
	Requests []verification.View `json:"requests"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandleQueue handles GET /admin/queue.
func (h *AdminHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.Queue(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views := make([]verification.View, 0, len(requests))
	for _, request := range requests {
		views = append(views, request.ToView())
	}
	httputil.WriteJSON(w, http.StatusOK, queueResponse{Requests: views})
}

// HandleQueueEvents handles GET /admin/queue/events. The stream opens with
// the current queue, then nudges on every change.
func (h *AdminHandler) HandleQueueEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Subscribe before reading the snapshot. A decision landing between
	// the two arrives as an event; the reverse order would lose it.
	events, cancel := h.events.Subscribe(ctx, realtime.QueueChannel)
	defer cancel()

	requests, err := h.service.Queue(ctx)
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

	views := make([]verification.View, 0, len(requests))
	for _, request := range requests {
		views = append(views, request.ToView())
	}
	if err := stream.SendSnapshot(realtime.KindQueueUpdated, queueResponse{Requests: views}); err != nil {
		return
	}

	h.logger.InfoContext(ctx, "queue stream opened",
		"request_id", middleware.GetRequestID(ctx),
		"admin_id", middleware.GetUserID(ctx).String(),
	)

	sse.Forward(ctx, stream, events)
}

// HandleApprove handles POST /admin/requests/{requestID}/approve.
func (h *AdminHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := middleware.GetUserID(ctx)

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, err := h.service.Approve(ctx, adminID, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification approved",
		"request_id", middleware.GetRequestID(ctx),
		"admin_id", adminID.String(),
		"verification_request_id", requestID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, request.ToView())
}

// HandleReject handles POST /admin/requests/{requestID}/reject. The body
// must carry a non-empty reason; the submitter will see it.
func (h *AdminHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := middleware.GetUserID(ctx)

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[rejectRequest](w, r, h.logger)
	if !ok {
		return
	}

	request, err := h.service.Reject(ctx, adminID, requestID, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification rejected",
		"request_id", middleware.GetRequestID(ctx),
		"admin_id", adminID.String(),
		"verification_request_id", requestID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, request.ToView())
}
