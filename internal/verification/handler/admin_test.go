package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"

	"trueconnect/internal/realtime"
	"trueconnect/internal/verification"
	"trueconnect/internal/verification/handler/mocks"
	"trueconnect/internal/verification/status"
)

type AdminHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockReviewService
	events  *mocks.MockSubscriber
	router  chi.Router
	adminID id.UserID
}

func (s *AdminHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockReviewService(s.ctrl)
	s.events = mocks.NewMockSubscriber(s.ctrl)
	s.adminID = id.NewUserID()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	s.router.Use(withUser(s.adminID))
	NewAdmin(s.service, s.events, logger, nil).Register(s.router)
}

func (s *AdminHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func pendingRequest() *verification.Request {
	return &verification.Request{
		ID:          id.NewRequestID(),
		UserID:      id.NewUserID(),
		UserEmail:   "dana@example.com",
		UserName:    "Dana",
		DocumentURL: "https://cdn.example.com/id-documents/x/passport.png",
		FileName:    "passport.png",
		Status:      status.RequestPending,
		SubmittedAt: time.Now().UTC(),
	}
}

func (s *AdminHandlerSuite) TestQueueReturnsPendingRequests() {
	request := pendingRequest()
	s.service.EXPECT().Queue(gomock.Any()).Return([]*verification.Request{request}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/queue", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var body struct {
		Requests []verification.View `json:"requests"`
	}
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Require().Len(body.Requests, 1)
	s.Equal(request.ID.String(), body.Requests[0].ID)
	s.Equal("dana@example.com", body.Requests[0].UserEmail)
}

func (s *AdminHandlerSuite) TestQueueEmptyIsAnEmptyList() {
	s.service.EXPECT().Queue(gomock.Any()).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/queue", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"requests":[]}`, w.Body.String())
}

func (s *AdminHandlerSuite) TestQueueEventsSubscribesBeforeSnapshotRead() {
	events := make(chan realtime.Event)
	close(events)

	// A decision landing between the two calls must show up as an event,
	// which only holds when the subscription exists before the read.
	gomock.InOrder(
		s.events.EXPECT().
			Subscribe(gomock.Any(), realtime.QueueChannel).
			Return((<-chan realtime.Event)(events), func() {}),
		s.service.EXPECT().Queue(gomock.Any()).Return(nil, nil),
	)

	req := httptest.NewRequest(http.MethodGet, "/admin/queue/events", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Equal("text/event-stream", w.Header().Get("Content-Type"))
	s.Contains(w.Body.String(), `"requests":[]`)
}

func (s *AdminHandlerSuite) TestApproveReturnsProcessedRequest() {
	request := pendingRequest()
	now := time.Now().UTC()
	processed := *request
	processed.Status = status.RequestApproved
	processed.ProcessedAt = &now

	s.service.EXPECT().
		Approve(gomock.Any(), s.adminID, request.ID).
		Return(&processed, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/requests/"+request.ID.String()+"/approve", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var view verification.View
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&view))
	s.Equal("approved", view.Status)
}

func (s *AdminHandlerSuite) TestApproveMalformedIDIsBadRequest() {
	req := httptest.NewRequest(http.MethodPost, "/admin/requests/not-a-uuid/approve", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AdminHandlerSuite) TestRejectPassesReason() {
	request := pendingRequest()
	now := time.Now().UTC()
	processed := *request
	processed.Status = status.RequestRejected
	processed.AdminComment = "document is unreadable"
	processed.ProcessedAt = &now

	s.service.EXPECT().
		Reject(gomock.Any(), s.adminID, request.ID, "document is unreadable").
		Return(&processed, nil)

	body, _ := json.Marshal(map[string]string{"reason": "document is unreadable"})
	req := httptest.NewRequest(http.MethodPost, "/admin/requests/"+request.ID.String()+"/reject", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)

	var view verification.View
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&view))
	s.Equal("rejected", view.Status)
	s.Equal("document is unreadable", view.AdminComment)
}

func (s *AdminHandlerSuite) TestRejectEmptyReasonIsBadRequest() {
	request := pendingRequest()
	s.service.EXPECT().
		Reject(gomock.Any(), s.adminID, request.ID, "").
		Return(nil, dErrors.New(dErrors.CodeInvalidInput, "Please provide a reason for rejection"))

	body, _ := json.Marshal(map[string]string{"reason": ""})
	req := httptest.NewRequest(http.MethodPost, "/admin/requests/"+request.ID.String()+"/reject", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AdminHandlerSuite) TestProcessedRequestConflicts() {
	request := pendingRequest()
	s.service.EXPECT().
		Approve(gomock.Any(), s.adminID, request.ID).
		Return(nil, dErrors.New(dErrors.CodeConflict, "this request has already been processed"))

	req := httptest.NewRequest(http.MethodPost, "/admin/requests/"+request.ID.String()+"/approve", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusConflict, w.Code)
}
