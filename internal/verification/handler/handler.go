// Package handler exposes the verification endpoints: document submission
// for users, and the review queue for administrators. The submission body is
// multipart form data; type and size are checked before anything is stored.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"
	"trueconnect/pkg/platform/httputil"
	"trueconnect/pkg/platform/middleware"

	"trueconnect/internal/verification"
)

// maxRequestSize caps the whole multipart body: the document limit plus
// headroom for part boundaries and headers.
const maxRequestSize = verification.MaxDocumentSize + 64<<10

// SubmitService defines the submission operation the handler depends on.
type SubmitService interface {
	Submit(ctx context.Context, userID id.UserID, doc verification.Document) (*verification.Request, error)
}

// Handler wires the user-facing submission endpoint.
type Handler struct {
	service SubmitService
	logger  *slog.Logger
}

func New(service SubmitService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the submission endpoint; the group must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/submit", h.HandleSubmit)
}

// HandleSubmit handles POST /verification/submit. The document arrives as
// the "document" part of a multipart form.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	requestID := middleware.GetRequestID(ctx)

	doc, err := decodeDocument(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "submission body refused",
			"request_id", requestID, "user_id", userID.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}

	request, err := h.service.Submit(ctx, userID, doc)
	if err != nil {
		h.logger.WarnContext(ctx, "submission refused",
			"request_id", requestID, "user_id", userID.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification submitted",
		"request_id", requestID,
		"user_id", userID.String(),
		"verification_request_id", request.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, request.ToView())
}

// decodeDocument pulls the uploaded file out of the multipart body. The body
// reader is capped, so an oversized upload fails while reading instead of
// buffering unbounded data.
func decodeDocument(w http.ResponseWriter, r *http.Request) (verification.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	if err := r.ParseMultipartForm(maxRequestSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return verification.Document{}, dErrors.New(dErrors.CodeInvalidInput, "File size must be less than 5MB")
		}
		return verification.Document{}, dErrors.Wrap(dErrors.CodeInvalidInput, "Please select an ID file first!", err)
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		return verification.Document{}, dErrors.Wrap(dErrors.CodeInvalidInput, "Please select an ID file first!", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return verification.Document{}, dErrors.Wrap(dErrors.CodeInvalidInput, "could not read the uploaded file", err)
	}

	contentType := header.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}

	return verification.Document{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
