// Package handler exposes the account endpoints. Sign-up and sign-in are
// public; sign-out sits behind the auth middleware so the token being
// revoked is the one that authenticated the call.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"
	"trueconnect/pkg/platform/httputil"
	"trueconnect/pkg/platform/middleware"

	"trueconnect/internal/auth"
	"trueconnect/internal/profile"
)

// Service defines the account operations the handler depends on.
type Service interface {
	SignUp(ctx context.Context, creds auth.Credentials) (*profile.Profile, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context, userID id.UserID, jti string) error
}

// Handler wires account endpoints to the auth service.
type Handler struct {
	service  Service
	tokenTTL time.Duration
	logger   *slog.Logger
}

func New(service Service, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokenTTL: tokenTTL, logger: logger}
}

// Register mounts the public account endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/signup", h.HandleSignUp)
	r.Post("/auth/signin", h.HandleSignIn)
}

// RegisterProtected mounts the endpoints that need an authenticated caller.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/signout", h.HandleSignOut)
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HandleSignUp handles POST /auth/signup.
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.Decode[signUpRequest](w, r, h.logger)
	if !ok {
		return
	}

	prof, err := h.service.SignUp(ctx, auth.Credentials{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "sign-up refused",
			"request_id", requestID, "email", req.Email, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "account created",
		"request_id", requestID, "user_id", prof.UserID.String())
	httputil.WriteJSON(w, http.StatusCreated, prof.ToView())
}

// HandleSignIn handles POST /auth/signin.
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.Decode[signInRequest](w, r, h.logger)
	if !ok {
		return
	}

	token, err := h.service.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "sign-in refused",
			"request_id", requestID, "email", req.Email, "error", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
	})
}

// HandleSignOut handles POST /auth/signout. The bearer token on the request
// is revoked for the remainder of its lifetime.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	jti := middleware.GetJTI(ctx)
	if userID.IsNil() || jti == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if err := h.service.SignOut(ctx, userID, jti); err != nil {
		h.logger.ErrorContext(ctx, "sign-out failed",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", userID.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
