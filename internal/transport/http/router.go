// Package httptransport assembles the HTTP surface. Handlers stay thin and
// feature-owned; this package only decides which middleware guards which
// route group.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trueconnect/pkg/platform/middleware"

	authhandler "trueconnect/internal/auth/handler"
	"trueconnect/internal/platform/metrics"
	profilehandler "trueconnect/internal/profile/handler"
	verificationhandler "trueconnect/internal/verification/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Auth         *authhandler.Handler
	Profile      *profilehandler.Handler
	Verification *verificationhandler.Handler
	Admin        *verificationhandler.AdminHandler

	JWTValidator middleware.JWTValidator
	Revocation   middleware.TokenRevocationChecker
	AdminChecker middleware.AdminChecker

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Health http.HandlerFunc
}

// NewRouter wires all endpoints. Three groups: public, authenticated, and
// admin; the admin group stacks the admin check on top of auth.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", deps.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public: account creation and sign-in.
	deps.Auth.Register(r)

	requireAuth := middleware.RequireAuth(deps.JWTValidator, deps.Revocation, deps.Logger)

	// Authenticated: profile surface, submission, sign-out.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		deps.Auth.RegisterProtected(r)
		deps.Profile.Register(r)
		deps.Verification.Register(r)
	})

	// Admin: review queue and decisions.
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin(deps.AdminChecker, deps.Logger))
		deps.Admin.Register(r)
	})

	return r
}
