package profile

import (
	"context"
	"errors"
	"log/slog"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"
	"trueconnect/pkg/sentinel"
)

// Landing destinations. The server decides where a signed-in client belongs
// so the client never has to infer privileges from local state.
const (
	RouteSignIn    = "/signin"
	RouteDashboard = "/dashboard"
	RouteAdmin     = "/admin"
)

// Route tells a client where to land after sign-in.
type Route struct {
	Destination string `json:"destination"`
	IsAdmin     bool   `json:"is_admin"`
}

// Service reads profiles for the authenticated surface.
type Service struct {
	profiles Store
	logger   *slog.Logger
}

func NewService(profiles Store, logger *slog.Logger) *Service {
	return &Service{profiles: profiles, logger: logger}
}

// Get returns the profile for userID.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*Profile, error) {
	prof, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeNotFound, "profile not found", err)
		}
		s.logger.ErrorContext(ctx, "profile lookup failed",
			"user_id", userID.String(), "error", err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "could not load profile", err)
	}
	return prof, nil
}

// IsAdmin reports whether userID holds the admin flag. A missing profile is
// not an error here: absent means not admin.
func (s *Service) IsAdmin(ctx context.Context, userID id.UserID) (bool, error) {
	prof, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return prof.IsAdmin, nil
}

// RouteFor resolves the landing destination for a signed-in user. Admins
// land on the review panel, everyone else on the dashboard.
func (s *Service) RouteFor(ctx context.Context, userID id.UserID) (Route, error) {
	prof, err := s.Get(ctx, userID)
	if err != nil {
		return Route{}, err
	}
	if prof.IsAdmin {
		return Route{Destination: RouteAdmin, IsAdmin: true}, nil
	}
	return Route{Destination: RouteDashboard}, nil
}
