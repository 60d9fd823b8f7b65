package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	id "trueconnect/pkg/domain"
	dErrors "trueconnect/pkg/domainerrors"
	"trueconnect/pkg/platform/tx"
	"trueconnect/pkg/sentinel"

	"trueconnect/internal/platform/audit"
	"trueconnect/internal/platform/metrics"
	"trueconnect/internal/profile"
	"trueconnect/internal/verification/status"
)

const minPasswordLength = 6

// Fixed user-facing messages; underlying causes are logged, never shown raw.
const (
	msgAccountNotFound = "No account found with this email. Please sign up instead."
	msgBadPassword     = "Incorrect password. Please try again."
	msgEmailTaken      = "An account with this email already exists. Please sign in instead."
	msgWeakPassword    = "Password should be at least 6 characters."
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, expiresIn time.Duration) (string, error)
}

// Revoker invalidates a token until its natural expiry.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Service owns the account lifecycle: sign-up, sign-in, sign-out.
type Service struct {
	users      UserStore
	profiles   profile.Store
	txRunner   tx.Runner
	tokens     TokenIssuer
	revocation Revoker
	tokenTTL   time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      audit.Recorder
}

func NewService(
	users UserStore,
	profiles profile.Store,
	txRunner tx.Runner,
	tokens TokenIssuer,
	revocation Revoker,
	tokenTTL time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
	recorder audit.Recorder,
) *Service {
	return &Service{
		users:      users,
		profiles:   profiles,
		txRunner:   txRunner,
		tokens:     tokens,
		revocation: revocation,
		tokenTTL:   tokenTTL,
		logger:     logger,
		metrics:    m,
		audit:      recorder,
	}
}

// SignUp creates the credential record and its profile in one transaction.
// New profiles always start unverified and never as administrators.
func (s *Service) SignUp(ctx context.Context, creds Credentials) (*profile.Profile, error) {
	if _, err := mail.ParseAddress(creds.Email); err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "Please enter a valid email address.")
	}
	if len(creds.Password) < minPasswordLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, msgWeakPassword)
	}
	if creds.DisplayName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "Please enter a display name.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "Failed to create account. Please try again.", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           id.NewUserID(),
		Email:        creds.Email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	prof := &profile.Profile{
		UserID:      user.ID,
		Email:       creds.Email,
		DisplayName: creds.DisplayName,
		IsAdmin:     false,
		Status:      status.New,
		CreatedAt:   now,
	}

	err = s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		if err := s.profiles.Create(ctx, prof); err != nil {
			return err
		}
		event := audit.NewEvent(audit.ActionSignUp, user.ID.String())
		return s.audit.Record(ctx, event)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, msgEmailTaken)
		}
		s.logger.ErrorContext(ctx, "sign-up failed", "error", err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "Failed to create account. Please try again.", err)
	}

	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	return prof, nil
}

// SignIn verifies credentials and issues an access token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, msgAccountNotFound)
		}
		s.logger.ErrorContext(ctx, "sign-in lookup failed", "error", err)
		return "", dErrors.Wrap(dErrors.CodeInternal, "Failed to sign in. Please try again.", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, msgBadPassword)
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, s.tokenTTL)
	if err != nil {
		s.logger.ErrorContext(ctx, "token issuance failed", "error", err)
		return "", dErrors.Wrap(dErrors.CodeInternal, "Failed to sign in. Please try again.", err)
	}

	event := audit.NewEvent(audit.ActionSignIn, user.ID.String())
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", event.Action, "error", err)
	}
	return token, nil
}

// SignOut revokes the presented token for the remainder of its lifetime.
func (s *Service) SignOut(ctx context.Context, userID id.UserID, jti string) error {
	if err := s.revocation.Revoke(ctx, jti, s.tokenTTL); err != nil {
		s.logger.ErrorContext(ctx, "token revocation failed", "error", err)
		return dErrors.Wrap(dErrors.CodeInternal, "Failed to sign out. Please try again.", err)
	}
	event := audit.NewEvent(audit.ActionSignOut, userID.String())
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "action", event.Action, "error", err)
	}
	return nil
}
