package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/identity"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// LoginInput is the identity asserted by the upstream provider.
type LoginInput struct {
	Email     string
	FirstName string
	LastName  string
}

// LoginResult is an issued session plus the roles it was issued for.
type LoginResult struct {
	Session    *domain.Session
	Assignment *RoleAssignment
}

// SessionService turns an upstream-verified email into a session.
type SessionService struct {
	store    repository.Store
	resolver *RoleResolver
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

// SessionDependencies bundles collaborators for the session service.
type SessionDependencies struct {
	Store    repository.Store
	Resolver *RoleResolver
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		store:    deps.Store,
		resolver: deps.Resolver,
		tokens:   deps.Tokens,
		logger:   logger,
	}
}

// Login gets or creates the user, re-derives roles from the rosters and
// issues a token. Users outside the institution are rejected before any
// record is created.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, _, err := identity.SplitEmail(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": in.Email})
	}

	user, err := s.store.Repos().Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if !s.resolver.InInstitution(email) {
			return nil, apperrors.NewIdentityRejected("only institutional email addresses may sign in",
				map[string]any{"email": email})
		}
		user, err = s.createUser(ctx, email, in)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	assignment, err := s.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	session, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("session issued", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{Session: session, Assignment: assignment}, nil
}

// createUser inserts a Student-by-default user. A concurrent first login
// for the same email loses the insert and reads the winner's row instead.
func (s *SessionService) createUser(ctx context.Context, email string, in LoginInput) (*domain.User, error) {
	user := &domain.User{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      domain.RoleStudent,
	}
	users := s.store.Repos().Users
	if err := users.Create(ctx, user); err != nil {
		existing, getErr := users.GetByEmail(ctx, email)
		if getErr != nil {
			return nil, err
		}
		return existing, nil
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("email", email))
	return user, nil
}

// Profile returns the user together with its profiles.
func (s *SessionService) Profile(ctx context.Context, user *domain.User) (domain.Profiles, error) {
	if user == nil {
		return domain.Profiles{}, apperrors.NewUnauthorized("authentication required")
	}
	return s.store.Repos().Profiles.Get(ctx, user.ID)
}
