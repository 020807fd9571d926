package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	secondary := domain.RoleLecturer
	user := &domain.User{ID: "u1", Role: domain.RoleAdmin, SecondaryRole: &secondary}

	session, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.Equal(t, "u1", session.UserID)

	claims, err := tm.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	require.NotNil(t, claims.SecondaryRole)
	assert.Equal(t, domain.RoleLecturer, *claims.SecondaryRole)

	_, err = NewTokenManager("other", time.Minute).ParseToken(session.Token)
	assert.Error(t, err)
}

func newTestApp(t *testing.T, guard fiber.Handler) (*fiber.App, *TokenManager, *domain.User) {
	t.Helper()
	store := memory.New()
	user := &domain.User{Email: "ada.king@example.edu", Role: domain.RoleLecturer}
	require.NoError(t, store.Repos().Users.Create(context.Background(), user))

	tokens := NewTokenManager("secret", time.Minute)
	mw := NewAuthMiddleware(tokens, store.Repos().Users)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/", mw.Handle, guard, func(c *fiber.Ctx) error {
		u, ok := UserFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(u.ID)
	})
	return app, tokens, user
}

func TestAuthMiddleware(t *testing.T) {
	app, tokens, user := newTestApp(t, RequireRole())
	session, err := tokens.GenerateToken(user)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + session.Token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_UnknownUser(t *testing.T) {
	app, tokens, _ := newTestApp(t, RequireRole())
	session, err := tokens.GenerateToken(&domain.User{ID: "ghost", Role: domain.RoleStudent})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	for name, tc := range map[string]struct {
		guard  fiber.Handler
		status int
	}{
		"staff":       {RequireStaff(), http.StatusOK},
		"student":     {RequireRole(domain.RoleStudent), http.StatusForbidden},
		"coordinator": {RequireRole(domain.RoleComplaintCoordinator), http.StatusForbidden},
	} {
		t.Run(name, func(t *testing.T) {
			app, tokens, user := newTestApp(t, tc.guard)
			session, err := tokens.GenerateToken(user)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+session.Token)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
