package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-desk/internal/api/dto"
	"github.com/spec-kit/complaint-desk/internal/auth"
	"github.com/spec-kit/complaint-desk/internal/service"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// UpstreamSecretHeader carries the secret shared with the identity provider.
const UpstreamSecretHeader = "X-Upstream-Secret"

// SessionHandler issues sessions and describes the caller.
type SessionHandler struct {
	service        *service.SessionService
	upstreamSecret string
}

// NewSessionHandler constructs handler. An empty upstreamSecret disables login.
func NewSessionHandler(sessions *service.SessionService, upstreamSecret string) *SessionHandler {
	return &SessionHandler{service: sessions, upstreamSecret: upstreamSecret}
}

// Login POST /auth/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	given := c.Get(UpstreamSecretHeader)
	if h.upstreamSecret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.upstreamSecret)) != 1 {
		return apperrors.NewUnauthorized("untrusted identity assertion")
	}
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.service.Login(c.UserContext(), service.LoginInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt,
		User:      dto.NewUserResponse(result.Assignment.User, result.Assignment.Profiles),
	}})
}

// Me GET /me.
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	profiles, err := h.service.Profile(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user, profiles)})
}
