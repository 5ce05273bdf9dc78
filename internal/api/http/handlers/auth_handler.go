package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ecobazaar-auth/internal/api/dto"
	"github.com/spec-kit/ecobazaar-auth/internal/auth"
	"github.com/spec-kit/ecobazaar-auth/internal/service"
)

// The admission sequence distinguishes which check failed, but callers only
// ever see this message so a probe cannot tell a missing account from a bad
// password or role.
const genericLoginMessage = "Invalid email, password, or role"

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Role == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.AuthResponse{
			Success: false,
			Message: "email, password and role are required",
		})
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password, req.Role)
	if err != nil {
		if isAdmissionError(err) {
			return c.Status(http.StatusUnauthorized).JSON(dto.AuthResponse{
				Success: false,
				Message: genericLoginMessage,
			})
		}
		return err
	}

	return c.JSON(dto.AuthResponse{
		Success:      true,
		Message:      "Login successful",
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		UserID:       session.UserID,
		Role:         string(session.Role),
	})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Phone:           req.Phone,
		Role:            req.Role,
	})
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(http.StatusBadRequest).JSON(dto.AuthResponse{
				Success: false,
				Message: validationErr.Message,
			})
		}
		if errors.Is(err, service.ErrDuplicateEmail) {
			return c.Status(http.StatusConflict).JSON(dto.AuthResponse{
				Success: false,
				Message: "User with this email already exists",
			})
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		Success: true,
		Message: "User registered successfully",
		UserID:  user.ID,
		Role:    string(user.Role),
	})
}

// Validate handles POST /auth/validate. The outcome is always a 200 with a
// tagged body; an invalid token is an expected answer, not a request failure.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	tokenStr, err := auth.BearerToken(c)
	if err != nil {
		return c.JSON(dto.ValidateResponse{Valid: false, Error: "missing bearer token"})
	}

	result := h.auth.Validate(tokenStr)
	if !result.Valid {
		return c.JSON(dto.ValidateResponse{Valid: false, Error: result.Err.Error()})
	}

	return c.JSON(dto.ValidateResponse{
		Valid:  true,
		UserID: result.Claims.UserID,
		Email:  result.Claims.Email,
		Role:   string(result.Claims.Role),
		Type:   string(result.Claims.TokenType),
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	tokenStr, err := auth.BearerToken(c)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(dto.AuthResponse{
			Success: false,
			Message: "missing bearer token",
		})
	}

	session, err := h.auth.Refresh(c.UserContext(), tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongTokenType):
			return c.Status(http.StatusUnauthorized).JSON(dto.AuthResponse{
				Success: false,
				Message: "Invalid token type",
			})
		case errors.Is(err, auth.ErrTokenMalformed),
			errors.Is(err, auth.ErrTokenExpired),
			errors.Is(err, service.ErrUserNotFound),
			errors.Is(err, service.ErrUserDeactivated):
			return c.Status(http.StatusUnauthorized).JSON(dto.AuthResponse{
				Success: false,
				Message: "Invalid refresh token",
			})
		default:
			return err
		}
	}

	return c.JSON(dto.AuthResponse{
		Success:      true,
		Message:      "Token refreshed successfully",
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		UserID:       session.UserID,
		Role:         string(session.Role),
	})
}

// Logout handles POST /auth/logout. Stateless design: the acknowledgment is
// best-effort, nothing is invalidated server-side.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tokenStr, _ := auth.BearerToken(c)
	if err := h.auth.Logout(c.UserContext(), tokenStr); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Success: true, Message: "Logged out successfully"})
}

// ResetPassword handles POST /auth/reset-password. Delivery is simulated.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.MessageResponse{
			Success: false,
			Message: "Email is required",
		})
	}

	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Status(http.StatusNotFound).JSON(dto.MessageResponse{
				Success: false,
				Message: "User not found",
			})
		}
		return err
	}

	return c.JSON(dto.MessageResponse{
		Success: true,
		Message: "Password reset email sent (simulated)",
	})
}

// Me handles GET /auth/me for authenticated callers.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"userId": principal.UserID,
			"email":  principal.Email,
			"role":   principal.Role,
		},
	})
}

func isAdmissionError(err error) bool {
	return errors.Is(err, service.ErrUserNotFound) ||
		errors.Is(err, service.ErrUserDeactivated) ||
		errors.Is(err, service.ErrInvalidCredentials) ||
		errors.Is(err, service.ErrRoleMismatch)
}
