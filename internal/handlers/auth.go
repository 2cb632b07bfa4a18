package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/events"
	"github.com/neibo-app/neibo/internal/service"
)

type AuthHandler struct {
	Auth     *service.AuthService
	Producer *events.Producer
}

type registerRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Username       string `json:"username" validate:"required,min=3,max=255"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	FirstName      string `json:"firstName" validate:"required,max=50"`
	LastName       string `json:"lastName" validate:"required,max=50"`
	Bio            string `json:"bio" validate:"max=2000"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,max=255"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, pair, err := h.Auth.Register(c.Request().Context(), service.RegisterInput{
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"userId":   user.ID.String(),
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "User created successfully",
		"user":         user,
		"token":        pair.Access,
		"refreshToken": pair.Refresh,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, pair, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"userId":   user.ID.String(),
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "Login successful",
		"user":         user,
		"token":        pair.Access,
		"refreshToken": pair.Refresh,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if req.RefreshToken == "" {
		return apperr.Validation("Refresh token is required")
	}

	pair, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":      "Token refreshed successfully",
		"token":        pair.Access,
		"refreshToken": pair.Refresh,
	})
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	key, _ := event["userId"].(string)
	if err := h.Producer.Publish(ctx, events.TopicUserEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
