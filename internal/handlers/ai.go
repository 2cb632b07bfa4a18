package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/service/tour"
)

type AIHandler struct {
	Tours *tour.Generator
}

type createTourRequest struct {
	City               string `json:"city" validate:"required,max=255"`
	Neighborhood       string `json:"neighborhood" validate:"required,max=255"`
	Duration           int    `json:"duration" validate:"required,min=5"`
	TourTheme          string `json:"tourTheme" validate:"required,max=255"`
	StartLocation      string `json:"startLocation" validate:"omitempty,max=255"`
	Language           string `json:"language" validate:"omitempty,max=64"`
	UserPreferences    string `json:"userPreferences" validate:"omitempty,max=2000"`
	Pace               string `json:"pace" validate:"omitempty,max=64"`
	GroupType          string `json:"groupType" validate:"omitempty,max=64"`
	Budget             string `json:"budget" validate:"omitempty,max=64"`
	AccessibilityNeeds string `json:"accessibilityNeeds" validate:"omitempty,max=2000"`
}

// CreateTour asks the model for a tour draft. The draft is returned to
// the client as-is; nothing is persisted until the client submits it as
// a regular walk.
func (h *AIHandler) CreateTour(c echo.Context) error {
	if _, err := requireUserID(c); err != nil {
		return err
	}
	if h.Tours == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Tour generation is not available")
	}

	var req createTourRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	draft, err := h.Tours.Generate(c.Request().Context(), tour.Request{
		City:               req.City,
		Neighborhood:       req.Neighborhood,
		Duration:           req.Duration,
		TourTheme:          req.TourTheme,
		StartLocation:      req.StartLocation,
		Language:           req.Language,
		UserPreferences:    req.UserPreferences,
		Pace:               req.Pace,
		GroupType:          req.GroupType,
		Budget:             req.Budget,
		AccessibilityNeeds: req.AccessibilityNeeds,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to generate tour")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tour generated successfully",
		"data":    draft,
	})
}
