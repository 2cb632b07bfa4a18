package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/neibo-app/neibo/internal/service"
)

type UserHandler struct {
	DB    *gorm.DB
	Walks *service.WalkService
}

// GetOwnWalks lists every walk the caller has authored, with the full
// children attached.
func (h *UserHandler) GetOwnWalks(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	walks, err := h.Walks.ListByAuthor(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "User walks fetched successfully",
		"data":    walks,
	})
}
