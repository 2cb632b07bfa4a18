package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/service/search"
	"github.com/neibo-app/neibo/internal/util"
)

type SearchHandler struct {
	Search *search.Index
}

func (h *SearchHandler) SearchWalks(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return apperr.Validation("Search query is required")
	}
	if h.Search == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Search is not available")
	}

	page, limit := util.Clamp(
		parseIntDefault(c.QueryParam("page"), 1),
		parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	)

	total, docs, err := h.Search.Search(c.Request().Context(), q, (page-1)*limit, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Walks fetched successfully",
		"data": echo.Map{
			"walks":      docs,
			"pagination": util.Paginate(requestURL(c), page, limit, total),
		},
	})
}
