package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/events"
	"github.com/neibo-app/neibo/internal/middleware"
	"github.com/neibo-app/neibo/internal/models"
	"github.com/neibo-app/neibo/internal/service"
	"github.com/neibo-app/neibo/internal/service/search"
	"github.com/neibo-app/neibo/internal/util"
	"github.com/neibo-app/neibo/internal/validate"
)

type WalkHandler struct {
	DB       *gorm.DB
	Walks    *service.WalkService
	Producer *events.Producer
	Search   *search.Index
}

type spotRequest struct {
	Title         string   `json:"title" validate:"required,max=255"`
	Description   string   `json:"description"`
	Latitude      float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude     float64  `json:"longitude" validate:"min=-180,max=180"`
	ReachRadius   *int     `json:"reach_radius" validate:"omitempty,min=1"`
	PositionOrder int      `json:"positionOrder" validate:"min=0"`
	ImageUrls     []string `json:"imageUrls" validate:"omitempty,dive,max=255"`
	AudioURL      *string  `json:"audioUrl" validate:"omitempty,max=255"`
}

type createWalkRequest struct {
	Name             string        `json:"name" validate:"required,max=255"`
	Description      string        `json:"description"`
	CoverImageURL    string        `json:"coverImageUrl" validate:"omitempty,max=255"`
	DurationEstimate *int          `json:"duration_estimate" validate:"omitempty,min=0"`
	DistanceEstimate *int          `json:"distance_estimate" validate:"omitempty,min=0"`
	IsPublic         bool          `json:"isPublic"`
	Spots            []spotRequest `json:"spots" validate:"omitempty,dive"`
	TagIDs           []string      `json:"tagIds" validate:"omitempty,dive,uuid"`
}

func (h *WalkHandler) CreateWalk(c echo.Context) error {
	authorID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req createWalkRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tagIDs, err := parseUUIDs(req.TagIDs)
	if err != nil {
		return err
	}

	walk, spots, err := h.Walks.Create(c.Request().Context(), authorID, service.CreateWalkInput{
		Name:             req.Name,
		Description:      req.Description,
		CoverImageURL:    req.CoverImageURL,
		DurationEstimate: req.DurationEstimate,
		DistanceEstimate: req.DistanceEstimate,
		IsPublic:         req.IsPublic,
		Spots:            spotInputs(req.Spots),
		TagIDs:           tagIDs,
	})
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":   "walk_created",
		"walkId": walk.ID.String(),
		"name":   walk.Name,
	})
	h.index(c, walk)

	if spots == nil {
		spots = []models.Spot{}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Walk created successfully",
		"walk":    walk,
		"spots":   spots,
	})
}

type updateWalkRequest struct {
	Name             *string        `json:"name" validate:"omitempty,max=255"`
	Description      *string        `json:"description"`
	CoverImageURL    *string        `json:"coverImageUrl" validate:"omitempty,max=255"`
	DurationEstimate *int           `json:"duration_estimate" validate:"omitempty,min=0"`
	DistanceEstimate *int           `json:"distance_estimate" validate:"omitempty,min=0"`
	IsPublic         *bool          `json:"isPublic"`
	Spots            *[]spotRequest `json:"spots" validate:"omitempty,dive"`
	TagIDs           *[]string      `json:"tagIds" validate:"omitempty,dive,uuid"`
}

func (h *WalkHandler) UpdateWalk(c echo.Context) error {
	authorID, err := requireUserID(c)
	if err != nil {
		return err
	}
	walkID, err := parseWalkID(c)
	if err != nil {
		return err
	}

	var req updateWalkRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	in := service.UpdateWalkInput{
		Name:             req.Name,
		Description:      req.Description,
		CoverImageURL:    req.CoverImageURL,
		DurationEstimate: req.DurationEstimate,
		DistanceEstimate: req.DistanceEstimate,
		IsPublic:         req.IsPublic,
	}
	if req.Spots != nil {
		spots := spotInputs(*req.Spots)
		in.Spots = &spots
	}
	if req.TagIDs != nil {
		tagIDs, err := parseUUIDs(*req.TagIDs)
		if err != nil {
			return err
		}
		in.TagIDs = &tagIDs
	}

	walk, spots, err := h.Walks.Update(c.Request().Context(), walkID, authorID, in)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":   "walk_updated",
		"walkId": walk.ID.String(),
		"name":   walk.Name,
	})
	h.index(c, walk)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Walk updated successfully",
		"walk":    walk,
		"spots":   spots,
	})
}

func (h *WalkHandler) DeleteWalk(c echo.Context) error {
	authorID, err := requireUserID(c)
	if err != nil {
		return err
	}
	walkID, err := parseWalkID(c)
	if err != nil {
		return err
	}

	if err := h.Walks.Delete(c.Request().Context(), walkID, authorID); err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":   "walk_deleted",
		"walkId": walkID.String(),
	})
	if h.Search != nil {
		if err := h.Search.DeleteWalk(c.Request().Context(), walkID.String()); err != nil {
			c.Logger().Errorf("search deindex error: %v", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *WalkHandler) GetWalk(c echo.Context) error {
	walkID, err := parseWalkID(c)
	if err != nil {
		return err
	}

	detail, err := h.Walks.GetByID(c.Request().Context(), walkID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Walk fetched successfully",
		"data":    detail,
	})
}

func (h *WalkHandler) GetWalks(c echo.Context) error {
	page, limit := util.Clamp(
		parseIntDefault(c.QueryParam("page"), 1),
		parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	)

	walks, total, err := h.Walks.List(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Walks fetched successfully",
		"data": echo.Map{
			"walks":      walks,
			"pagination": util.Paginate(requestURL(c), page, limit, total),
		},
	})
}

func (h *WalkHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	key, _ := event["walkId"].(string)
	if err := h.Producer.Publish(ctx, events.TopicWalkEvents, key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *WalkHandler) index(c echo.Context, walk *models.Walk) {
	if h.Search == nil {
		return
	}
	if err := h.Search.IndexWalk(c.Request().Context(), walk); err != nil {
		c.Logger().Errorf("search index error: %v", err)
	}
}

func requireUserID(c echo.Context) (uuid.UUID, error) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return uuid.Nil, apperr.Unauthorized("Unauthorized")
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("Unauthorized")
	}
	return id, nil
}

func parseWalkID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.ValidationDetails("Invalid walk ID format", []validate.FieldError{
			{Field: "id", Rule: "uuid"},
		})
	}
	return id, nil
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperr.ValidationDetails("Invalid tag ID format", []validate.FieldError{
				{Field: "tagIds", Rule: "uuid"},
			})
		}
		out[i] = id
	}
	return out, nil
}

func spotInputs(reqs []spotRequest) []service.SpotInput {
	out := make([]service.SpotInput, len(reqs))
	for i, r := range reqs {
		out[i] = service.SpotInput{
			Title:         r.Title,
			Description:   r.Description,
			Latitude:      r.Latitude,
			Longitude:     r.Longitude,
			ReachRadius:   r.ReachRadius,
			PositionOrder: r.PositionOrder,
			ImageUrls:     r.ImageUrls,
			AudioURL:      r.AudioURL,
		}
	}
	return out
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// requestURL reconstructs the absolute URL of the current request, query
// string included, for pagination link building.
func requestURL(c echo.Context) string {
	u := c.Scheme() + "://" + c.Request().Host + c.Request().URL.Path
	if raw := c.Request().URL.RawQuery; raw != "" {
		u += "?" + raw
	}
	return u
}
