package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/models"
	"github.com/neibo-app/neibo/internal/util"
)

type commentRequest struct {
	Comment string `json:"comment" validate:"required,min=1,max=5000"`
}

func (h *WalkHandler) CreateComment(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	walkID, err := parseWalkID(c)
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.Walks.Exists(c.Request().Context(), walkID); err != nil {
		return err
	}

	comment := models.WalkComment{
		WalkID:  walkID,
		UserID:  userID,
		Comment: req.Comment,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&comment).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Comment created successfully",
		"data":    comment,
	})
}

// commentView decorates a comment with its author's public projection.
type commentView struct {
	models.WalkComment
	User *models.Author `json:"user"`
}

func (h *WalkHandler) GetComments(c echo.Context) error {
	walkID, err := parseWalkID(c)
	if err != nil {
		return err
	}
	if err := h.Walks.Exists(c.Request().Context(), walkID); err != nil {
		return err
	}

	page, limit := util.Clamp(
		parseIntDefault(c.QueryParam("page"), 1),
		parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	)
	db := h.DB.WithContext(c.Request().Context())

	var total int64
	if err := db.Model(&models.WalkComment{}).Where("walk_id = ?", walkID).Count(&total).Error; err != nil {
		return err
	}

	var comments []models.WalkComment
	if err := db.Where("walk_id = ?", walkID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return err
	}

	views, err := h.commentsWithAuthors(c, comments)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Walk comments fetched successfully",
		"data": echo.Map{
			"comments":   views,
			"pagination": util.Paginate(requestURL(c), page, limit, total),
		},
	})
}

type reviewRequest struct {
	Stars      int     `json:"stars" validate:"min=0,max=5"`
	TextReview *string `json:"textReview" validate:"omitempty,max=5000"`
}

func (h *WalkHandler) CreateReview(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	walkID, err := parseWalkID(c)
	if err != nil {
		return err
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.Walks.Exists(ctx, walkID); err != nil {
		return err
	}

	// Fast-path duplicate check; the composite unique index is the
	// authoritative guard when two submissions race.
	var existing models.WalkReview
	err = h.DB.WithContext(ctx).
		Where("walk_id = ? AND user_id = ?", walkID, userID).
		First(&existing).Error
	if err == nil {
		return apperr.Validation("You have already reviewed this walk")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	review := models.WalkReview{
		WalkID:     walkID,
		UserID:     userID,
		Stars:      req.Stars,
		TextReview: req.TextReview,
	}
	if err := h.DB.WithContext(ctx).Create(&review).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Review created successfully",
		"data":    review,
	})
}

type reviewView struct {
	models.WalkReview
	User *models.Author `json:"user"`
}

func (h *WalkHandler) GetReviews(c echo.Context) error {
	walkID, err := parseWalkID(c)
	if err != nil {
		return err
	}
	if err := h.Walks.Exists(c.Request().Context(), walkID); err != nil {
		return err
	}

	page, limit := util.Clamp(
		parseIntDefault(c.QueryParam("page"), 1),
		parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize),
	)
	db := h.DB.WithContext(c.Request().Context())

	var total int64
	if err := db.Model(&models.WalkReview{}).Where("walk_id = ?", walkID).Count(&total).Error; err != nil {
		return err
	}

	var reviews []models.WalkReview
	if err := db.Where("walk_id = ?", walkID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&reviews).Error; err != nil {
		return err
	}

	views, err := h.reviewsWithAuthors(c, reviews)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Walk reviews fetched successfully",
		"data": echo.Map{
			"reviews":    views,
			"pagination": util.Paginate(requestURL(c), page, limit, total),
		},
	})
}

type subscribeRequest struct {
	StartDate *time.Time `json:"startDate"`
}

func (h *WalkHandler) Subscribe(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	walkID, err := parseWalkID(c)
	if err != nil {
		return err
	}

	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body")
	}

	ctx := c.Request().Context()
	if err := h.Walks.Exists(ctx, walkID); err != nil {
		return err
	}

	sub := models.WalkSubscription{
		WalkID:    walkID,
		UserID:    userID,
		StartDate: req.StartDate,
	}
	if err := h.DB.WithContext(ctx).Create(&sub).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Subscribed to walk successfully",
		"data":    sub,
	})
}

func (h *WalkHandler) commentsWithAuthors(c echo.Context, comments []models.WalkComment) ([]commentView, error) {
	ids := make([]uuid.UUID, len(comments))
	for i, cm := range comments {
		ids[i] = cm.UserID
	}
	authors, err := h.authorsByID(c, ids)
	if err != nil {
		return nil, err
	}

	views := make([]commentView, len(comments))
	for i, cm := range comments {
		views[i] = commentView{WalkComment: cm, User: authors[cm.UserID]}
	}
	return views, nil
}

func (h *WalkHandler) reviewsWithAuthors(c echo.Context, reviews []models.WalkReview) ([]reviewView, error) {
	ids := make([]uuid.UUID, len(reviews))
	for i, rv := range reviews {
		ids[i] = rv.UserID
	}
	authors, err := h.authorsByID(c, ids)
	if err != nil {
		return nil, err
	}

	views := make([]reviewView, len(reviews))
	for i, rv := range reviews {
		views[i] = reviewView{WalkReview: rv, User: authors[rv.UserID]}
	}
	return views, nil
}

func (h *WalkHandler) authorsByID(c echo.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Author, error) {
	out := map[uuid.UUID]*models.Author{}
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := h.DB.WithContext(c.Request().Context()).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		a := u.AsAuthor()
		out[u.ID] = &a
	}
	return out, nil
}
