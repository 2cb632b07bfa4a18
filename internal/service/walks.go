package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/models"
)

const defaultReachRadius = 50

// WalkService owns the walk aggregate: every multi-table write to a walk
// and its tags/spots happens inside one transaction here, so a partial
// aggregate is never observable.
type WalkService struct {
	DB *gorm.DB
}

type SpotInput struct {
	Title         string
	Description   string
	Latitude      float64
	Longitude     float64
	ReachRadius   *int
	PositionOrder int
	ImageUrls     []string
	AudioURL      *string
}

type CreateWalkInput struct {
	Name             string
	Description      string
	CoverImageURL    string
	DurationEstimate *int
	DistanceEstimate *int
	IsPublic         bool
	Spots            []SpotInput
	TagIDs           []uuid.UUID
}

// UpdateWalkInput distinguishes "absent" from "present but empty": a nil
// Spots or TagIDs leaves the children untouched, a non-nil empty slice
// replaces them with nothing.
type UpdateWalkInput struct {
	Name             *string
	Description      *string
	CoverImageURL    *string
	DurationEstimate *int
	DistanceEstimate *int
	IsPublic         *bool
	Spots            *[]SpotInput
	TagIDs           *[]uuid.UUID
}

// Create inserts the walk, its tag associations and its spots atomically.
// The name pre-check is advisory; the unique index on walks.name is the
// authoritative guard under concurrency.
func (s *WalkService) Create(ctx context.Context, authorID uuid.UUID, in CreateWalkInput) (*models.Walk, []models.Spot, error) {
	if err := validateSpots(in.Spots); err != nil {
		return nil, nil, err
	}

	db := s.DB.WithContext(ctx)

	var existing models.Walk
	err := db.Where("name = ?", in.Name).First(&existing).Error
	if err == nil {
		return nil, nil, apperr.Validation("Walk name already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	walk := models.Walk{
		AuthorID:         authorID,
		Name:             in.Name,
		Description:      in.Description,
		CoverImageURL:    in.CoverImageURL,
		DurationEstimate: in.DurationEstimate,
		DistanceEstimate: in.DistanceEstimate,
		IsPublic:         in.IsPublic,
	}
	var created []models.Spot

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&walk).Error; err != nil {
			return err
		}

		if len(in.TagIDs) > 0 {
			rows := make([]models.WalkTag, len(in.TagIDs))
			for i, tagID := range in.TagIDs {
				rows[i] = models.WalkTag{WalkID: walk.ID, TagID: tagID}
			}
			// A bad tag id aborts the transaction and takes the walk
			// insert down with it.
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		if len(in.Spots) > 0 {
			created = spotsFromInputs(walk.ID, in.Spots)
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &walk, created, nil
}

// Update applies a partial walk update and, when provided, replaces the
// tag and spot sets wholesale. Ownership is enforced by the update's own
// filter: zero rows affected means missing or not owned, and the message
// deliberately does not say which.
func (s *WalkService) Update(ctx context.Context, walkID, authorID uuid.UUID, in UpdateWalkInput) (*models.Walk, []models.Spot, error) {
	if in.Spots != nil {
		if err := validateSpots(*in.Spots); err != nil {
			return nil, nil, err
		}
	}

	var walk models.Walk
	var outSpots []models.Spot

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"updated_at": time.Now()}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.CoverImageURL != nil {
			updates["cover_image_url"] = *in.CoverImageURL
		}
		if in.DurationEstimate != nil {
			updates["duration_estimate"] = *in.DurationEstimate
		}
		if in.DistanceEstimate != nil {
			updates["distance_estimate"] = *in.DistanceEstimate
		}
		if in.IsPublic != nil {
			updates["is_public"] = *in.IsPublic
		}

		res := tx.Model(&models.Walk{}).
			Where("id = ? AND author_id = ?", walkID, authorID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Walk not found or you don't have permission to update it")
		}

		if in.TagIDs != nil {
			if err := tx.Where("walk_id = ?", walkID).Delete(&models.WalkTag{}).Error; err != nil {
				return err
			}
			if len(*in.TagIDs) > 0 {
				rows := make([]models.WalkTag, len(*in.TagIDs))
				for i, tagID := range *in.TagIDs {
					rows[i] = models.WalkTag{WalkID: walkID, TagID: tagID}
				}
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		if in.Spots != nil {
			if err := tx.Where("walk_id = ?", walkID).Delete(&models.Spot{}).Error; err != nil {
				return err
			}
			if len(*in.Spots) > 0 {
				rows := spotsFromInputs(walkID, *in.Spots)
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.First(&walk, "id = ?", walkID).Error; err != nil {
			return err
		}
		// Always hand back the persisted rows, whether or not this
		// call replaced them.
		return tx.Where("walk_id = ?", walkID).
			Order("position_order ASC").
			Find(&outSpots).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return &walk, outSpots, nil
}

// Delete removes a walk owned by the requester; children go with it via
// the cascade foreign keys.
func (s *WalkService) Delete(ctx context.Context, walkID, authorID uuid.UUID) error {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND author_id = ?", walkID, authorID).
		Delete(&models.Walk{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Walk not found or you don't have permission to delete it")
	}
	return nil
}

// Exists answers whether a walk is present, as the 404 gate for comment,
// review and subscription writes.
func (s *WalkService) Exists(ctx context.Context, walkID uuid.UUID) error {
	var walk models.Walk
	if err := s.DB.WithContext(ctx).Select("id").First(&walk, "id = ?", walkID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Walk not found")
		}
		return err
	}
	return nil
}

// WalkDetail is the joined read of a walk: ordered spots, author
// projection, flattened tags and the average review stars (null when the
// walk has no reviews).
type WalkDetail struct {
	models.Walk
	Author   *models.Author `json:"author"`
	Tags     []models.Tag   `json:"tags"`
	AvgStars *float64       `json:"avgStars"`
}

func (s *WalkService) GetByID(ctx context.Context, walkID uuid.UUID) (*WalkDetail, error) {
	db := s.DB.WithContext(ctx)

	var walk models.Walk
	err := db.
		Preload("Spots", func(tx *gorm.DB) *gorm.DB { return tx.Order("position_order ASC") }).
		First(&walk, "id = ?", walkID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Walk not found")
		}
		return nil, err
	}

	detail := WalkDetail{Walk: walk, Tags: []models.Tag{}}

	var author models.User
	if err := db.First(&author, "id = ?", walk.AuthorID).Error; err == nil {
		a := author.AsAuthor()
		detail.Author = &a
	}

	if err := db.Model(&models.Tag{}).
		Joins("JOIN walk_tags ON walk_tags.tag_id = tags.id").
		Where("walk_tags.walk_id = ?", walkID).
		Find(&detail.Tags).Error; err != nil {
		return nil, err
	}

	avg, err := s.averageStars(ctx, walkID)
	if err != nil {
		return nil, err
	}
	detail.AvgStars = avg

	return &detail, nil
}

// WalkListItem is one row of the paginated listing.
type WalkListItem struct {
	models.Walk
	AvgStars *float64 `json:"avgStars"`
}

// List returns one page of walks with their average ratings. Ordering is
// newest-first with the id as tiebreaker, so identical requests page
// identically.
func (s *WalkService) List(ctx context.Context, page, limit int) ([]WalkListItem, int64, error) {
	db := s.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Walk{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var walks []models.Walk
	offset := (page - 1) * limit
	if err := db.Order("created_at DESC, id ASC").Offset(offset).Limit(limit).Find(&walks).Error; err != nil {
		return nil, 0, err
	}

	items := make([]WalkListItem, len(walks))
	for i, w := range walks {
		avg, err := s.averageStars(ctx, w.ID)
		if err != nil {
			return nil, 0, err
		}
		items[i] = WalkListItem{Walk: w, AvgStars: avg}
	}

	return items, total, nil
}

// AuthoredWalk is a walk with all of its children, as returned by the
// author's own listing.
type AuthoredWalk struct {
	models.Walk
	Tags     []models.Tag         `json:"walkTags"`
	Comments []models.WalkComment `json:"walkComments"`
	Reviews  []models.WalkReview  `json:"walkReviews"`
}

func (s *WalkService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]AuthoredWalk, error) {
	db := s.DB.WithContext(ctx)

	var walks []models.Walk
	err := db.
		Preload("Spots", func(tx *gorm.DB) *gorm.DB { return tx.Order("position_order ASC") }).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&walks).Error
	if err != nil {
		return nil, err
	}

	out := make([]AuthoredWalk, len(walks))
	for i, w := range walks {
		item := AuthoredWalk{Walk: w, Tags: []models.Tag{}}

		if err := db.Model(&models.Tag{}).
			Joins("JOIN walk_tags ON walk_tags.tag_id = tags.id").
			Where("walk_tags.walk_id = ?", w.ID).
			Find(&item.Tags).Error; err != nil {
			return nil, err
		}
		if err := db.Where("walk_id = ?", w.ID).Find(&item.Comments).Error; err != nil {
			return nil, err
		}
		if err := db.Where("walk_id = ?", w.ID).Find(&item.Reviews).Error; err != nil {
			return nil, err
		}
		out[i] = item
	}

	return out, nil
}

func (s *WalkService) averageStars(ctx context.Context, walkID uuid.UUID) (*float64, error) {
	var avg sql.NullFloat64
	err := s.DB.WithContext(ctx).
		Model(&models.WalkReview{}).
		Where("walk_id = ?", walkID).
		Select("AVG(stars)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func validateSpots(spots []SpotInput) error {
	for _, sp := range spots {
		if sp.Latitude < -90 || sp.Latitude > 90 || sp.Longitude < -180 || sp.Longitude > 180 {
			return apperr.Validation("Invalid spot coordinates")
		}
	}
	return nil
}

func spotsFromInputs(walkID uuid.UUID, inputs []SpotInput) []models.Spot {
	rows := make([]models.Spot, len(inputs))
	for i, in := range inputs {
		radius := defaultReachRadius
		if in.ReachRadius != nil {
			radius = *in.ReachRadius
		}
		rows[i] = models.Spot{
			WalkID:        walkID,
			Title:         in.Title,
			Description:   in.Description,
			Latitude:      in.Latitude,
			Longitude:     in.Longitude,
			ReachRadius:   radius,
			PositionOrder: in.PositionOrder,
			ImageUrls:     in.ImageUrls,
			AudioURL:      in.AudioURL,
		}
	}
	return rows
}
