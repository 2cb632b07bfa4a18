package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username       string    `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Password       string    `gorm:"size:255;not null"        json:"-"`
	FirstName      string    `gorm:"size:50;not null"         json:"firstName"`
	LastName       string    `gorm:"size:50;not null"         json:"lastName"`
	ProfilePicture string    `gorm:"size:255;not null;default:''" json:"profilePicture"`
	Bio            string    `gorm:"not null;default:''"      json:"bio"`
	IsActive       bool      `gorm:"not null;default:true"    json:"isActive"`
	IsVerified     bool      `gorm:"not null;default:false"   json:"isVerified"`
	IsAdmin        bool      `gorm:"not null;default:false"   json:"isAdmin"`
	IsSuperAdmin   bool      `gorm:"not null;default:false"   json:"isSuperAdmin"`
	IsDeleted      bool      `gorm:"not null;default:false"   json:"isDeleted"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PublicUser is the projection returned by auth endpoints. The password
// hash must never leave the service, so responses carry this type instead
// of User.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

// Author is the reduced user projection embedded in walk, comment and
// review responses.
type Author struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture"`
}

func (u *User) AsAuthor() Author {
	return Author{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"      json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"   json:"-"`
	Token     string    `gorm:"uniqueIndex;not null"          json:"token"`
	ExpiresAt time.Time `gorm:"not null"                      json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Walk struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	AuthorID         uuid.UUID `gorm:"type:uuid;index;not null"    json:"authorId"`
	Author           *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name             string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description      string    `gorm:"not null;default:''"         json:"description"`
	CoverImageURL    string    `gorm:"size:255;not null;default:''" json:"coverImageUrl"`
	DurationEstimate *int      `json:"duration_estimate"`
	DistanceEstimate *int      `json:"distance_estimate"`
	IsPublic         bool      `gorm:"not null;default:false"      json:"isPublic"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	Spots []Spot `gorm:"constraint:OnDelete:CASCADE" json:"spots,omitempty"`
}

func (w *Walk) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

type Spot struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"        json:"id"`
	WalkID        uuid.UUID      `gorm:"type:uuid;index;not null"    json:"walkId"`
	Title         string         `gorm:"size:255;not null"           json:"title"`
	Description   string         `gorm:"not null;default:''"         json:"description"`
	Latitude      float64        `gorm:"not null"                    json:"latitude"`
	Longitude     float64        `gorm:"not null"                    json:"longitude"`
	ReachRadius   int            `gorm:"not null;default:50"         json:"reach_radius"`
	PositionOrder int            `gorm:"not null;default:0"          json:"positionOrder"`
	ImageUrls     pq.StringArray `gorm:"type:text[]"                 json:"imageUrls"`
	AudioURL      *string        `gorm:"size:255"                    json:"audioUrl"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (s *Spot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null"    json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// WalkTag is the walk<->tag join row. Tag sets are always replaced
// wholesale, never diffed, so the row carries no payload beyond the pair.
type WalkTag struct {
	WalkID    uuid.UUID `gorm:"type:uuid;primaryKey"        json:"walkId"`
	Walk      *Walk     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey"        json:"tagId"`
	Tag       *Tag      `gorm:"constraint:OnDelete:CASCADE" json:"tag,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WalkComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	WalkID    uuid.UUID `gorm:"type:uuid;index;not null"    json:"walkId"`
	Walk      *Walk     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"    json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Comment   string    `gorm:"not null;default:''"         json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *WalkComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// WalkReview carries a composite unique index so the one-review-per-user
// rule holds even when two requests race past the application pre-check.
type WalkReview struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"                             json:"id"`
	WalkID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_walk_user" json:"walkId"`
	Walk       *Walk     `gorm:"constraint:OnDelete:CASCADE"                      json:"-"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_walk_user" json:"userId"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE"                      json:"-"`
	Stars      int       `gorm:"not null;default:0"                               json:"stars"`
	TextReview *string   `json:"textReview"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (r *WalkReview) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type WalkSubscription struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"        json:"id"`
	WalkID       uuid.UUID  `gorm:"type:uuid;index;not null"    json:"walkId"`
	Walk         *Walk      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null"    json:"userId"`
	User         *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SubscribedAt time.Time  `gorm:"autoCreateTime"              json:"subscribedAt"`
	StartDate    *time.Time `json:"startDate"`
}

func (s *WalkSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type UserWalkProgress struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;index;not null"    json:"userId"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	WalkID        uuid.UUID      `gorm:"type:uuid;index;not null"    json:"walkId"`
	Walk          *Walk          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CurrentSpotID *uuid.UUID     `gorm:"type:uuid"                   json:"currentSpotId"`
	VisitedSpots  pq.StringArray `gorm:"type:text[]"                 json:"visitedSpots"`
	Completed     bool           `gorm:"not null;default:false"      json:"completed"`
	CompletedAt   *time.Time     `json:"completedAt"`
	StartedAt     *time.Time     `json:"startedAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (p *UserWalkProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// All lists every migratable entity in dependency order.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&Walk{},
		&Spot{},
		&Tag{},
		&WalkTag{},
		&WalkComment{},
		&WalkReview{},
		&WalkSubscription{},
		&UserWalkProgress{},
	}
}
