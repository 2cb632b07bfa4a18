package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neibo-app/neibo/internal/apperr"
	"github.com/neibo-app/neibo/internal/hash"
	"github.com/neibo-app/neibo/internal/models"
	"github.com/neibo-app/neibo/internal/tokens"
)

// AuthService owns the register / login / refresh flows and the refresh
// token rows backing them.
type AuthService struct {
	DB         *gorm.DB
	Tokens     *tokens.Service
	BcryptCost int
}

type TokenPair struct {
	Access  string
	Refresh string
}

type RegisterInput struct {
	Email          string
	Username       string
	Password       string
	FirstName      string
	LastName       string
	Bio            string
	ProfilePicture string
}

// Register checks email then username uniqueness, hashes the password and
// persists the user together with an initial refresh token row. The
// uniqueness checks are a fast path; the unique indexes on users are the
// authoritative guard when two registrations race.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, *TokenPair, error) {
	db := s.DB.WithContext(ctx)

	var existing models.User
	err := db.Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, nil, apperr.Validation("Email already in use")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	err = db.Where("username = ?", in.Username).First(&existing).Error
	if err == nil {
		return nil, nil, apperr.Validation("Username already in use")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	digest, err := hash.Password(in.Password, s.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := models.User{
		Email:          in.Email,
		Username:       in.Username,
		Password:       digest,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Bio:            in.Bio,
		ProfilePicture: in.ProfilePicture,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, nil, err
	}

	pair, err := s.issueAndStore(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	public := user.Public()
	return &public, pair, nil
}

// Login verifies credentials and replaces every refresh token the user
// holds with a fresh one, so a login invalidates all previously issued
// refresh tokens. Lookup and password failures are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.PublicUser, *TokenPair, error) {
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, nil, err
	}

	if !hash.Check(user.Password, password) {
		return nil, nil, apperr.Unauthorized("Invalid credentials")
	}

	if err := db.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
		return nil, nil, err
	}

	pair, err := s.issueAndStore(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	public := user.Public()
	return &public, pair, nil
}

// Refresh rotates a refresh token: the presented token must verify
// against the refresh secret AND match a persisted, unexpired row for the
// same user. Rotation replaces only the presented token, unlike login's
// delete-all, so one stolen token is good for at most one use.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	db := s.DB.WithContext(ctx)

	claims, err := s.Tokens.ParseRefresh(raw)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	var stored models.RefreshToken
	err = db.Where("token = ? AND user_id = ? AND expires_at > ?", raw, userID, time.Now()).
		First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("Invalid or expired refresh token")
		}
		return nil, err
	}

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("User not found or inactive")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("User not found or inactive")
	}

	if err := db.Where("token = ?", raw).Delete(&models.RefreshToken{}).Error; err != nil {
		return nil, err
	}

	return s.issueAndStore(ctx, &user)
}

func (s *AuthService) issueAndStore(ctx context.Context, user *models.User) (*TokenPair, error) {
	payload := tokens.Payload{
		ID:       user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
	}

	access, err := s.Tokens.IssueAccess(payload)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefresh(payload)
	if err != nil {
		return nil, err
	}

	row := models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(s.Tokens.RefreshTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}
