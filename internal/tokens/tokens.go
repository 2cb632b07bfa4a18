package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload shared by access and refresh tokens. The two
// classes are told apart by the secret they are signed with, not by a
// claim, so a leaked access token can never pass refresh verification.
type Claims struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Payload struct {
	ID       string
	Email    string
	Username string
}

// Service mints and verifies the two token classes. Access tokens are
// stateless; only refresh tokens are persisted by the caller. Now, when
// set, overrides the issue-time clock; tests use it to mint tokens at a
// chosen instant.
type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) IssueAccess(p Payload) (string, error) {
	return s.sign(p, s.AccessSecret, s.AccessTTL)
}

func (s *Service) IssueRefresh(p Payload) (string, error) {
	return s.sign(p, s.RefreshSecret, s.RefreshTTL)
}

func (s *Service) ParseAccess(raw string) (*Claims, error) {
	return parse(raw, s.AccessSecret)
}

func (s *Service) ParseRefresh(raw string) (*Claims, error) {
	return parse(raw, s.RefreshSecret)
}

func (s *Service) sign(p Payload, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   p.ID,
		Email:    p.Email,
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func parse(raw string, secret []byte) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
