package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/hash"
	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/repo"
)

type AuthService struct {
	Repo         *repo.GormRepo
	SitePassword string
}

// VerifySitePassword compares digests so neither content nor length leaks through timing.
func (s *AuthService) VerifySitePassword(password string) bool {
	if s.SitePassword == "" || password == "" {
		return false
	}
	want := sha256.Sum256([]byte(s.SitePassword))
	got := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// Login returns ErrUnauthorized for an unknown user and for a wrong password alike.
// Both paths run one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		hash.BurnCompare(password)
		return nil, ErrUnauthorized
	}

	admin, err := s.Repo.AdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.BurnCompare(password)
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if !hash.CheckPassword(admin.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	return admin, nil
}

func (s *AuthService) Admin(ctx context.Context, id uint) (*models.Admin, error) {
	admin, err := s.Repo.AdminByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	return admin, err
}
