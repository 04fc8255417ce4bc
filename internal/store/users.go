package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"eden/internal/apperr"
	"eden/internal/models"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create inserts u, reporting a ConflictError when the username or email is taken.
func (s *Users) Create(ctx context.Context, u *models.User) error {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", u.Username).Count(&cnt).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if cnt > 0 {
		return apperr.Conflict("store.CreateUser", "username already taken")
	}
	if u.Email != nil {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", *u.Email).Count(&cnt).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if cnt > 0 {
			return apperr.Conflict("store.CreateUser", "email already registered")
		}
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with another signup; either unique key may have fired
			return apperr.Conflict("store.CreateUser", "username or email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Users) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "store.GetUser", "user %d not found", id)
	}
	return &u, nil
}

func (s *Users) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "store.UserByName", "user %q not found", username)
	}
	return &u, nil
}

// SetRole changes the role of the named user.
func (s *Users) SetRole(ctx context.Context, username string, role models.Role) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("set role of %q: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("store.SetRole", "user %q not found", username)
	}
	return nil
}
