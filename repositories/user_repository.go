package repositories

import (
	"context"
	"errors"

	"condo-app/models"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(DB *gorm.DB) *UserRepository {
	return &UserRepository{DB: DB}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.DB.WithContext(ctx).Create(user).Error; err != nil {
		return pkgerrors.Wrapf(err, "create user %s", user.Username)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "get user %d", id)
	}
	return &user, nil
}

// FindByLogin looks a user up by email or username.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where("email = ? OR username = ?", login, login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find user")
	}
	return &user, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, pkgerrors.Wrap(err, "count users")
	}
	return n, nil
}
