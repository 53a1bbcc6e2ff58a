package postgres

import (
	"context"
	"errors"
	"fmt"
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.DB.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	var user domain.User

	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, apperrors.NotFound("user", err)
		}
		return domain.User{}, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}

	var users []domain.User
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}

	return users, nil
}

// UpdateProfile changes the fields chat shows to the other party.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	result := r.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).
		Select("full_name", "avatar_url", "updated_at").
		Updates(user)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("user", nil)
	}

	return nil
}
