package postgres

import (
	"context"
	"errors"
	"fmt"
	"myJara/domain"
	apperrors "myJara/pkg/errors"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	DB *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{
		DB: db,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint64) (domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return domain.Category{}, fmt.Errorf("context error: %w", err)
	}

	var category domain.Category
	err := r.DB.WithContext(ctx).Where("category_id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Category{}, apperrors.NotFound("category", err)
		}
		return domain.Category{}, fmt.Errorf("failed to find category: %w", err)
	}

	return category, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return domain.Category{}, fmt.Errorf("context error: %w", err)
	}

	var category domain.Category
	err := r.DB.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Category{}, apperrors.NotFound("category", err)
		}
		return domain.Category{}, fmt.Errorf("failed to find category: %w", err)
	}

	return category, nil
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var categories []domain.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Where("category_id = ?", id).Delete(&domain.Category{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("category", nil)
	}

	return nil
}
