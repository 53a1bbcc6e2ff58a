package category

import (
	"context"
	"fmt"
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"myJara/pkg/logger"
	"strings"
)

// CategoryRepository contract interface
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	FindByID(ctx context.Context, id uint64) (domain.Category, error)
	FindByName(ctx context.Context, name string) (domain.Category, error)
	FindAll(ctx context.Context) ([]domain.Category, error)
	Delete(ctx context.Context, id uint64) error
}

type categoryService struct {
	categoryRepo CategoryRepository
}

func NewCategoryService(categoryRepo CategoryRepository) *categoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
	}
}

func (s *categoryService) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get all categories")
		return nil, fmt.Errorf("context error: %w", err)
	}

	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to find all categories", err)
		return nil, apperrors.Upstream("failed to load categories", err)
	}

	return categories, nil
}

func (s *categoryService) GetCategoryByID(ctx context.Context, id uint64) (domain.Category, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get category by id")
		return domain.Category{}, fmt.Errorf("context error: %w", err)
	}

	if id == 0 {
		logger.Error("Invalid category id")
		return domain.Category{}, apperrors.Validation("invalid category id")
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to find category", err)
		return domain.Category{}, err
	}

	return category, nil
}

// CreateCategory adds a category; names are unique regardless of case.
func (s *categoryService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when create category")
		return nil, fmt.Errorf("context error: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		logger.Error("Invalid category data: name is required")
		return nil, apperrors.Validation("category name is required")
	}

	_, err := s.categoryRepo.FindByName(ctx, name)
	switch {
	case err == nil:
		return nil, apperrors.Conflict("category already exists")
	case !apperrors.Is(err, apperrors.CodeNotFound):
		logger.Error("failed to check category name", err)
		return nil, apperrors.Upstream("failed to create category", err)
	}

	category := &domain.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		logger.Error("failed to create new category", err)
		return nil, apperrors.Upstream("failed to create category", err)
	}

	logger.Info("category created successfully", "category_id", category.CategoryID)

	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uint64) error {
	if id == 0 {
		logger.Error("Invalid category id when deleting category")
		return apperrors.Validation("invalid category id")
	}

	if err := ctx.Err(); err != nil {
		logger.Error("context error when deleting category")
		return fmt.Errorf("context error: %w", err)
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		logger.Error("failed to delete category", err)
		return err
	}

	logger.Info("category deleted successfully", "category_id", id)

	return nil
}
