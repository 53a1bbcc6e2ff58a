package postgres

import (
	"context"
	"errors"
	"fmt"
	"myJara/domain"
	apperrors "myJara/pkg/errors"

	"gorm.io/gorm"
)

type StoreRepository struct {
	DB *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{
		DB: db,
	}
}

func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(store).Error; err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	return nil
}

func (r *StoreRepository) FindByID(ctx context.Context, id string) (domain.Store, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *StoreRepository) FindByOwner(ctx context.Context, ownerID string) (domain.Store, error) {
	return r.first(ctx, "owner_id = ?", ownerID)
}

func (r *StoreRepository) first(ctx context.Context, where string, arg string) (domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return domain.Store{}, fmt.Errorf("context error: %w", err)
	}

	var store domain.Store
	err := r.DB.WithContext(ctx).Where(where, arg).First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Store{}, apperrors.NotFound("store", err)
		}
		return domain.Store{}, fmt.Errorf("failed to find store: %w", err)
	}

	return store, nil
}

func (r *StoreRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if len(ids) == 0 {
		return []domain.Store{}, nil
	}

	var stores []domain.Store
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to find stores: %w", err)
	}

	return stores, nil
}
