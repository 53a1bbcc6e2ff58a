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

type ChatRoomRepository struct {
	DB *gorm.DB
}

func NewChatRoomRepository(db *gorm.DB) *ChatRoomRepository {
	return &ChatRoomRepository{
		DB: db,
	}
}

func (r *ChatRoomRepository) FindByID(ctx context.Context, id string) (domain.ChatRoomRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatRoomRecord{}, fmt.Errorf("context error: %w", err)
	}

	var room domain.ChatRoomRecord
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatRoomRecord{}, apperrors.NotFound("chat room", err)
		}
		return domain.ChatRoomRecord{}, fmt.Errorf("failed to find chat room: %w", err)
	}

	return room, nil
}

func (r *ChatRoomRepository) FindByPair(ctx context.Context, userID, storeID string) (domain.ChatRoomRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatRoomRecord{}, fmt.Errorf("context error: %w", err)
	}

	var room domain.ChatRoomRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ChatRoomRecord{}, apperrors.NotFound("chat room", err)
		}
		return domain.ChatRoomRecord{}, fmt.Errorf("failed to find chat room: %w", err)
	}

	return room, nil
}

func (r *ChatRoomRepository) Create(ctx context.Context, room *domain.ChatRoomRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("failed to create chat room: %w", err)
	}

	return nil
}

func (r *ChatRoomRepository) ListByUser(ctx context.Context, userID string) ([]domain.ChatRoomRecord, error) {
	return r.list(ctx, "user_id = ?", userID)
}

func (r *ChatRoomRepository) ListByStore(ctx context.Context, storeID string) ([]domain.ChatRoomRecord, error) {
	return r.list(ctx, "store_id = ?", storeID)
}

func (r *ChatRoomRepository) list(ctx context.Context, where string, arg string) ([]domain.ChatRoomRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rooms []domain.ChatRoomRecord
	err := r.DB.WithContext(ctx).
		Where(where, arg).
		Order("updated_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}

	return rooms, nil
}

// Touch records the latest activity of a room.
func (r *ChatRoomRepository) Touch(ctx context.Context, roomID, preview string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).
		Model(&domain.ChatRoomRecord{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message_preview": preview,
			"updated_at":           at.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to touch chat room: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("chat room", nil)
	}

	return nil
}
