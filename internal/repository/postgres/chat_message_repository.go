package postgres

import (
	"context"
	"fmt"
	"myJara/domain"

	"gorm.io/gorm"
)

type ChatMessageRepository struct {
	DB *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) *ChatMessageRepository {
	return &ChatMessageRepository{
		DB: db,
	}
}

func (r *ChatMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	msg.CreatedAt = msg.CreatedAt.UTC()
	if err := r.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}

	return nil
}

func (r *ChatMessageRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var msgs []domain.ChatMessage
	err := r.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	return msgs, nil
}

func (r *ChatMessageRepository) unread(ctx context.Context, viewerID string) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Where("sender_id <> ? AND is_read = ?", viewerID, false)
}

// MarkRead flips is_read on messages the viewer received and returns how many changed.
func (r *ChatMessageRepository) MarkRead(ctx context.Context, roomID, viewerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	result := r.unread(ctx, viewerID).
		Where("room_id = ?", roomID).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *ChatMessageRepository) CountUnread(ctx context.Context, roomID, viewerID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	var n int64
	err := r.unread(ctx, viewerID).Where("room_id = ?", roomID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}

	return n, nil
}

func (r *ChatMessageRepository) CountUnreadByRooms(ctx context.Context, roomIDs []string, viewerID string) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	counts := make(map[string]int64, len(roomIDs))
	if len(roomIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		RoomID string
		N      int64
	}
	err := r.unread(ctx, viewerID).
		Select("room_id, COUNT(*) AS n").
		Where("room_id IN ?", roomIDs).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}

	for _, row := range rows {
		counts[row.RoomID] = row.N
	}

	return counts, nil
}
