package postgres

import (
	"context"
	"myJara/domain"
	"myJara/internal/testutil"
	apperrors "myJara/pkg/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRoomRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewChatRoomRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	older := &domain.ChatRoomRecord{UserID: "u1", StoreID: "s1", CreatedAt: base, UpdatedAt: base}
	newer := &domain.ChatRoomRecord{UserID: "u1", StoreID: "s2", CreatedAt: base, UpdatedAt: base.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	assert.NotEmpty(t, older.ID)

	t.Run("duplicate pair is rejected", func(t *testing.T) {
		err := repo.Create(ctx, &domain.ChatRoomRecord{UserID: "u1", StoreID: "s1"})
		assert.Error(t, err)
	})

	t.Run("find by id and pair", func(t *testing.T) {
		got, err := repo.FindByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, "s1", got.StoreID)

		got, err = repo.FindByPair(ctx, "u1", "s2")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)
	})

	t.Run("missing room is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "nope")
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

		_, err = repo.FindByPair(ctx, "u2", "s1")
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	})

	t.Run("list by user is newest first", func(t *testing.T) {
		rooms, err := repo.ListByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, newer.ID, rooms[0].ID)
	})

	t.Run("touch moves a room to the top", func(t *testing.T) {
		require.NoError(t, repo.Touch(ctx, older.ID, "latest", base.Add(2*time.Hour)))

		rooms, err := repo.ListByUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, older.ID, rooms[0].ID)
		require.NotNil(t, rooms[0].LastMessagePreview)
		assert.Equal(t, "latest", *rooms[0].LastMessagePreview)

		storeRooms, err := repo.ListByStore(ctx, "s1")
		require.NoError(t, err)
		assert.Len(t, storeRooms, 1)
	})

	t.Run("touch of a missing room", func(t *testing.T) {
		err := repo.Touch(ctx, "nope", "x", base)
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	})
}

func TestChatMessageRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewChatMessageRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	msgs := []*domain.ChatMessage{
		{RoomID: "r1", SenderID: "store-owner", Content: "second", CreatedAt: base.Add(time.Minute)},
		{RoomID: "r1", SenderID: "customer", Content: "first", CreatedAt: base},
		{RoomID: "r1", SenderID: "store-owner", Content: "third", CreatedAt: base.Add(2 * time.Minute)},
		{RoomID: "r2", SenderID: "store-owner", Content: "elsewhere", CreatedAt: base},
	}
	for _, m := range msgs {
		require.NoError(t, repo.Create(ctx, m))
	}

	t.Run("list is oldest first", func(t *testing.T) {
		got, err := repo.ListByRoom(ctx, "r1")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "first", got[0].Content)
		assert.Equal(t, "third", got[2].Content)
	})

	t.Run("unread counts ignore own messages", func(t *testing.T) {
		n, err := repo.CountUnread(ctx, "r1", "customer")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		counts, err := repo.CountUnreadByRooms(ctx, []string{"r1", "r2", "r3"}, "customer")
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts["r1"])
		assert.Equal(t, int64(1), counts["r2"])
		assert.Zero(t, counts["r3"])
	})

	t.Run("mark read is idempotent", func(t *testing.T) {
		n, err := repo.MarkRead(ctx, "r1", "customer")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		n, err = repo.MarkRead(ctx, "r1", "customer")
		require.NoError(t, err)
		assert.Zero(t, n)

		unread, err := repo.CountUnread(ctx, "r1", "customer")
		require.NoError(t, err)
		assert.Zero(t, unread)

		// the store side still has the customer's message unread
		unread, err = repo.CountUnread(ctx, "r1", "store-owner")
		require.NoError(t, err)
		assert.Equal(t, int64(1), unread)
	})

	t.Run("no rooms", func(t *testing.T) {
		counts, err := repo.CountUnreadByRooms(ctx, nil, "customer")
		require.NoError(t, err)
		assert.Empty(t, counts)
	})
}
