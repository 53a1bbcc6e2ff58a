package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ViewerRoleUser  = "user"
	ViewerRoleStore = "store"
)

// CREATE TABLE public.chat_rooms (
//     id                    UUID PRIMARY KEY,
//     user_id               UUID NOT NULL REFERENCES users(id),
//     store_id              UUID NOT NULL REFERENCES stores(id),
//     last_message_preview  TEXT,
//     created_at            TIMESTAMPTZ DEFAULT NOW(),
//     updated_at            TIMESTAMPTZ DEFAULT NOW(),
//     UNIQUE (user_id, store_id)
// );

// ChatRoomRecord is the stored room between one user and one store.
type ChatRoomRecord struct {
	ID                 string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID             string    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_chat_rooms_pair" json:"user_id"`
	StoreID            string    `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_chat_rooms_pair" json:"store_id"`
	LastMessagePreview *string   `gorm:"column:last_message_preview" json:"last_message_preview,omitempty"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

func (ChatRoomRecord) TableName() string {
	return "chat_rooms"
}

func (r *ChatRoomRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ChatMessage is append-only; only IsRead ever changes.
type ChatMessage struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RoomID    string    `gorm:"column:room_id;type:uuid;index;not null" json:"room_id"`
	SenderID  string    `gorm:"column:sender_id;type:uuid;not null" json:"sender_id"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	IsRead    bool      `gorm:"column:is_read;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ChatRoom is a room as seen by one viewer, with the other party's identity merged in.
type ChatRoom struct {
	ID                      string    `json:"id"`
	CounterpartyID          string    `json:"counterparty_id"`
	CounterpartyDisplayName string    `json:"counterparty_display_name"`
	CounterpartyAvatarURL   *string   `json:"counterparty_avatar_url,omitempty"`
	LastMessagePreview      *string   `json:"last_message_preview,omitempty"`
	UpdatedAt               time.Time `json:"updated_at"`
	UnreadCount             int64     `json:"unread_count"`
	HasUnread               bool      `json:"has_unread"`
}

// Viewer is who is asking. UserID is empty when nobody is authenticated.
type Viewer struct {
	Role   string
	UserID string
}

// Key identifies the query a RoomList answers, so callers can drop stale responses.
func (v Viewer) Key() string {
	return v.Role + ":" + v.UserID
}

// RoomList carries rooms or, when the store was unreachable, an empty list with Degraded set.
type RoomList struct {
	Key      string     `json:"key"`
	Rooms    []ChatRoom `json:"rooms"`
	Degraded bool       `json:"degraded"`
	Error    string     `json:"error,omitempty"`
}

type MessageList struct {
	RoomID   string        `json:"room_id"`
	Messages []ChatMessage `json:"messages"`
	Degraded bool          `json:"degraded"`
	Error    string        `json:"error,omitempty"`
}
