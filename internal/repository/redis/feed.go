package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"myJara/domain"
	"myJara/pkg/logger"
	"myJara/pkg/metrics"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	roomChannelPrefix = "chat:room:"
	defaultBuffer     = 64
)

// RoomFeed fans chat messages out to every API instance through redis pub/sub.
// Delivery is at most once; subscribers that miss messages refetch history.
type RoomFeed struct {
	client *redis.Client
	buffer int
}

func NewRoomFeed(client *redis.Client, buffer int) *RoomFeed {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &RoomFeed{
		client: client,
		buffer: buffer,
	}
}

func RoomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

func (f *RoomFeed) Publish(ctx context.Context, msg domain.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	if err := f.client.Publish(ctx, RoomChannel(msg.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish chat message: %w", err)
	}

	return nil
}

// Subscribe returns once redis has confirmed the subscription.
// The returned func closes the subscription and the channel.
func (f *RoomFeed) Subscribe(ctx context.Context, roomID string) (<-chan domain.ChatMessage, func() error, error) {
	pubsub := f.client.Subscribe(ctx, RoomChannel(roomID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to room %s: %w", roomID, err)
	}

	out := make(chan domain.ChatMessage, f.buffer)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)

		src := pubsub.Channel()
		for {
			select {
			case <-stop:
				return
			case m, ok := <-src:
				if !ok {
					return
				}
				msg, err := DecodeMessage(m.Payload)
				if err != nil {
					logger.Warn("dropping malformed chat payload", "channel", m.Channel, err)
					continue
				}
				select {
				case out <- msg:
				case <-stop:
					return
				default:
					metrics.ChatFeedDropped.Inc()
					logger.Warn("chat subscriber is behind, message dropped", "room_id", roomID)
				}
			}
		}
	}()

	var once sync.Once
	var closeErr error
	cancel := func() error {
		once.Do(func() {
			close(stop)
			closeErr = pubsub.Close()
			<-done
		})
		return closeErr
	}

	return out, cancel, nil
}

func DecodeMessage(payload string) (domain.ChatMessage, error) {
	var msg domain.ChatMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to unmarshal chat message: %w", err)
	}
	if msg.ID == "" || msg.RoomID == "" {
		return domain.ChatMessage{}, fmt.Errorf("chat message without id or room")
	}
	return msg, nil
}
