package memory

import (
	"context"
	"myJara/domain"
	"myJara/pkg/logger"
	"myJara/pkg/metrics"
	"sync"
)

const defaultBuffer = 64

type subscriber struct {
	ch chan domain.ChatMessage
}

// RoomFeed delivers chat messages to subscribers in this process only.
// It backs single-instance deployments and tests.
type RoomFeed struct {
	mu     sync.RWMutex
	rooms  map[string]map[*subscriber]struct{}
	buffer int
}

func NewRoomFeed(buffer int) *RoomFeed {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &RoomFeed{
		rooms:  make(map[string]map[*subscriber]struct{}),
		buffer: buffer,
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the message.
func (f *RoomFeed) Publish(ctx context.Context, msg domain.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.rooms[msg.RoomID] {
		select {
		case sub.ch <- msg:
		default:
			metrics.ChatFeedDropped.Inc()
			logger.Warn("chat subscriber is behind, message dropped", "room_id", msg.RoomID)
		}
	}

	return nil
}

func (f *RoomFeed) Subscribe(ctx context.Context, roomID string) (<-chan domain.ChatMessage, func() error, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sub := &subscriber{ch: make(chan domain.ChatMessage, f.buffer)}

	f.mu.Lock()
	if f.rooms[roomID] == nil {
		f.rooms[roomID] = make(map[*subscriber]struct{})
	}
	f.rooms[roomID][sub] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() error {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			delete(f.rooms[roomID], sub)
			if len(f.rooms[roomID]) == 0 {
				delete(f.rooms, roomID)
			}
			close(sub.ch)
		})
		return nil
	}

	return sub.ch, cancel, nil
}

// Subscribers reports how many live subscriptions a room has.
func (f *RoomFeed) Subscribers(roomID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms[roomID])
}
