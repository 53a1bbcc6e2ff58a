package chat

import (
	"context"
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"myJara/pkg/logger"
	"myJara/pkg/metrics"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ---- Repository interfaces ----

type RoomRepository interface {
	FindByID(ctx context.Context, id string) (domain.ChatRoomRecord, error)
	FindByPair(ctx context.Context, userID, storeID string) (domain.ChatRoomRecord, error)
	Create(ctx context.Context, room *domain.ChatRoomRecord) error
	ListByUser(ctx context.Context, userID string) ([]domain.ChatRoomRecord, error)
	ListByStore(ctx context.Context, storeID string) ([]domain.ChatRoomRecord, error)
	Touch(ctx context.Context, roomID, preview string, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	ListByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error)
	MarkRead(ctx context.Context, roomID, viewerID string) (int64, error)
	CountUnread(ctx context.Context, roomID, viewerID string) (int64, error)
	CountUnreadByRooms(ctx context.Context, roomIDs []string, viewerID string) (map[string]int64, error)
}

type StoreRepository interface {
	FindByID(ctx context.Context, id string) (domain.Store, error)
	FindByOwner(ctx context.Context, ownerID string) (domain.Store, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Store, error)
}

type UserRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

// MessageFeed pushes new messages to live subscribers of a room.
// The returned cancel func closes the channel.
type MessageFeed interface {
	Publish(ctx context.Context, msg domain.ChatMessage) error
	Subscribe(ctx context.Context, roomID string) (<-chan domain.ChatMessage, func() error, error)
}

type Config struct {
	PreviewLength    int
	MaxMessageLength int
	Now              func() time.Time
}

const (
	defaultPreviewLength    = 80
	defaultMaxMessageLength = 2000

	unknownStoreName    = "Unknown store"
	unknownCustomerName = "Unknown customer"
)

// ---- Service ----

type ChatService struct {
	rooms    RoomRepository
	messages MessageRepository
	stores   StoreRepository
	users    UserRepository
	feed     MessageFeed
	cfg      Config
}

func NewChatService(
	rooms RoomRepository,
	messages MessageRepository,
	stores StoreRepository,
	users UserRepository,
	feed MessageFeed,
	cfg Config,
) *ChatService {
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = defaultPreviewLength
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = defaultMaxMessageLength
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &ChatService{
		rooms:    rooms,
		messages: messages,
		stores:   stores,
		users:    users,
		feed:     feed,
		cfg:      cfg,
	}
}

// ListRooms returns the viewer's rooms, most recently active first.
// Store failures do not surface as errors: the list comes back empty with Degraded set.
func (s *ChatService) ListRooms(ctx context.Context, viewer domain.Viewer) (domain.RoomList, error) {
	list := domain.RoomList{Key: viewer.Key(), Rooms: []domain.ChatRoom{}}

	if viewer.UserID == "" {
		return list, apperrors.Unauthorized("login required")
	}

	if err := ctx.Err(); err != nil {
		return degradeRooms(list, err), nil
	}

	var (
		rooms []domain.ChatRoom
		err   error
	)

	switch viewer.Role {
	case domain.ViewerRoleStore:
		store, findErr := s.stores.FindByOwner(ctx, viewer.UserID)
		if findErr != nil {
			if apperrors.Is(findErr, apperrors.CodeNotFound) {
				return list, nil
			}
			return degradeRooms(list, findErr), nil
		}

		records, listErr := s.rooms.ListByStore(ctx, store.ID)
		if listErr != nil {
			return degradeRooms(list, listErr), nil
		}
		rooms, err = s.mergeUsers(ctx, records)

	case domain.ViewerRoleUser, "":
		records, listErr := s.rooms.ListByUser(ctx, viewer.UserID)
		if listErr != nil {
			return degradeRooms(list, listErr), nil
		}
		rooms, err = s.mergeStores(ctx, records)

	default:
		return list, apperrors.Validation("unknown viewer role: " + viewer.Role)
	}

	if err != nil {
		return degradeRooms(list, err), nil
	}

	if len(rooms) > 0 {
		ids := make([]string, 0, len(rooms))
		for _, r := range rooms {
			ids = append(ids, r.ID)
		}

		unread, err := s.messages.CountUnreadByRooms(ctx, ids, viewer.UserID)
		if err != nil {
			return degradeRooms(list, err), nil
		}
		for i := range rooms {
			rooms[i].UnreadCount = unread[rooms[i].ID]
			rooms[i].HasUnread = rooms[i].UnreadCount > 0
		}
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})

	list.Rooms = rooms
	return list, nil
}

// mergeUsers annotates store-side rooms with the customer's identity.
func (s *ChatService) mergeUsers(ctx context.Context, records []domain.ChatRoomRecord) ([]domain.ChatRoom, error) {
	if len(records) == 0 {
		return []domain.ChatRoom{}, nil
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.UserID)
	}

	users, err := s.users.FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]domain.ChatRoom, 0, len(records))
	for _, r := range records {
		room := newRoomView(r, r.UserID)
		if u, ok := byID[r.UserID]; ok {
			room.CounterpartyDisplayName = u.FullName
			room.CounterpartyAvatarURL = optional(u.AvatarURL)
		} else {
			room.CounterpartyDisplayName = unknownCustomerName
		}
		out = append(out, room)
	}

	return out, nil
}

// mergeStores annotates user-side rooms with the store's identity.
func (s *ChatService) mergeStores(ctx context.Context, records []domain.ChatRoomRecord) ([]domain.ChatRoom, error) {
	if len(records) == 0 {
		return []domain.ChatRoom{}, nil
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.StoreID)
	}

	stores, err := s.stores.FindByIDs(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Store, len(stores))
	for _, st := range stores {
		byID[st.ID] = st
	}

	out := make([]domain.ChatRoom, 0, len(records))
	for _, r := range records {
		room := newRoomView(r, r.StoreID)
		if st, ok := byID[r.StoreID]; ok {
			room.CounterpartyDisplayName = st.Name
			room.CounterpartyAvatarURL = optional(st.LogoURL)
		} else {
			room.CounterpartyDisplayName = unknownStoreName
		}
		out = append(out, room)
	}

	return out, nil
}

// ListMessages returns every message in the room, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, viewerID, roomID string) (domain.MessageList, error) {
	list := domain.MessageList{RoomID: roomID, Messages: []domain.ChatMessage{}}

	if _, err := s.authorizeRoom(ctx, viewerID, roomID); err != nil {
		if apperrors.Is(err, apperrors.CodeUpstream) {
			return degradeMessages(list, err), nil
		}
		return list, err
	}

	msgs, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		return degradeMessages(list, err), nil
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	list.Messages = msgs
	return list, nil
}

// SendMessage appends a message, refreshes the room preview and notifies live subscribers.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID, content string) (domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ChatMessage{}, apperrors.Validation("message content is required")
	}
	if utf8.RuneCountInString(content) > s.cfg.MaxMessageLength {
		return domain.ChatMessage{}, apperrors.Validation("message content is too long")
	}

	if err := ctx.Err(); err != nil {
		return domain.ChatMessage{}, apperrors.Upstream("context error", err)
	}

	if _, err := s.authorizeRoom(ctx, senderID, roomID); err != nil {
		return domain.ChatMessage{}, err
	}

	msg := domain.ChatMessage{
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: s.cfg.Now(),
	}

	if err := s.messages.Create(ctx, &msg); err != nil {
		logger.Error("failed to persist chat message", "room_id", roomID, err)
		return domain.ChatMessage{}, apperrors.Upstream("failed to send message", err)
	}
	metrics.ChatMessagesSent.Inc()

	// the message is stored; a stale preview is corrected by the next send
	if err := s.rooms.Touch(ctx, roomID, Preview(content, s.cfg.PreviewLength), msg.CreatedAt); err != nil {
		logger.Error("failed to update chat room preview", "room_id", roomID, err)
	}

	if s.feed != nil {
		if err := s.feed.Publish(ctx, msg); err != nil {
			logger.Warn("failed to publish chat message", "room_id", roomID, "message_id", msg.ID, err)
		}
	}

	return msg, nil
}

// OpenRoom returns the room between userID and storeID, creating it on first contact.
func (s *ChatService) OpenRoom(ctx context.Context, userID, storeID string) (domain.ChatRoomRecord, error) {
	if userID == "" {
		return domain.ChatRoomRecord{}, apperrors.Unauthorized("login required")
	}
	if storeID == "" {
		return domain.ChatRoomRecord{}, apperrors.Validation("store id is required")
	}

	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return domain.ChatRoomRecord{}, upstreamUnlessApp(err, "failed to load store")
	}
	if store.OwnerID == userID {
		return domain.ChatRoomRecord{}, apperrors.Validation("cannot open a chat with your own store")
	}

	room, err := s.rooms.FindByPair(ctx, userID, storeID)
	if err == nil {
		return room, nil
	}
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		return domain.ChatRoomRecord{}, apperrors.Upstream("failed to load chat room", err)
	}

	now := s.cfg.Now()
	room = domain.ChatRoomRecord{
		UserID:    userID,
		StoreID:   storeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.rooms.Create(ctx, &room); err != nil {
		// lost a race with the other party's first message
		if existing, findErr := s.rooms.FindByPair(ctx, userID, storeID); findErr == nil {
			return existing, nil
		}
		logger.Error("failed to create chat room", "user_id", userID, "store_id", storeID, err)
		return domain.ChatRoomRecord{}, apperrors.Upstream("failed to open chat room", err)
	}

	logger.Info("chat room opened", "room_id", room.ID, "store_id", storeID)
	return room, nil
}

// MarkRead flags every message in the room not sent by viewerID as read.
// It returns how many messages changed, so a repeated call returns 0.
func (s *ChatService) MarkRead(ctx context.Context, roomID, viewerID string) (int64, error) {
	if _, err := s.authorizeRoom(ctx, viewerID, roomID); err != nil {
		return 0, err
	}

	n, err := s.messages.MarkRead(ctx, roomID, viewerID)
	if err != nil {
		return 0, apperrors.Upstream("failed to mark messages read", err)
	}

	return n, nil
}

func (s *ChatService) UnreadCount(ctx context.Context, roomID, viewerID string) (int64, error) {
	if _, err := s.authorizeRoom(ctx, viewerID, roomID); err != nil {
		return 0, err
	}

	n, err := s.messages.CountUnread(ctx, roomID, viewerID)
	if err != nil {
		return 0, apperrors.Upstream("failed to count unread messages", err)
	}

	return n, nil
}

// ---- Live feed ----

// Subscription is a live feed of one room. Release it with Unsubscribe.
type Subscription struct {
	RoomID string

	cancel func() error
	once   sync.Once
	err    error
	stop   chan struct{}
	done   chan struct{}
}

// Unsubscribe stops delivery. No new onMessage call starts once it returns.
// It is safe to call more than once.
func (s *Subscription) Unsubscribe() error {
	s.once.Do(func() {
		close(s.stop)
		s.err = s.cancel()
	})
	return s.err
}

// Done is closed once the delivery goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe calls onMessage for every message appended to the room until the
// subscription is released or ctx ends. Calls to onMessage are sequential.
func (s *ChatService) Subscribe(
	ctx context.Context,
	viewerID string,
	roomID string,
	onMessage func(domain.ChatMessage),
) (*Subscription, error) {
	if s.feed == nil {
		return nil, apperrors.Internal("realtime feed is not configured", nil)
	}

	if _, err := s.authorizeRoom(ctx, viewerID, roomID); err != nil {
		return nil, err
	}

	ch, cancel, err := s.feed.Subscribe(ctx, roomID)
	if err != nil {
		return nil, apperrors.Upstream("failed to subscribe to room", err)
	}

	sub := &Subscription{
		RoomID: roomID,
		cancel: cancel,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	metrics.ChatActiveSubscriptions.Inc()
	go func() {
		defer close(sub.done)
		defer metrics.ChatActiveSubscriptions.Dec()

		for {
			select {
			case <-sub.stop:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				// buffered messages must not outlive Unsubscribe
				select {
				case <-sub.stop:
					return
				default:
				}
				onMessage(msg)
			case <-ctx.Done():
				if err := sub.Unsubscribe(); err != nil {
					logger.Warn("failed to release room subscription", "room_id", roomID, err)
				}
				return
			}
		}
	}()

	return sub, nil
}

// ---- helpers ----

// authorizeRoom loads the room and checks that viewerID is its user or owns its store.
func (s *ChatService) authorizeRoom(ctx context.Context, viewerID, roomID string) (domain.ChatRoomRecord, error) {
	if viewerID == "" {
		return domain.ChatRoomRecord{}, apperrors.Unauthorized("login required")
	}
	if roomID == "" {
		return domain.ChatRoomRecord{}, apperrors.Validation("room id is required")
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return domain.ChatRoomRecord{}, upstreamUnlessApp(err, "failed to load chat room")
	}

	if room.UserID == viewerID {
		return room, nil
	}

	store, err := s.stores.FindByID(ctx, room.StoreID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return domain.ChatRoomRecord{}, apperrors.Forbidden("not a participant of this chat")
		}
		return domain.ChatRoomRecord{}, apperrors.Upstream("failed to load store", err)
	}

	if store.OwnerID != viewerID {
		return domain.ChatRoomRecord{}, apperrors.Forbidden("not a participant of this chat")
	}

	return room, nil
}

const ellipsis = "..."

// Preview shortens content to at most n runes, counting the "..." that marks the cut.
func Preview(content string, n int) string {
	content = strings.Join(strings.Fields(content), " ")
	if n <= 0 || utf8.RuneCountInString(content) <= n {
		return content
	}
	runes := []rune(content)
	if n <= len(ellipsis) {
		return strings.TrimSpace(string(runes[:n]))
	}
	return strings.TrimSpace(string(runes[:n-len(ellipsis)])) + ellipsis
}

func newRoomView(r domain.ChatRoomRecord, counterpartyID string) domain.ChatRoom {
	return domain.ChatRoom{
		ID:                 r.ID,
		CounterpartyID:     counterpartyID,
		LastMessagePreview: r.LastMessagePreview,
		UpdatedAt:          r.UpdatedAt,
	}
}

func degradeRooms(list domain.RoomList, err error) domain.RoomList {
	logger.Error("chat rooms unavailable", "key", list.Key, err)
	metrics.ChatDegradedReads.WithLabelValues("list_rooms").Inc()
	list.Rooms = []domain.ChatRoom{}
	list.Degraded = true
	list.Error = "chat rooms are temporarily unavailable"
	return list
}

func degradeMessages(list domain.MessageList, err error) domain.MessageList {
	logger.Error("chat messages unavailable", "room_id", list.RoomID, err)
	metrics.ChatDegradedReads.WithLabelValues("list_messages").Inc()
	list.Messages = []domain.ChatMessage{}
	list.Degraded = true
	list.Error = "messages are temporarily unavailable"
	return list
}

// upstreamUnlessApp keeps typed errors from repositories and wraps everything else.
func upstreamUnlessApp(err error, message string) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Upstream(message, err)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
