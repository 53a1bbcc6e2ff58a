package rest

import (
	"context"
	"myJara/business/chat"
	"myJara/domain"
	"myJara/internal/middleware"
	"myJara/pkg/logger"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type ChatService interface {
	ListRooms(ctx context.Context, viewer domain.Viewer) (domain.RoomList, error)
	OpenRoom(ctx context.Context, userID, storeID string) (domain.ChatRoomRecord, error)
	ListMessages(ctx context.Context, viewerID, roomID string) (domain.MessageList, error)
	SendMessage(ctx context.Context, roomID, senderID, content string) (domain.ChatMessage, error)
	MarkRead(ctx context.Context, roomID, viewerID string) (int64, error)
	Subscribe(ctx context.Context, viewerID, roomID string, onMessage func(domain.ChatMessage)) (*chat.Subscription, error)
}

type ChatHandler struct {
	chatService ChatService
	validator   *validator.Validate
	timeout     time.Duration
	stream      streamConfig
}

func NewChatHandler(chatService ChatService, allowOrigins []string, sendBuffer int) *ChatHandler {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}

	return &ChatHandler{
		chatService: chatService,
		validator:   validator.New(),
		timeout:     defaultTimeout,
		stream: streamConfig{
			allowOrigins: allowOrigins,
			sendBuffer:   sendBuffer,
		},
	}
}

type OpenRoomRequest struct {
	StoreID string `json:"store_id" validate:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type MarkReadResponse struct {
	RoomID  string `json:"room_id"`
	Updated int64  `json:"updated"`
}

// ListRooms handles GET /chat/rooms?role=user|store. A degraded list is still a 200.
func (h *ChatHandler) ListRooms(c echo.Context) error {
	role := c.QueryParam("role")
	if role == "" {
		role = domain.ViewerRoleUser
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, err := h.chatService.ListRooms(ctx, domain.Viewer{Role: role, UserID: middleware.UserID(c)})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *ChatHandler) OpenRoom(c echo.Context) error {
	var req OpenRoomRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return badRequest(c, "invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	room, err := h.chatService.OpenRoom(ctx, middleware.UserID(c), req.StoreID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(room))
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	list, err := h.chatService.ListMessages(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(list))
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return badRequest(c, "invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	msg, err := h.chatService.SendMessage(ctx, c.Param("id"), middleware.UserID(c), req.Content)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(msg))
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	roomID := c.Param("id")
	n, err := h.chatService.MarkRead(ctx, roomID, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(MarkReadResponse{RoomID: roomID, Updated: n}))
}
