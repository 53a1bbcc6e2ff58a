package rest_test

import (
	"context"
	"encoding/json"
	"myJara/app/echo-server/router"
	"myJara/business/chat"
	"myJara/business/store"
	"myJara/domain"
	"myJara/internal/middleware"
	"myJara/internal/repository/memory"
	"myJara/internal/repository/postgres"
	"myJara/internal/rest"
	"myJara/internal/testutil"
	"myJara/pkg/utils"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "handler-test-secret"

type api struct {
	e        *echo.Echo
	customer domain.User
	owner    domain.User
	outsider domain.User
	store    domain.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()

	db := testutil.NewDB(t)
	ctx := context.Background()

	users := postgres.NewUserRepository(db)
	stores := postgres.NewStoreRepository(db)

	a := &api{
		customer: domain.User{FullName: "Ada Obi", Email: "ada@example.com"},
		owner:    domain.User{FullName: "Bola Ade", Email: "bola@example.com"},
		outsider: domain.User{FullName: "Chidi Eze", Email: "chidi@example.com"},
	}
	for _, u := range []*domain.User{&a.customer, &a.owner, &a.outsider} {
		require.NoError(t, users.Create(ctx, u))
	}
	a.store = domain.Store{OwnerID: a.owner.ID, Name: "Bola Wholesale", Kind: domain.StoreKindWholesaler}
	require.NoError(t, stores.Create(ctx, &a.store))

	chatService := chat.NewChatService(
		postgres.NewChatRoomRepository(db),
		postgres.NewChatMessageRepository(db),
		stores,
		users,
		memory.NewRoomFeed(8),
		chat.Config{},
	)

	a.e = echo.New()
	a.e.HTTPErrorHandler = middleware.ErrorHandler
	group := a.e.Group("/api/v1")
	auth := middleware.AuthMiddleware(secret)
	router.SetupChatRoutes(group, rest.NewChatHandler(chatService, []string{"*"}, 8), auth)
	router.SetupStoreRoutes(group, rest.NewStoreHandler(store.NewStoreService(stores, validator.New(), 100)), auth)

	return a
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := utils.GenerateJWT(userID, domain.RoleCustomer, secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *api) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, userID))
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// openRoom opens the customer's room with the store and returns its id.
func (a *api) openRoom(t *testing.T) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/v1/chat/rooms", a.customer.ID, `{"store_id":"`+a.store.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the envelope is not ours; find the room id in the raw body
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	id := findString(body, "id")
	require.NotEmpty(t, id)
	return id
}

func findString(v any, key string) string {
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t[key].(string); ok {
			return s
		}
		for _, child := range t {
			if s := findString(child, key); s != "" {
				return s
			}
		}
	case []any:
		for _, child := range t {
			if s := findString(child, key); s != "" {
				return s
			}
		}
	}
	return ""
}

func TestChatHandler_RequiresAuth(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/chat/rooms", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHandler_SendAndList(t *testing.T) {
	a := newAPI(t)
	roomID := a.openRoom(t)

	rec := a.do(t, http.MethodPost, "/api/v1/chat/rooms/"+roomID+"/messages", a.customer.ID, `{"content":"hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"content":"hello"`)

	rec = a.do(t, http.MethodGet, "/api/v1/chat/rooms/"+roomID+"/messages", a.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":"hello"`)
	assert.Contains(t, rec.Body.String(), `"degraded":false`)

	rec = a.do(t, http.MethodGet, "/api/v1/chat/rooms?role=store", a.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"counterparty_display_name":"Ada Obi"`)
	assert.Contains(t, rec.Body.String(), `"unread_count":1`)
	assert.Contains(t, rec.Body.String(), `"key":"store:`+a.owner.ID+`"`)

	rec = a.do(t, http.MethodPost, "/api/v1/chat/rooms/"+roomID+"/read", a.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":1`)

	rec = a.do(t, http.MethodPost, "/api/v1/chat/rooms/"+roomID+"/read", a.owner.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":0`)
}

func TestChatHandler_Errors(t *testing.T) {
	a := newAPI(t)
	roomID := a.openRoom(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   string
		status int
		code   string
	}{
		{name: "outsider reads", method: http.MethodGet, path: "/api/v1/chat/rooms/" + roomID + "/messages", user: a.outsider.ID, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "outsider sends", method: http.MethodPost, path: "/api/v1/chat/rooms/" + roomID + "/messages", user: a.outsider.ID, body: `{"content":"hi"}`, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "empty content", method: http.MethodPost, path: "/api/v1/chat/rooms/" + roomID + "/messages", user: a.customer.ID, body: `{"content":""}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "blank content", method: http.MethodPost, path: "/api/v1/chat/rooms/" + roomID + "/messages", user: a.customer.ID, body: `{"content":"   "}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "unknown room", method: http.MethodGet, path: "/api/v1/chat/rooms/missing/messages", user: a.customer.ID, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "unknown role", method: http.MethodGet, path: "/api/v1/chat/rooms?role=admin", user: a.customer.ID, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "owner opens own store", method: http.MethodPost, path: "/api/v1/chat/rooms", user: a.owner.ID, body: `{"store_id":"` + a.store.ID + `"}`, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "outsider streams", method: http.MethodGet, path: "/api/v1/chat/rooms/" + roomID + "/ws", user: a.outsider.ID, status: http.StatusForbidden, code: "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestChatHandler_StoreViewerWithoutStore(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/chat/rooms?role=store", a.customer.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rooms":[]`)
}

func TestChatHandler_Stream(t *testing.T) {
	a := newAPI(t)
	roomID := a.openRoom(t)

	srv := httptest.NewServer(a.e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/chat/rooms/" + roomID + "/ws?token=" + token(t, a.owner.ID)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	rec := a.do(t, http.MethodPost, "/api/v1/chat/rooms/"+roomID+"/messages", a.customer.ID, `{"content":"live hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.ChatMessage
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "live hello", got.Content)
	assert.Equal(t, roomID, got.RoomID)
	assert.Equal(t, a.customer.ID, got.SenderID)
}

func TestStoreHandler_Register(t *testing.T) {
	a := newAPI(t)

	body := `{"name":"Balogun Stall","kind":"retailer","is_physical":true,"location":{"latitude":6.45,"longitude":3.39,"accuracy_meters":250}}`
	rec := a.do(t, http.MethodPost, "/api/v1/stores", a.customer.ID, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "accuracy")

	body = strings.Replace(body, "250", "20", 1)
	rec = a.do(t, http.MethodPost, "/api/v1/stores", a.customer.ID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"location_accuracy":20`)

	rec = a.do(t, http.MethodPost, "/api/v1/stores", a.customer.ID, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/stores/me", a.customer.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Balogun Stall")

	rec = a.do(t, http.MethodGet, "/api/v1/stores/"+a.store.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bola Wholesale")
}
