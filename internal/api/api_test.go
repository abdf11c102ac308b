package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/connectaword/internal/api"
	"github.com/mcoot/connectaword/internal/api/apierr"
	"github.com/mcoot/connectaword/internal/api/response"
	"github.com/mcoot/connectaword/internal/factory"
	"github.com/mcoot/connectaword/internal/testutil"
	"github.com/mcoot/connectaword/internal/transport/wire"
	"github.com/mcoot/connectaword/internal/transport/ws"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	require.NoError(t, app.LoadTestCatalog())
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	router := api.NewRouter(api.RouterConfig{
		Logger:       testutil.NopLogger(),
		AuthService:  app.AuthService,
		RoomService:  app.RoomService,
		Registry:     app.Registry,
		SocketConfig: ws.DefaultConfig(),
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[apierr.ErrorResponse](t, rr).Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","active_rooms":0}`, rr.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	// Register
	registerBody := map[string]string{
		"username": "alice",
		"email":    "Alice@Example.com",
		"password": "secret123",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", registerBody, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	registerResp := decodeBody[response.AuthResponse](t, rr)
	assert.NotEmpty(t, registerResp.Token)
	assert.Equal(t, "alice", registerResp.User.Username)
	assert.Equal(t, 1500, registerResp.User.Rating)

	// Login with a differently cased email
	loginBody := map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	}
	rr = ts.request(http.MethodPost, "/api/v1/auth/login", loginBody, "")
	require.Equal(t, http.StatusOK, rr.Code)

	loginResp := decodeBody[response.AuthResponse](t, rr)
	assert.Equal(t, registerResp.User.ID, loginResp.User.ID)

	// Registering again is rejected
	rr = ts.request(http.MethodPost, "/api/v1/auth/register", registerBody, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeEmailTaken, errorCode(t, rr))
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing username", map[string]string{"email": "a@b.c", "password": "pw"}},
		{"bad email", map[string]string{"username": "a", "email": "nope", "password": "pw"}},
		{"missing password", map[string]string{"username": "a", "email": "a@b.c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "alice@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestInvalidBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "bob")

	rr := ts.request(http.MethodGet, "/api/v1/users/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bob", decodeBody[response.User](t, rr).Username)
}

func TestUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"name": "x", "language": "english"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"name": "x", "language": "english"}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, errorCode(t, rr))
}

func TestCreateAndListRooms(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	room := createRoom(t, ts, token, "Friday", "english")
	assert.Equal(t, "Friday", room.Name)
	assert.Equal(t, "english", room.Language)
	assert.Equal(t, "SERVER", room.WordSource)
	assert.Equal(t, "alice", room.HostUsername)
	assert.False(t, room.Live)

	rr := ts.request(http.MethodGet, "/api/v1/rooms", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	rooms := decodeBody[[]response.Room](t, rr)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+room.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, room.ID, decodeBody[response.Room](t, rr).ID)
}

func TestCreateRoomErrors(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"name": "x", "language": "klingon"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeUnsupportedLanguage, errorCode(t, rr))

	createRoom(t, ts, token, "First", "english")
	rr = ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"name": "Second", "language": "serbian"}, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeHostHasRoom, errorCode(t, rr))
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeRoomNotFound, errorCode(t, rr))
}

func TestDeleteRoom(t *testing.T) {
	ts := newTestServer(t)
	alice := register(t, ts, "alice")
	bob := register(t, ts, "bob")
	room := createRoom(t, ts, alice, "Mine", "english")

	rr := ts.request(http.MethodDelete, "/api/v1/rooms/"+room.ID, nil, bob)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/rooms/"+room.ID, nil, alice)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+room.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionNotFoundWithoutPlayers(t *testing.T) {
	ts := newTestServer(t)
	token := register(t, ts, "alice")
	room := createRoom(t, ts, token, "Quiet", "english")

	rr := ts.request(http.MethodGet, "/api/v1/rooms/"+room.ID+"/session", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))
}

func TestWebsocketGameThroughRouter(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	t.Cleanup(server.Close)

	token := register(t, ts, "alice")
	room := createRoom(t, ts, token, "Live", "english")

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/game/" + room.ID + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	require.Equal(t, "state_update", msg.Type)
	assert.Equal(t, "WAITING", msg.State.GameStatus)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"start"}`)))
	msg = readMessage(t, conn)
	require.Equal(t, "state_update", msg.Type)
	assert.Equal(t, "IN_PROGRESS", msg.State.GameStatus)

	// The session is visible over HTTP without anyone's progress
	rr := ts.request(http.MethodGet, "/api/v1/rooms/"+room.ID+"/session", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	snapshot := decodeBody[wire.GameState](t, rr)
	assert.Equal(t, "IN_PROGRESS", snapshot.GameStatus)
	require.Len(t, snapshot.Players, 1)
	assert.Nil(t, snapshot.Players[0].Progress)

	rr = ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.JSONEq(t, `{"status":"ok","active_rooms":1}`, rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+room.ID, nil, "")
	assert.True(t, decodeBody[response.Room](t, rr).Live)
}

func readMessage(t *testing.T, conn *websocket.Conn) *wire.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := wire.DecodeServerMessage(data)
	require.NoError(t, err)
	return msg
}

func register(t *testing.T, ts *testServer, username string) string {
	t.Helper()

	body := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret-" + username,
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	return decodeBody[response.AuthResponse](t, rr).Token
}

func createRoom(t *testing.T, ts *testServer, token, name, language string) response.Room {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"name": name, "language": language}, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	return decodeBody[response.Room](t, rr)
}
