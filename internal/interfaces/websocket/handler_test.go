package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/auth"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

type testEndpoint struct {
	hub    *Hub
	tokens *auth.TokenManager
	server *httptest.Server
}

func newTestEndpoint(t *testing.T, cfg HandlerConfig) *testEndpoint {
	t.Helper()
	hub := NewHub(zap.NewNop())
	tokens := auth.NewTokenManager("test-secret", "gas-voucher", time.Hour)
	server := httptest.NewServer(NewHandler(hub, tokens, cfg, zap.NewNop()))
	t.Cleanup(server.Close)
	return &testEndpoint{hub: hub, tokens: tokens, server: server}
}

func (e *testEndpoint) dial(t *testing.T, userID, role string) *websocket.Conn {
	t.Helper()
	token, err := e.tokens.Issue(userID, role)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
	wc, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { wc.Close() })
	return wc
}

func readMessage(t *testing.T, wc *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, wc.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, wc.ReadJSON(&msg))
	return msg
}

func TestHandler_JoinAndReceive(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{})
	wc := e.dial(t, "1", entity.RoleAdmin)

	require.NoError(t, wc.WriteJSON(clientMsg{Type: MsgJoinRoom, Room: entity.RoomAdmin}))
	ack := readMessage(t, wc)
	assert.Equal(t, EventJoined, ack.Event)
	assert.Equal(t, map[string]interface{}{
		"room":  entity.RoomAdmin,
		"rooms": []interface{}{entity.RoomAdmin},
	}, ack.Data)

	sent, err := e.hub.Publish(entity.RoomAdmin, "voucher:created", map[string]string{"id": "v1"})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msg := readMessage(t, wc)
	assert.Equal(t, "voucher:created", msg.Event)
	assert.Equal(t, map[string]interface{}{"id": "v1"}, msg.Data)
}

func TestHandler_UserCannotJoinForeignRoom(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{})
	wc := e.dial(t, "42", entity.RoleUser)

	require.NoError(t, wc.WriteJSON(clientMsg{Type: MsgJoinRoom, Room: entity.RoomAdmin}))
	msg := readMessage(t, wc)
	assert.Equal(t, EventError, msg.Event)
	assert.Zero(t, e.hub.RoomSize(entity.RoomAdmin))

	require.NoError(t, wc.WriteJSON(clientMsg{Type: MsgJoinRoom, Room: "user:42"}))
	msg = readMessage(t, wc)
	assert.Equal(t, EventJoined, msg.Event)
	assert.Equal(t, 1, e.hub.RoomSize("user:42"))
}

func TestHandler_LeaveRoom(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{})
	wc := e.dial(t, "1", entity.RoleAdmin)

	require.NoError(t, wc.WriteJSON(clientMsg{Type: MsgJoinRoom, Room: "user:9"}))
	readMessage(t, wc)
	require.NoError(t, wc.WriteJSON(clientMsg{Type: MsgLeaveRoom, Room: "user:9"}))
	msg := readMessage(t, wc)

	assert.Equal(t, EventLeft, msg.Event)
	assert.Zero(t, e.hub.RoomSize("user:9"))
}

func TestHandler_UnknownMessageType(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{})
	wc := e.dial(t, "1", entity.RoleAdmin)

	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)))
	assert.Equal(t, EventError, readMessage(t, wc).Event)

	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	assert.Equal(t, EventError, readMessage(t, wc).Event)
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{})

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_AcceptsAuthorizationHeader(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{})
	token, err := e.tokens.Issue("1", entity.RoleAdmin)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	wc, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer wc.Close()

	require.Eventually(t, func() bool { return e.hub.Stats().Connections == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsDisallowedOrigin(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{AllowedOrigins: []string{"https://app.example.com"}})
	token, err := e.tokens.Issue("1", entity.RoleAdmin)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandler_DisconnectUnregisters(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{})
	wc := e.dial(t, "1", entity.RoleAdmin)

	require.NoError(t, wc.WriteJSON(clientMsg{Type: MsgJoinRoom, Room: entity.RoomAdmin}))
	readMessage(t, wc)
	require.Equal(t, 1, e.hub.RoomSize(entity.RoomAdmin))

	require.NoError(t, wc.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	wc.Close()

	require.Eventually(t, func() bool {
		s := e.hub.Stats()
		return s.Connections == 0 && s.Rooms == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_HubCloseSendsCloseFrame(t *testing.T) {
	e := newTestEndpoint(t, HandlerConfig{})
	wc := e.dial(t, "1", entity.RoleAdmin)

	require.NoError(t, wc.WriteJSON(clientMsg{Type: MsgJoinRoom, Room: entity.RoomAdmin}))
	readMessage(t, wc)

	e.hub.Close()

	require.NoError(t, wc.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := wc.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)

	require.Eventually(t, func() bool { return e.hub.Stats().Connections == 0 }, 2*time.Second, 10*time.Millisecond)
}
