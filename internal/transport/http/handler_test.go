package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwrk-planet/meet-service/internal/registry"
	"github.com/cwrk-planet/meet-service/internal/service"
	"github.com/cwrk-planet/meet-service/internal/transport/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	reg := registry.New(registry.Config{})
	roomSvc := service.NewRoomService(reg)
	memberSvc := service.NewMemberService(reg)
	chatSvc := service.NewChatService(reg)

	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, memberSvc, chatSvc)
	h := NewHandler(roomSvc, memberSvc, chatSvc, hub)

	return NewRouter(h, memberSvc, wsServer)
}

func doJSON(t *testing.T, router http.Handler, method, path, userID, userName string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer test-token")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if userName != "" {
		req.Header.Set("X-User-Name", userName)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func createRoom(t *testing.T, router http.Handler, userID, userName string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/rooms", userID, userName, CreateRoomRequest{Name: "Standup"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp RoomResponse
	decodeBody(t, rec, &resp)
	require.True(t, resp.Success)
	require.Len(t, resp.Room.ID, registry.DefaultCodeLength)
	return resp.Room.ID
}

func TestCreateRoom_HTTP(t *testing.T) {
	router := newTestRouter(t)

	roomID := createRoom(t, router, "u1", "Alice")

	rec := doJSON(t, router, http.MethodGet, "/rooms/"+roomID, "u1", "Alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RoomResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Standup", resp.Room.Name)
	assert.Equal(t, "u1", resp.Room.CreatorID)
	assert.True(t, resp.Room.Active)
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// без X-User-Name тоже нельзя
	rec = doJSON(t, router, http.MethodPost, "/rooms", "u1", "", CreateRoomRequest{Name: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJoinRoom_HTTP(t *testing.T) {
	router := newTestRouter(t)
	roomID := createRoom(t, router, "u1", "Alice")

	// код комнаты нормализуется: lowercase на входе допустим
	rec := doJSON(t, router, http.MethodPost, "/rooms/"+strings.ToLower(roomID)+"/join", "u2", "Bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp JoinRoomResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, roomID, resp.RoomID)
	require.Len(t, resp.Participants, 2)
	assert.True(t, resp.Participants[0].IsAdmin)
	assert.False(t, resp.Participants[1].IsAdmin)
	assert.True(t, resp.Participant.VideoEnabled)

	rec = doJSON(t, router, http.MethodPost, "/rooms/ZZZZZZ/join", "u2", "Bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinRoom_InactiveGone(t *testing.T) {
	router := newTestRouter(t)
	roomID := createRoom(t, router, "u1", "Alice")

	rec := doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/leave", "u1", "Alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var leave LeaveRoomResponse
	decodeBody(t, rec, &leave)
	assert.False(t, leave.Active)

	rec = doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/join", "u2", "Bob", nil)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestChat_HTTP(t *testing.T) {
	router := newTestRouter(t)
	roomID := createRoom(t, router, "u1", "Alice")

	rec := doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/chat", "u1", "Alice", PostMessageRequest{Message: " hello "})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp MessageResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "hello", resp.Message.Message)
	assert.Equal(t, "u1", resp.Message.UserID)
	assert.False(t, resp.Message.IsSystem)
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, resp.Message.Timestamp)

	rec = doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/chat", "u1", "Alice", PostMessageRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/rooms/"+roomID+"/chat", "u1", "Alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history ChatHistoryResponse
	decodeBody(t, rec, &history)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, resp.Message.ID, history.Messages[0].ID)
}

func TestParticipants_UnknownRoomForgiving(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/rooms/ZZZZZZ/participants", "u1", "Alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ParticipantsResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Participants)
}

func TestAdminActions_HTTP(t *testing.T) {
	router := newTestRouter(t)
	roomID := createRoom(t, router, "u1", "Alice")
	doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/join", "u2", "Bob", nil)
	doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/join", "u3", "Carol", nil)

	// не администратор
	rec := doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/mute/u1", "u2", "Bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/mute/u2", "u1", "Alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var mute MuteResponse
	decodeBody(t, rec, &mute)
	assert.True(t, mute.Changed)
	assert.True(t, mute.Muted)

	rec = doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/mute-all", "u1", "Alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var muteAll MuteAllResponse
	decodeBody(t, rec, &muteAll)
	assert.Equal(t, 1, muteAll.MutedCount, "u2 already muted, only u3 changes")

	rec = doJSON(t, router, http.MethodDelete, "/rooms/"+roomID+"/participants/ghost", "u1", "Alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/rooms/"+roomID+"/participants/u2", "u1", "Alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var remove RemoveResponse
	decodeBody(t, rec, &remove)
	assert.Equal(t, "Bob", remove.RemovedName)

	rec = doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/remove-all", "u1", "Alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var removeAll RemoveAllResponse
	decodeBody(t, rec, &removeAll)
	assert.Equal(t, 1, removeAll.RemovedCount)

	rec = doJSON(t, router, http.MethodGet, "/rooms/"+roomID+"/participants", "u1", "Alice", nil)
	var parts ParticipantsResponse
	decodeBody(t, rec, &parts)
	require.Len(t, parts.Participants, 1)
	assert.Equal(t, "u1", parts.Participants[0].UserID)
}

func TestUpdateStream_HTTP(t *testing.T) {
	router := newTestRouter(t)
	roomID := createRoom(t, router, "u1", "Alice")

	rec := doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/stream", "u1", "Alice", StreamRequest{VideoEnabled: false, AudioEnabled: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/rooms/"+roomID+"/participants", "u1", "Alice", nil)
	var parts ParticipantsResponse
	decodeBody(t, rec, &parts)
	require.Len(t, parts.Participants, 1)
	assert.False(t, parts.Participants[0].VideoEnabled)
	assert.True(t, parts.Participants[0].AudioEnabled)

	// отсутствующий участник — no-op, всё равно success
	rec = doJSON(t, router, http.MethodPost, "/rooms/"+roomID+"/stream", "ghost", "Ghost", StreamRequest{})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
