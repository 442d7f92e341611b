package service

import (
	"context"
	"strings"
	"testing"

	"github.com/cwrk-planet/meet-service/internal/domain"
	"github.com/cwrk-planet/meet-service/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServices(t *testing.T) (*RoomService, *MemberService, *ChatService) {
	t.Helper()
	reg := registry.New(registry.Config{})
	return NewRoomService(reg), NewMemberService(reg), NewChatService(reg)
}

func TestRoomService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	roomSvc, _, _ := newServices(t)

	room, err := roomSvc.CreateRoom(ctx, "Standup", "u1", "Alice")
	require.NoError(t, err)
	assert.True(t, room.Active)

	// поиск не зависит от регистра кода
	got, err := roomSvc.GetRoom(ctx, strings.ToLower(room.ID))
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)

	_, err = roomSvc.CreateRoom(ctx, "Standup", "", "Alice")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMemberService_NormalizesRoomCode(t *testing.T) {
	ctx := context.Background()
	roomSvc, memberSvc, _ := newServices(t)

	room, err := roomSvc.CreateRoom(ctx, "Standup", "u1", "Alice")
	require.NoError(t, err)

	res, err := memberSvc.JoinRoom(ctx, "  "+strings.ToLower(room.ID)+" ", "u2", "Bob")
	require.NoError(t, err)
	assert.Equal(t, room.ID, res.Participant.RoomID)

	assert.Len(t, memberSvc.ListParticipants(ctx, strings.ToLower(room.ID)), 2)
}

func TestChatService_Post(t *testing.T) {
	ctx := context.Background()
	roomSvc, _, chatSvc := newServices(t)

	room, err := roomSvc.CreateRoom(ctx, "Standup", "u1", "Alice")
	require.NoError(t, err)

	msg, err := chatSvc.Post(ctx, room.ID, "u1", "Alice", "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)

	_, err = chatSvc.Post(ctx, room.ID, "u1", "Alice", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = chatSvc.Post(ctx, room.ID, "u1", "Alice", strings.Repeat("x", maxMessageLen+1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	history := chatSvc.History(ctx, strings.ToLower(room.ID))
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}
