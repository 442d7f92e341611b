package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu     sync.Mutex
	roomID string
	userID string
	sent   []Message
	closed bool
}

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) UserID() string { return c.userID }
func (c *fakeConn) RoomID() string { return c.roomID }

func (c *fakeConn) messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()

	a := &fakeConn{roomID: "R1", userID: "u1"}
	b := &fakeConn{roomID: "R1", userID: "u2"}
	other := &fakeConn{roomID: "R2", userID: "u3"}
	h.Add(a)
	h.Add(b)
	h.Add(other)

	h.Broadcast("R1", Message{Type: TypeChat})

	assert.Len(t, a.messages(), 1)
	assert.Len(t, b.messages(), 1)
	assert.Empty(t, other.messages(), "broadcast is scoped to the room")

	h.Remove(b)
	h.Broadcast("R1", Message{Type: TypeChat})
	assert.Len(t, a.messages(), 2)
	assert.Len(t, b.messages(), 1)
}

func TestHub_Disconnect(t *testing.T) {
	h := NewHub()

	a := &fakeConn{roomID: "R1", userID: "u1"}
	b1 := &fakeConn{roomID: "R1", userID: "u2"}
	b2 := &fakeConn{roomID: "R1", userID: "u2"} // второе соединение того же пользователя
	h.Add(a)
	h.Add(b1)
	h.Add(b2)

	h.Disconnect("R1", "u2")

	assert.False(t, a.closed)
	assert.True(t, b1.closed)
	assert.True(t, b2.closed)
}

func TestHub_BroadcastUnknownRoom(t *testing.T) {
	h := NewHub()
	// не должно паниковать
	h.Broadcast("NOPE", Message{Type: TypeChat})
}
