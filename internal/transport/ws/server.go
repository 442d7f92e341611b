package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/meet-service/internal/domain"
	"github.com/cwrk-planet/meet-service/internal/registry"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type MemberSvc interface {
	JoinRoom(ctx context.Context, roomID, userID, userName string) (registry.JoinResult, error)
	LeaveRoom(ctx context.Context, roomID, userID string) registry.LeaveResult
	ListParticipants(ctx context.Context, roomID string) []domain.Participant
	TouchHeartbeat(ctx context.Context, roomID, userID string)
	UpdateStreamFlags(ctx context.Context, roomID, userID string, video, audio bool) (domain.Participant, bool)
}

type ChatSvc interface {
	Post(ctx context.Context, roomID, userID, userName, text string) (domain.ChatMessage, error)
}

type Server struct {
	upgrader  websocket.Upgrader
	hub       *Hub
	memberSvc MemberSvc
	chatSvc   ChatSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, member MemberSvc, chat ChatSvc) *Server {
	return &Server{
		hub:       hub,
		memberSvc: member,
		chatSvc:   chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws/rooms/{id}?access_token=...&user_id=...&user_name=...
// Подключение — это вход в комнату; JoinRoom идемпотентен, поэтому
// переподключение не плодит записи участника.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("access_token")) == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	userID := strings.TrimSpace(q.Get("user_id"))
	userName := strings.TrimSpace(q.Get("user_name"))
	if userID == "" || userName == "" {
		http.Error(w, "missing user_id or user_name", http.StatusUnauthorized)
		return
	}
	roomID := registry.NormalizeCode(chi.URLParam(r, "id"))
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	res, err := s.memberSvc.JoinRoom(r.Context(), roomID, userID, userName)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, domain.ErrRoomNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, roomID, userID, userName)
	s.hub.Add(c)

	if err := s.sendState(r.Context(), c); err != nil {
		slog.Warn("ws send initial state failed", "room", roomID, "user", userID, "err", err)
	}

	if !res.AlreadyIn {
		s.hub.Broadcast(roomID, Message{
			Type:    TypePeerJoined,
			Payload: PeerEventPayload{RoomID: roomID, UserID: userID, Name: userName},
		})
		if res.System != nil {
			s.broadcastSystem(roomID, res.System)
		}
	}

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	s.hub.Remove(c)

	leave := s.memberSvc.LeaveRoom(r.Context(), roomID, userID)
	if leave.Left {
		s.hub.Broadcast(roomID, Message{
			Type:    TypePeerLeft,
			Payload: PeerEventPayload{RoomID: roomID, UserID: userID, Name: userName},
		})
		if leave.System != nil {
			s.broadcastSystem(roomID, leave.System)
		}
	}

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "user", userID, "err", err)
	}
}

func (s *Server) broadcastSystem(roomID string, msg *domain.ChatMessage) {
	s.hub.Broadcast(roomID, Message{
		Type: TypeSystem,
		Payload: SystemPayload{
			RoomID:  roomID,
			MsgID:   msg.ID,
			Message: msg.Text,
			TSUnix:  msg.CreatedAt.Unix(),
		},
	})
}

func (s *Server) sendState(ctx context.Context, c *wsConn) error {
	parts := s.memberSvc.ListParticipants(ctx, c.roomID)
	items := make([]ParticipantState, 0, len(parts))
	for _, p := range parts {
		items = append(items, ParticipantState{
			UserID:       p.UserID,
			Name:         p.Name,
			IsAdmin:      p.IsAdmin,
			VideoEnabled: p.VideoEnabled,
			AudioEnabled: p.AudioEnabled,
			JoinedAt:     p.JoinedAt.Unix(),
			LastSeen:     p.LastSeen.Unix(),
		})
	}

	return c.Send(Message{
		Type:    TypeState,
		Payload: StatePayload{RoomID: c.roomID, Participants: items},
	})
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	s.memberSvc.TouchHeartbeat(ctx, c.roomID, c.userID)

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		s.memberSvc.TouchHeartbeat(ctx, c.roomID, c.userID)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeChat:
			var p ChatPayload
			if decode(msg.Payload, &p) != nil {
				continue
			}
			text := strings.TrimSpace(p.Message)
			if text == "" {
				continue
			}

			saved, err := s.chatSvc.Post(ctx, c.roomID, c.userID, c.userName, text)
			if err != nil {
				slog.Warn("ws chat save failed", "room", c.roomID, "user", c.userID, "err", err)
				continue
			}

			// ЕДИНЫЙ broadcast всем, включая отправителя
			s.hub.Broadcast(c.roomID, Message{
				Type: TypeChat,
				Payload: ChatPayload{
					RoomID:  c.roomID,
					UserID:  c.userID,
					Name:    c.userName,
					Message: saved.Text,
					MsgID:   saved.ID,
					TSUnix:  saved.CreatedAt.Unix(),
				},
			})

			// Лёгкий ACK только отправителю
			_ = c.Send(Message{Type: TypeChatAck, Payload: ChatAckPayload{MsgID: saved.ID}})

		case TypeStream:
			var p StreamPayload
			if decode(msg.Payload, &p) != nil {
				continue
			}
			if _, ok := s.memberSvc.UpdateStreamFlags(ctx, c.roomID, c.userID, p.VideoEnabled, p.AudioEnabled); ok {
				s.hub.Broadcast(c.roomID, Message{
					Type: TypeStream,
					Payload: StreamPayload{
						RoomID:       c.roomID,
						UserID:       c.userID,
						VideoEnabled: p.VideoEnabled,
						AudioEnabled: p.AudioEnabled,
					},
				})
			}

		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			s.memberSvc.TouchHeartbeat(ctx, c.roomID, c.userID)
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

type wsConn struct {
	conn     *websocket.Conn
	roomID   string
	userID   string
	userName string
	sendMu   chan struct{}
	closed   chan struct{}
}

func newWsConn(c *websocket.Conn, roomID, userID, userName string) *wsConn {
	return &wsConn{
		conn:     c,
		roomID:   roomID,
		userID:   userID,
		userName: userName,
		sendMu:   make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) UserID() string { return c.userID }
func (c *wsConn) RoomID() string { return c.roomID }
