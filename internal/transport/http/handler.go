package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/meet-service/internal/domain"
	"github.com/cwrk-planet/meet-service/internal/registry"
	"github.com/cwrk-planet/meet-service/internal/service"
	httpmw "github.com/cwrk-planet/meet-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/meet-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc   *service.RoomService
	memberSvc *service.MemberService
	chatSvc   *service.ChatService
	hub       *ws.Hub
}

func NewHandler(room *service.RoomService, member *service.MemberService, chat *service.ChatService, hub *ws.Hub) *Handler {
	return &Handler{
		roomSvc:   room,
		memberSvc: member,
		chatSvc:   chat,
		hub:       hub,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, statusFromErr(err), ErrorResponse{Error: err.Error()})
}

// statusFromErr переводит ошибки ядра в HTTP-статусы.
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRoomInactive):
		return http.StatusGone
	case errors.Is(err, domain.ErrRoomFull):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) broadcastSystem(roomID string, msg *domain.ChatMessage) {
	if msg == nil {
		return
	}
	h.hub.Broadcast(roomID, ws.Message{
		Type: ws.TypeSystem,
		Payload: ws.SystemPayload{
			RoomID:  roomID,
			MsgID:   msg.ID,
			Message: msg.Text,
			TSUnix:  msg.CreatedAt.Unix(),
		},
	})
}

func (h *Handler) broadcastRoster(r *http.Request, roomID string) {
	parts := h.memberSvc.ListParticipants(r.Context(), roomID)
	items := make([]ws.ParticipantState, 0, len(parts))
	for _, p := range parts {
		items = append(items, ws.ParticipantState{
			UserID:       p.UserID,
			Name:         p.Name,
			IsAdmin:      p.IsAdmin,
			VideoEnabled: p.VideoEnabled,
			AudioEnabled: p.AudioEnabled,
			JoinedAt:     p.JoinedAt.Unix(),
			LastSeen:     p.LastSeen.Unix(),
		})
	}
	h.hub.Broadcast(roomID, ws.Message{
		Type:    ws.TypeRoster,
		Payload: ws.StatePayload{RoomID: roomID, Participants: items},
	})
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	user := httpmw.UserFromCtx(r.Context())

	room, err := h.roomSvc.CreateRoom(r.Context(), req.Name, user.UserID, user.Name)
	if err != nil {
		slog.Error("handler.CreateRoom:", slog.Any("err", err))
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RoomResponse{Success: true, Room: toRoomItem(room)})
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RoomResponse{Success: true, Room: toRoomItem(room)})
}

// POST /rooms/{id}/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	user := httpmw.UserFromCtx(r.Context())

	res, err := h.memberSvc.JoinRoom(r.Context(), roomID, user.UserID, user.Name)
	if err != nil {
		writeErr(w, err)
		return
	}

	if !res.AlreadyIn {
		h.hub.Broadcast(res.Participant.RoomID, ws.Message{
			Type:    ws.TypePeerJoined,
			Payload: ws.PeerEventPayload{RoomID: res.Participant.RoomID, UserID: user.UserID, Name: user.Name},
		})
		h.broadcastSystem(res.Participant.RoomID, res.System)
	}

	writeJSON(w, http.StatusOK, JoinRoomResponse{
		Success:      true,
		RoomID:       res.Participant.RoomID,
		Participant:  toParticipantItem(res.Participant, 0),
		Participants: toParticipantItems(res.Roster),
	})
}

// POST /rooms/{id}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	user := httpmw.UserFromCtx(r.Context())

	res := h.memberSvc.LeaveRoom(r.Context(), roomID, user.UserID)
	if res.Left {
		h.hub.Broadcast(roomID, ws.Message{
			Type:    ws.TypePeerLeft,
			Payload: ws.PeerEventPayload{RoomID: roomID, UserID: user.UserID, Name: user.Name},
		})
		h.broadcastSystem(roomID, res.System)
	}

	writeJSON(w, http.StatusOK, LeaveRoomResponse{Success: true, Active: res.RoomActive})
}

// GET /rooms/{id}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	parts := h.memberSvc.ListParticipants(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, ParticipantsResponse{
		Success:      true,
		Participants: toParticipantItems(parts),
	})
}

// GET /rooms/{id}/chat
func (h *Handler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	msgs := h.chatSvc.History(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, ChatHistoryResponse{
		Success:  true,
		Messages: toChatMessageItems(msgs),
	})
}

// POST /rooms/{id}/chat
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	roomID := chi.URLParam(r, "id")
	user := httpmw.UserFromCtx(r.Context())

	msg, err := h.chatSvc.Post(r.Context(), roomID, user.UserID, user.Name, req.Message)
	if err != nil {
		writeErr(w, err)
		return
	}

	h.hub.Broadcast(msg.RoomID, ws.Message{
		Type: ws.TypeChat,
		Payload: ws.ChatPayload{
			RoomID:  msg.RoomID,
			UserID:  msg.AuthorID,
			Name:    msg.AuthorName,
			Message: msg.Text,
			MsgID:   msg.ID,
			TSUnix:  msg.CreatedAt.Unix(),
		},
	})

	writeJSON(w, http.StatusCreated, MessageResponse{Success: true, Message: toChatMessageItem(msg, 0)})
}

// POST /rooms/{id}/stream
func (h *Handler) UpdateStream(w http.ResponseWriter, r *http.Request) {
	var req StreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	roomID := chi.URLParam(r, "id")
	user := httpmw.UserFromCtx(r.Context())

	p, ok := h.memberSvc.UpdateStreamFlags(r.Context(), roomID, user.UserID, req.VideoEnabled, req.AudioEnabled)
	if ok {
		h.hub.Broadcast(p.RoomID, ws.Message{
			Type: ws.TypeStream,
			Payload: ws.StreamPayload{
				RoomID:       p.RoomID,
				UserID:       p.UserID,
				VideoEnabled: p.VideoEnabled,
				AudioEnabled: p.AudioEnabled,
			},
		})
	}

	// отсутствие участника — no-op, не ошибка
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /rooms/{id}/mute/{userID}
func (h *Handler) MuteParticipant(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	targetID := chi.URLParam(r, "userID")
	user := httpmw.UserFromCtx(r.Context())

	res, err := h.memberSvc.MuteParticipant(r.Context(), roomID, user.UserID, targetID)
	if err != nil {
		writeErr(w, err)
		return
	}

	if res.Changed {
		h.broadcastSystem(res.Target.RoomID, res.System)
		h.broadcastRoster(r, res.Target.RoomID)
	}

	writeJSON(w, http.StatusOK, MuteResponse{Success: true, Changed: res.Changed, Muted: res.Muted})
}

// POST /rooms/{id}/mute-all
func (h *Handler) MuteAll(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	user := httpmw.UserFromCtx(r.Context())

	res, err := h.memberSvc.MuteAll(r.Context(), roomID, user.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}

	if res.Count > 0 {
		normalized := registry.NormalizeCode(roomID)
		h.broadcastSystem(normalized, res.System)
		h.broadcastRoster(r, normalized)
	}

	writeJSON(w, http.StatusOK, MuteAllResponse{Success: true, MutedCount: res.Count})
}

// DELETE /rooms/{id}/participants/{userID}
func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	targetID := chi.URLParam(r, "userID")
	user := httpmw.UserFromCtx(r.Context())

	res, err := h.memberSvc.RemoveParticipant(r.Context(), roomID, user.UserID, targetID)
	if err != nil {
		writeErr(w, err)
		return
	}

	normalized := registry.NormalizeCode(roomID)
	h.hub.Broadcast(normalized, ws.Message{
		Type:    ws.TypePeerLeft,
		Payload: ws.PeerEventPayload{RoomID: normalized, UserID: targetID, Name: res.RemovedName},
	})
	h.broadcastSystem(normalized, res.System)
	h.broadcastRoster(r, normalized)
	h.hub.Disconnect(normalized, targetID)

	writeJSON(w, http.StatusOK, RemoveResponse{Success: true, RemovedName: res.RemovedName})
}

// POST /rooms/{id}/remove-all
func (h *Handler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	user := httpmw.UserFromCtx(r.Context())

	res, err := h.memberSvc.RemoveAll(r.Context(), roomID, user.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}

	if res.Count > 0 {
		normalized := registry.NormalizeCode(roomID)
		h.broadcastSystem(normalized, res.System)
		h.broadcastRoster(r, normalized)
	}

	writeJSON(w, http.StatusOK, RemoveAllResponse{Success: true, RemovedCount: res.Count})
}
