package http

import (
	"github.com/cwrk-planet/meet-service/internal/domain"

	"github.com/samber/lo"
)

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type RoomItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CreatorID       string `json:"creator_id"`
	MaxParticipants int    `json:"max_participants"`
	CreatedAt       string `json:"created_at"`
	Active          bool   `json:"active"`
}

type RoomResponse struct {
	Success bool     `json:"success"`
	Room    RoomItem `json:"room"`
}

type ParticipantItem struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	IsAdmin      bool   `json:"is_admin"`
	VideoEnabled bool   `json:"video_enabled"`
	AudioEnabled bool   `json:"audio_enabled"`
}

type JoinRoomResponse struct {
	Success      bool              `json:"success"`
	RoomID       string            `json:"room_id"`
	Participant  ParticipantItem   `json:"participant"`
	Participants []ParticipantItem `json:"participants"`
}

type LeaveRoomResponse struct {
	Success bool `json:"success"`
	Active  bool `json:"active"`
}

type ParticipantsResponse struct {
	Success      bool              `json:"success"`
	Participants []ParticipantItem `json:"participants"`
}

type PostMessageRequest struct {
	Message string `json:"message"`
}

type ChatMessageItem struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"` // HH:MM:SS
	IsSystem  bool   `json:"is_system"`
}

type MessageResponse struct {
	Success bool            `json:"success"`
	Message ChatMessageItem `json:"message"`
}

type ChatHistoryResponse struct {
	Success  bool              `json:"success"`
	Messages []ChatMessageItem `json:"messages"`
}

type StreamRequest struct {
	VideoEnabled bool `json:"video_enabled"`
	AudioEnabled bool `json:"audio_enabled"`
}

type MuteResponse struct {
	Success bool `json:"success"`
	Changed bool `json:"changed"`
	Muted   bool `json:"muted"`
}

type MuteAllResponse struct {
	Success    bool `json:"success"`
	MutedCount int  `json:"muted_count"`
}

type RemoveResponse struct {
	Success     bool   `json:"success"`
	RemovedName string `json:"removed_name"`
}

type RemoveAllResponse struct {
	Success      bool `json:"success"`
	RemovedCount int  `json:"removed_count"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func toRoomItem(r *domain.Room) RoomItem {
	return RoomItem{
		ID:              r.ID,
		Name:            r.Name,
		CreatorID:       r.CreatorID,
		MaxParticipants: r.MaxParticipants,
		CreatedAt:       r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Active:          r.Active,
	}
}

func toParticipantItem(p domain.Participant, _ int) ParticipantItem {
	return ParticipantItem{
		UserID:       p.UserID,
		Name:         p.Name,
		IsAdmin:      p.IsAdmin,
		VideoEnabled: p.VideoEnabled,
		AudioEnabled: p.AudioEnabled,
	}
}

func toParticipantItems(parts []domain.Participant) []ParticipantItem {
	return lo.Map(parts, toParticipantItem)
}

func toChatMessageItem(m domain.ChatMessage, _ int) ChatMessageItem {
	return ChatMessageItem{
		ID:        m.ID,
		UserID:    m.AuthorID,
		UserName:  m.AuthorName,
		Message:   m.Text,
		Timestamp: m.CreatedAt.Format("15:04:05"),
		IsSystem:  m.IsSystem,
	}
}

func toChatMessageItems(msgs []domain.ChatMessage) []ChatMessageItem {
	return lo.Map(msgs, toChatMessageItem)
}
