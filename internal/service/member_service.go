package service

import (
	"context"

	"github.com/cwrk-planet/meet-service/internal/domain"
	"github.com/cwrk-planet/meet-service/internal/registry"
)

type MemberService struct {
	reg *registry.Registry
}

func NewMemberService(reg *registry.Registry) *MemberService {
	return &MemberService{reg: reg}
}

func (s *MemberService) JoinRoom(ctx context.Context, roomID, userID, userName string) (registry.JoinResult, error) {
	return s.reg.JoinRoom(registry.NormalizeCode(roomID), userID, userName)
}

func (s *MemberService) LeaveRoom(ctx context.Context, roomID, userID string) registry.LeaveResult {
	return s.reg.LeaveRoom(registry.NormalizeCode(roomID), userID)
}

func (s *MemberService) ListParticipants(ctx context.Context, roomID string) []domain.Participant {
	return s.reg.ListParticipants(registry.NormalizeCode(roomID))
}

func (s *MemberService) TouchHeartbeat(ctx context.Context, roomID, userID string) {
	s.reg.TouchHeartbeat(registry.NormalizeCode(roomID), userID)
}

func (s *MemberService) UpdateStreamFlags(ctx context.Context, roomID, userID string, video, audio bool) (domain.Participant, bool) {
	return s.reg.UpdateStreamFlags(registry.NormalizeCode(roomID), userID, video, audio)
}

// --- действия администратора ---

func (s *MemberService) MuteParticipant(ctx context.Context, roomID, actorID, targetID string) (registry.MuteResult, error) {
	return s.reg.MuteParticipant(registry.NormalizeCode(roomID), actorID, targetID)
}

func (s *MemberService) MuteAll(ctx context.Context, roomID, actorID string) (registry.MuteAllResult, error) {
	return s.reg.MuteAll(registry.NormalizeCode(roomID), actorID)
}

func (s *MemberService) RemoveParticipant(ctx context.Context, roomID, actorID, targetID string) (registry.RemoveResult, error) {
	return s.reg.RemoveParticipant(registry.NormalizeCode(roomID), actorID, targetID)
}

func (s *MemberService) RemoveAll(ctx context.Context, roomID, actorID string) (registry.RemoveAllResult, error) {
	return s.reg.RemoveAll(registry.NormalizeCode(roomID), actorID)
}
