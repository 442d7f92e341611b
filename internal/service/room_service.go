package service

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/meet-service/internal/domain"
	"github.com/cwrk-planet/meet-service/internal/registry"
)

type RoomService struct {
	reg *registry.Registry
}

func NewRoomService(reg *registry.Registry) *RoomService {
	return &RoomService{reg: reg}
}

// CreateRoom создаёт комнату; создатель становится её администратором.
func (s *RoomService) CreateRoom(ctx context.Context, name, creatorID, creatorName string) (*domain.Room, error) {
	room, err := s.reg.CreateRoom(name, creatorID, creatorName)
	if err != nil {
		return nil, fmt.Errorf("registry.CreateRoom: %w", err)
	}
	return &room, nil
}

// GetRoom возвращает комнату по коду.
func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.reg.GetRoom(registry.NormalizeCode(id))
	if err != nil {
		return nil, err
	}
	return &room, nil
}
