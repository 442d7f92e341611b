package service

import (
	"context"
	"strings"

	"github.com/cwrk-planet/meet-service/internal/domain"
	"github.com/cwrk-planet/meet-service/internal/registry"
)

const maxMessageLen = 4000

type ChatService struct {
	reg *registry.Registry
}

func NewChatService(reg *registry.Registry) *ChatService {
	return &ChatService{reg: reg}
}

// Post сохраняет сообщение чата и возвращает его с присвоенным id.
func (s *ChatService) Post(ctx context.Context, roomID, userID, userName, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}
	if len(text) > maxMessageLen {
		return domain.ChatMessage{}, domain.ErrInvalidInput
	}
	return s.reg.PostMessage(registry.NormalizeCode(roomID), userID, userName, text)
}

// History отдаёт журнал комнаты в порядке добавления.
func (s *ChatService) History(ctx context.Context, roomID string) []domain.ChatMessage {
	return s.reg.Messages(registry.NormalizeCode(roomID))
}
