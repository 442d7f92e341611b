package domain

import "time"

// SystemAuthorID — зарезервированный автор для служебных сообщений реестра.
const SystemAuthorID = "system"

type ChatMessage struct {
	ID         string
	RoomID     string
	AuthorID   string
	AuthorName string
	Text       string
	IsSystem   bool
	CreatedAt  time.Time
}
