package domain

import "time"

type Participant struct {
	RoomID       string
	UserID       string
	Name         string
	IsAdmin      bool // производное поле: UserID == Room.CreatorID
	VideoEnabled bool
	AudioEnabled bool
	JoinedAt     time.Time
	LastSeen     time.Time
}
