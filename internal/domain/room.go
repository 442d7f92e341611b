package domain

import "time"

type Room struct {
	ID              string
	Name            string
	CreatorID       string
	MaxParticipants int
	CreatedAt       time.Time
	Active          bool
}
