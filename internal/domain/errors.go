package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomInactive        = errors.New("room is inactive")
	ErrRoomFull            = errors.New("room is full")
	ErrForbidden           = errors.New("admin rights required")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEmptyMessage        = errors.New("empty message")
)
