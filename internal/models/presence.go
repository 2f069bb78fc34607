package models

import "time"

// PresenceState состояние присутствия локального пользователя.
type PresenceState struct {
	Online       bool
	LastActivity time.Time
}

// ConnState состояние realtime-соединения.
type ConnState int

const (
	StateClosed ConnState = iota
	StateConnecting
	StateOpen
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}
