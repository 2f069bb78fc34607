package models

import "encoding/json"

// Типы realtime-сообщений.
const (
	EventAuthenticate          = "authenticate"
	EventOnlineStatusUpdate    = "online_status_update"
	EventFriendRequestReceived = "friend_request_received"
	EventFriendRequestAccepted = "friend_request_accepted"
)

// Event входящее realtime-сообщение: тип и исходный JSON целиком.
type Event struct {
	Type    string
	Payload json.RawMessage
}

// AuthenticateMessage исходящее сообщение аутентификации после открытия сокета.
type AuthenticateMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// OnlineStatusUpdate полезная нагрузка online_status_update.
type OnlineStatusUpdate struct {
	UserID   FlexID `json:"user_id" validate:"required"`
	IsOnline bool   `json:"is_online"`
}

// FriendRequestReceived полезная нагрузка friend_request_received.
type FriendRequestReceived struct {
	RequestID      FlexID `json:"request_id" validate:"required"`
	SenderID       FlexID `json:"sender_id" validate:"required"`
	SenderUsername string `json:"sender_username"`
}

// FriendRequestAccepted полезная нагрузка friend_request_accepted.
type FriendRequestAccepted struct {
	RequestID FlexID `json:"request_id" validate:"required"`
	UserID    FlexID `json:"user_id" validate:"required"`
	Username  string `json:"username"`
}
