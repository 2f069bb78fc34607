package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/pribylovaa/go-social-client/internal/errors"
	"github.com/pribylovaa/go-social-client/internal/presence"
)

// RecordActivity отмечает активность пользователя.
// Сбой отправки статуса не ошибка запроса: synced=false, тикер повторит.
func (h *Handlers) RecordActivity(w http.ResponseWriter, r *http.Request) {
	err := h.Presence.RecordActivity(r.Context())
	if errors.Is(err, presence.ErrStopped) {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPresenceView(h.Presence.State(), err == nil))
}

// GoOffline переводит пользователя в offline.
func (h *Handlers) GoOffline(w http.ResponseWriter, r *http.Request) {
	err := h.Presence.GoOffline(r.Context())
	if errors.Is(err, presence.ErrStopped) {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPresenceView(h.Presence.State(), err == nil))
}

// GetPresence текущее состояние присутствия.
func (h *Handlers) GetPresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPresenceView(h.Presence.State(), true))
}

// GetRealtime состояние realtime-канала и известные статусы других пользователей.
func (h *Handlers) GetRealtime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.realtimeView())
}

// ConnectRealtime поднимает канал, если он ещё не поднят. Без токена 401.
func (h *Handlers) ConnectRealtime(w http.ResponseWriter, r *http.Request) {
	if err := h.Realtime.Ensure(r.Context()); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.realtimeView())
}

// DisconnectRealtime отпускает канал (пользователь вышел).
func (h *Handlers) DisconnectRealtime(w http.ResponseWriter, r *http.Request) {
	h.Realtime.Close()
	writeJSON(w, http.StatusOK, h.realtimeView())
}

func (h *Handlers) realtimeView() realtimeView {
	return realtimeView{
		State:       h.Realtime.State().String(),
		OnlineUsers: h.Roster.Snapshot(),
	}
}
