package presence

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pribylovaa/go-social-client/internal/models"
	"github.com/pribylovaa/go-social-client/internal/realtime"
	"github.com/pribylovaa/go-social-client/pkg/log"
)

// EventSource подписка на realtime-события (realtime.Channel).
type EventSource interface {
	Subscribe(handler func(models.Event), types ...string) (unsubscribe func())
}

// Roster online-статусы других пользователей, полученные по realtime-каналу.
type Roster struct {
	log *slog.Logger

	mu     sync.RWMutex
	online map[string]bool
	unsub  func()
}

// NewRoster создаёт пустой ростер. l == nil означает slog.Default().
func NewRoster(l *slog.Logger) *Roster {
	if l == nil {
		l = slog.Default()
	}

	return &Roster{log: l, online: make(map[string]bool)}
}

// Attach подписывает ростер на online_status_update. Повторный Attach заменяет подписку.
func (r *Roster) Attach(src EventSource) {
	unsub := src.Subscribe(r.Handle, models.EventOnlineStatusUpdate)

	r.mu.Lock()
	prev := r.unsub
	r.unsub = unsub
	r.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Detach снимает подписку.
func (r *Roster) Detach() {
	r.mu.Lock()
	unsub := r.unsub
	r.unsub = nil
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Handle применяет событие online_status_update; невалидные события пропускаются.
func (r *Roster) Handle(ev models.Event) {
	const op = "presence/roster/Handle"

	if ev.Type != models.EventOnlineStatusUpdate {
		return
	}

	var p models.OnlineStatusUpdate
	if err := realtime.Decode(ev, &p); err != nil {
		log.Op(context.Background(), r.log, op).Warn("online_status_invalid", slog.String("err", err.Error()))
		return
	}

	r.mu.Lock()
	r.online[p.UserID.String()] = p.IsOnline
	r.mu.Unlock()
}

// IsOnline последний известный статус пользователя; неизвестный считается offline.
func (r *Roster) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.online[userID]
}

// Snapshot копия всех известных статусов.
func (r *Roster) Snapshot() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.online))
	for k, v := range r.online {
		out[k] = v
	}

	return out
}

// OnlineCount число пользователей со статусом online.
func (r *Roster) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, v := range r.online {
		if v {
			n++
		}
	}

	return n
}
