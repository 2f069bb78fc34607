package realtime

import (
	"context"
	"sync"

	"github.com/pribylovaa/go-social-client/internal/models"
)

// Lease держит не более одной ссылки на канал. Нужен владельцу, который
// может просить подключение многократно (UI-оболочка после входа пользователя),
// чтобы повторные вызовы не наращивали счётчик ссылок.
type Lease struct {
	ch *Channel

	mu      sync.Mutex
	release func()
}

// NewLease создаёт пустую аренду канала ch.
func NewLease(ch *Channel) *Lease {
	return &Lease{ch: ch}
}

// Ensure берёт ссылку, если она ещё не взята. Ошибки Acquire возвращаются как есть.
func (l *Lease) Ensure(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.release != nil {
		return nil
	}

	release, err := l.ch.Acquire(ctx)
	if err != nil {
		return err
	}
	l.release = release

	return nil
}

// Held сообщает, взята ли ссылка.
func (l *Lease) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.release != nil
}

// Close отпускает ссылку. Повторные вызовы ничего не делают.
func (l *Lease) Close() {
	l.mu.Lock()
	release := l.release
	l.release = nil
	l.mu.Unlock()

	if release != nil {
		release()
	}
}

// State состояние канала.
func (l *Lease) State() models.ConnState { return l.ch.State() }
