// presence держит online-статус локального пользователя: сообщает его серверу
// при изменениях и периодическим heartbeat, пока пользователь online.
package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pribylovaa/go-social-client/internal/metrics"
	"github.com/pribylovaa/go-social-client/internal/models"
	"github.com/pribylovaa/go-social-client/pkg/log"
)

// DefaultHeartbeatInterval период heartbeat по умолчанию.
const DefaultHeartbeatInterval = 30 * time.Second

var (
	// ErrAlreadyStarted Initialize уже вызывался.
	ErrAlreadyStarted = errors.New("presence: already started")
	// ErrStopped менеджер остановлен через Shutdown.
	ErrStopped = errors.New("presence: stopped")
)

// PresenceAPI часть gateway.API, нужная менеджеру.
type PresenceAPI interface {
	SetPresence(ctx context.Context, online bool) error
}

// Option настройка Manager.
type Option func(*Manager)

// WithLogger задаёт базовый логгер.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithHeartbeatInterval задаёт период heartbeat; d <= 0 оставляет значение по умолчанию.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithClock подменяет источник времени для LastActivity.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager единственный владелец PresenceState. Создаётся один раз в main
// и передаётся потребителям явно.
type Manager struct {
	api      PresenceAPI
	log      *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	state   models.PresenceState
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	// sendMu сохраняет порядок отправок таким же, как порядок изменений состояния.
	sendMu sync.Mutex
}

// New создаёт менеджер в состоянии offline.
func New(api PresenceAPI, opts ...Option) *Manager {
	m := &Manager{
		api:      api,
		log:      slog.Default(),
		interval: DefaultHeartbeatInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Initialize переводит пользователя в online и запускает heartbeat.
// Тикер останавливается по ctx или через Shutdown.
//
// Ошибки: ErrAlreadyStarted при повторном вызове, ErrStopped после Shutdown.
// Сбой первой отправки только логируется: следующую попытку сделает тикер.
func (m *Manager) Initialize(ctx context.Context) error {
	const op = "presence/manager/Initialize"

	m.mu.Lock()
	switch {
	case m.stopped:
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrStopped)
	case m.started:
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrAlreadyStarted)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.started = true
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	_ = m.SetOnline(ctx, true)

	log.Op(ctx, m.log, op).Info("presence_heartbeat_start", slog.Duration("interval", m.interval))

	go m.loop(loopCtx, done)

	return nil
}

// SetOnline меняет статус.
//
// Поведение:
//   - статус отличается: обновить и отправить;
//   - уже online и online == true: отправить heartbeat;
//   - уже offline и online == false: ничего не делать.
//
// Ошибка сервера логируется и возвращается обёрнутой; локальное состояние не откатывается.
func (m *Manager) SetOnline(ctx context.Context, online bool) error {
	const op = "presence/manager/SetOnline"

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrStopped)
	}
	if m.state.Online == online && !online {
		m.mu.Unlock()
		return nil
	}
	if m.state.Online != online {
		m.state.Online = online
		if online {
			m.state.LastActivity = m.now()
		}
	}
	m.mu.Unlock()

	if err := m.send(ctx, online); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RecordActivity отмечает активность пользователя; из offline переводит в online.
func (m *Manager) RecordActivity(ctx context.Context) error {
	const op = "presence/manager/RecordActivity"

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrStopped)
	}
	m.state.LastActivity = m.now()
	online := m.state.Online
	m.mu.Unlock()

	if online {
		return nil
	}

	return m.SetOnline(ctx, true)
}

// GoOffline эквивалент SetOnline(ctx, false).
func (m *Manager) GoOffline(ctx context.Context) error {
	return m.SetOnline(ctx, false)
}

// Shutdown останавливает тикер, дожидается его горутины и отправляет
// финальный offline, если пользователь был online. Повторные вызовы ничего не делают.
func (m *Manager) Shutdown(ctx context.Context) error {
	const op = "presence/manager/Shutdown"

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	wasOnline := m.state.Online
	m.state.Online = false
	m.mu.Unlock()

	log.Op(ctx, m.log, op).Info("presence_heartbeat_stop", slog.Bool("was_online", wasOnline))

	if !wasOnline {
		return nil
	}

	if err := m.send(ctx, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// State возвращает копию текущего состояния.
func (m *Manager) State() models.PresenceState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.heartbeat(ctx)
		}
	}
}

// heartbeat отправляет online только пока пользователь online. Ошибки игнорируются.
func (m *Manager) heartbeat(ctx context.Context) {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	online := m.state.Online && !m.stopped
	m.mu.Unlock()

	if !online {
		return
	}

	_ = m.send(ctx, true)
}

// send вызывается под sendMu.
func (m *Manager) send(ctx context.Context, online bool) error {
	const op = "presence/manager/send"

	err := m.api.SetPresence(ctx, online)
	m.metrics.PresenceUpdate(online, err)
	if err != nil {
		log.Op(ctx, m.log, op).Warn("presence_update_failed",
			slog.Bool("online", online),
			slog.String("err", err.Error()),
		)
		return err
	}

	return nil
}
