// realtime общий на процесс websocket-канал с переподключением.
//
// Поведение:
//   - соединение держится, пока есть хотя бы один Acquire без release;
//   - после открытия канал сразу отправляет сообщение authenticate с токеном;
//   - входящие сообщения {type, ...} раздаются подписчикам этого типа,
//     неизвестные типы игнорируются;
//   - обрыв ведёт к переподключению с экспоненциальной задержкой и jitter,
//     без лимита попыток.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pribylovaa/go-social-client/internal/auth"
	"github.com/pribylovaa/go-social-client/internal/metrics"
	"github.com/pribylovaa/go-social-client/internal/models"
	"github.com/pribylovaa/go-social-client/pkg/log"
	"github.com/pribylovaa/go-social-client/pkg/redact"
)

// ErrNotOpen соединение сейчас не открыто.
var ErrNotOpen = errors.New("realtime: connection is not open")

// Handler обработчик входящего события.
type Handler = func(models.Event)

type subscription struct {
	handler Handler
	types   map[string]struct{}
}

func (s subscription) wants(typ string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[typ]
	return ok
}

// Option настройка Channel.
type Option func(*Channel)

// WithLogger задаёт базовый логгер.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// WithDialer подменяет транспорт.
func WithDialer(d Dialer) Option {
	return func(c *Channel) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithBackoff задаёт политику переподключения.
func WithBackoff(p Backoff) Option {
	return func(c *Channel) { c.policy = p.normalize() }
}

// Channel потокобезопасен. Состояние соединения меняет только его собственная горутина.
type Channel struct {
	url     string
	tokens  auth.TokenSource
	dialer  Dialer
	policy  Backoff
	log     *slog.Logger
	metrics *metrics.Metrics

	// lifeMu сериализует запуск и остановку горутины соединения.
	lifeMu sync.Mutex
	refs   int
	cancel context.CancelFunc
	done   chan struct{}

	mu sync.Mutex
	// gen номер текущей горутины соединения; переходы от остановленной игнорируются.
	gen       uint64
	state     models.ConnState
	conn      Conn
	subs      map[uint64]subscription
	observers map[uint64]func(models.ConnState)
	nextID    uint64

	writeMu sync.Mutex

	// dispatching выставлен, пока горутина соединения вызывает обработчики.
	dispatching atomic.Bool
}

// New создаёт канал. Соединение не открывается до первого Acquire.
func New(url string, tokens auth.TokenSource, opts ...Option) *Channel {
	c := &Channel{
		url:       url,
		tokens:    tokens,
		dialer:    WSDialer{HandshakeTimeout: 10 * time.Second},
		policy:    DefaultBackoff,
		log:       slog.Default(),
		state:     models.StateClosed,
		subs:      make(map[uint64]subscription),
		observers: make(map[uint64]func(models.ConnState)),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Acquire берёт ссылку на канал. Первый Acquire запускает соединение,
// последний release останавливает его и закрывает сокет.
//
// Ошибки: если токена нет (auth.ErrNoToken), ничего не запускается.
func (c *Channel) Acquire(ctx context.Context) (release func(), err error) {
	const op = "realtime/channel/Acquire"

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tok == "" {
		return nil, fmt.Errorf("%s: %w", op, auth.ErrNoToken)
	}

	c.lifeMu.Lock()
	c.refs++
	if c.refs == 1 {
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.cancel = cancel
		c.done = make(chan struct{})

		c.mu.Lock()
		c.gen++
		gen := c.gen
		c.mu.Unlock()

		go c.run(loopCtx, gen, c.done)

		log.Op(ctx, c.log, op).Info("realtime_start", slog.String("url", redact.URL(c.url)))
	}
	c.lifeMu.Unlock()

	var once sync.Once
	return func() { once.Do(c.release) }, nil
}

// release останавливает горутину соединения на последней ссылке.
// Ожидание её завершения идёт вне lifeMu. Если release вызван из обработчика
// события, горутина соединения не может завершиться, пока он не вернётся,
// поэтому ожидание пропускается: канал уже переведён в Closed, сокет закроется
// по отмене контекста.
func (c *Channel) release() {
	c.lifeMu.Lock()
	c.refs--
	if c.refs > 0 {
		c.lifeMu.Unlock()
		return
	}

	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	cancel()

	c.mu.Lock()
	c.gen++
	obs, changed := c.transitionLocked(models.StateClosed, nil)
	c.mu.Unlock()
	c.lifeMu.Unlock()

	if changed {
		c.notify(models.StateClosed, obs)
	}

	if !c.dispatching.Load() {
		<-done
	}

	c.log.Info("realtime_stop", slog.String("op", "realtime/channel/release"))
}

// Subscribe регистрирует обработчик для перечисленных типов (без типов для всех).
// Обработчики вызываются последовательно из горутины чтения.
func (c *Channel) Subscribe(handler Handler, types ...string) (unsubscribe func()) {
	sub := subscription{handler: handler}
	if len(types) > 0 {
		sub.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = sub
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// OnStateChange регистрирует наблюдателя за переходами состояния.
func (c *Channel) OnStateChange(fn func(models.ConnState)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// State текущее состояние соединения.
func (c *Channel) State() models.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Send сериализует msg в JSON и пишет в сокет.
//
// Ошибки: ErrNotOpen, если соединение не в состоянии Open.
func (c *Channel) Send(ctx context.Context, msg any) error {
	const op = "realtime/channel/Send"

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	conn, st := c.conn, c.state
	c.mu.Unlock()

	if st != models.StateOpen || conn == nil {
		return fmt.Errorf("%s: %w", op, ErrNotOpen)
	}

	if err := c.write(ctx, conn, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Channel) write(ctx context.Context, conn Conn, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return conn.Write(ctx, data)
}

// run цикл соединения: connecting -> open -> closed -> пауза -> connecting ...
func (c *Channel) run(ctx context.Context, gen uint64, done chan struct{}) {
	const op = "realtime/channel/run"
	defer close(done)

	lg := log.Op(ctx, c.log, op, slog.String("url", redact.URL(c.url)))
	b := c.policy.newBackOff()

	for {
		c.setState(gen, models.StateConnecting, nil)

		err := c.session(ctx, gen, b)

		c.setState(gen, models.StateClosed, nil)
		if ctx.Err() != nil {
			return
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			delay = c.policy.Max
		}

		c.metrics.RealtimeReconnect()
		attrs := []any{slog.Duration("delay", delay)}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
		}
		lg.Warn("realtime_reconnect_scheduled", attrs...)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session одно соединение от рукопожатия до обрыва.
// Open публикуется только после записи authenticate: до этого Send недоступен,
// и первым кадром в сокете всегда идёт аутентификация.
func (c *Channel) session(ctx context.Context, gen uint64, b backoff.BackOff) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
	}()

	hello := models.AuthenticateMessage{Type: models.EventAuthenticate, Token: tok}
	data, err := json.Marshal(hello)
	if err != nil {
		return err
	}
	if err := c.write(ctx, conn, data); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	c.setState(gen, models.StateOpen, conn)
	b.Reset()

	for {
		msg, err := conn.Read()
		if err != nil {
			return err
		}
		c.dispatch(ctx, msg)
	}
}

func (c *Channel) dispatch(ctx context.Context, data []byte) {
	const op = "realtime/channel/dispatch"

	ev, err := parseEvent(data)
	if err != nil {
		log.Op(ctx, c.log, op).Debug("realtime_message_skipped", slog.String("err", err.Error()))
		return
	}

	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs))
	for _, s := range c.subs {
		if s.wants(ev.Type) {
			handlers = append(handlers, s.handler)
		}
	}
	c.mu.Unlock()

	c.metrics.RealtimeEvent(ev.Type, len(handlers) > 0)

	c.dispatching.Store(true)
	defer c.dispatching.Store(false)

	for _, h := range handlers {
		c.safeCall(ctx, h, ev)
	}
}

// safeCall изолирует панику обработчика от цикла чтения.
func (c *Channel) safeCall(ctx context.Context, h Handler, ev models.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Op(ctx, c.log, "realtime/channel/safeCall").Error("panic",
				slog.String("type", ev.Type),
				slog.Any("reason", rec),
			)
		}
	}()

	h(ev)
}

// setState меняет состояние и соединение; вызывается только из run.
// Переходы горутины, которую уже остановил release, отбрасываются.
func (c *Channel) setState(gen uint64, st models.ConnState, conn Conn) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	obs, changed := c.transitionLocked(st, conn)
	c.mu.Unlock()

	if changed {
		c.notify(st, obs)
	}
}

// transitionLocked вызывается под c.mu и возвращает снимок наблюдателей.
func (c *Channel) transitionLocked(st models.ConnState, conn Conn) ([]func(models.ConnState), bool) {
	changed := c.state != st
	c.state = st
	c.conn = conn

	if !changed {
		return nil, false
	}

	obs := make([]func(models.ConnState), 0, len(c.observers))
	for _, fn := range c.observers {
		obs = append(obs, fn)
	}

	return obs, true
}

func (c *Channel) notify(st models.ConnState, obs []func(models.ConnState)) {
	c.metrics.RealtimeState(st)
	for _, fn := range obs {
		fn(st)
	}
}
