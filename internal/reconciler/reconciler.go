// reconciler ведёт оптимистичные счётчики like/save/share и согласует их
// с авторитетными ответами сервера.
//
// Поведение:
//   - Toggle меняет (count, flag) синхронно и только потом уходит в сеть;
//   - у каждой цели свой монотонный номер запроса: применяется только ответ
//     на последний выданный запрос, более старые отбрасываются;
//   - ошибка последнего запроса откатывает цель к последнему подтверждённому
//     сервером состоянию; пока в полёте есть более старые запросы, откат идёт
//     к состоянию до мутации, а окончательное значение выставит их исход.
package reconciler

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

var (
	// ErrInvalidTarget ключ не описывает поддерживаемую цель.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrClosed реконсайлер закрыт и новые переключения не принимает.
	ErrClosed = errors.New("reconciler closed")
)

// ToggleAPI часть gateway.API, нужная реконсайлеру.
type ToggleAPI interface {
	ToggleLike(ctx context.Context, ref models.TargetRef) (models.Toggled, error)
	ToggleSave(ctx context.Context, ref models.TargetRef) (models.Toggled, error)
	ToggleShare(ctx context.Context, ref models.TargetRef) (models.Toggled, error)
}

// Listener получает снимок цели после каждого изменения.
type Listener func(models.Interaction)

type delivery struct {
	snap      models.Interaction
	listeners []Listener
}

type target struct {
	state   models.InteractionState
	seq     uint64
	pending bool

	// inflight число запросов без ответа.
	inflight int
	// confirmed последнее состояние от сервера (Load или успешный ответ) и его номер.
	confirmed    models.InteractionState
	confirmedSeq uint64
	// authSeq номер ответа или Load, от которого получено видимое состояние.
	authSeq uint64
	// provisional видимое состояние получено откатом при живых старых запросах.
	provisional bool
}

// Reconciler потокобезопасен. Сетевые вызовы никогда не выполняются под мьютексом.
type Reconciler struct {
	api     ToggleAPI
	log     *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu        sync.Mutex
	targets   map[models.TargetKey]*target
	listeners map[uint64]Listener
	nextID    uint64
	closed    bool

	queue    []delivery
	draining bool

	wg sync.WaitGroup
}

// Option настройка Reconciler.
type Option func(*Reconciler)

// WithLogger задаёт базовый логгер.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// WithRequestTimeout ограничивает время одного запроса к серверу; d <= 0 без ограничения.
func WithRequestTimeout(d time.Duration) Option {
	return func(r *Reconciler) { r.timeout = d }
}

// New создаёт Reconciler поверх api.
func New(api ToggleAPI, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:       api,
		log:       slog.Default(),
		targets:   make(map[models.TargetKey]*target),
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Load засевает или перезаписывает состояние цели данными сервера (загрузка ленты).
// Номер запроса увеличивается, поэтому ответы на ранее выданные запросы будут отброшены.
func (r *Reconciler) Load(key models.TargetKey, state models.InteractionState) error {
	const op = "reconciler/Load"

	if err := key.Validate(); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidTarget, err)
	}
	if state.Count < 0 {
		state.Count = 0
	}

	r.mu.Lock()
	t := r.targetLocked(key)
	t.state = state
	t.seq++
	t.pending = false
	t.confirmed, t.confirmedSeq = state, t.seq
	t.authSeq = t.seq
	t.provisional = false
	r.publishLocked(snapshot(key, t))

	return nil
}

// Toggle оптимистично переключает цель и отправляет запрос в фоне.
//
// Контракт:
//   - возвращённый снимок уже отражает мутацию и передан слушателям;
//   - неизвестная цель стартует с (0, false);
//   - count не опускается ниже нуля;
//   - запрос не отменяется вместе с ctx: он переживает вызвавший экран,
//     но ограничен WithRequestTimeout. Значения ctx (логгер) сохраняются.
//
// Ошибки: только ErrInvalidTarget и ErrClosed. Сбой запроса логируется
// и откатывает состояние, вызывающему он не возвращается.
func (r *Reconciler) Toggle(ctx context.Context, key models.TargetKey) (models.Interaction, error) {
	const op = "reconciler/Toggle"

	if err := key.Validate(); err != nil {
		return models.Interaction{}, fmt.Errorf("%s: %w: %v", op, ErrInvalidTarget, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return models.Interaction{}, fmt.Errorf("%s: %w", op, ErrClosed)
	}

	t := r.targetLocked(key)
	before := t.state

	t.state.Flag = !before.Flag
	switch {
	case t.state.Flag:
		t.state.Count++
	case t.state.Count > 0:
		t.state.Count--
	}
	t.seq++
	t.pending = true
	t.inflight++

	seq := t.seq
	snap := snapshot(key, t)

	r.wg.Add(1)
	r.publishLocked(snap)

	go r.send(context.WithoutCancel(ctx), key, seq, before)

	return snap, nil
}

// Apply применяет авторитетный ответ на запрос seq.
//
// Поведение:
//   - ответ на последний выданный запрос применяется всегда;
//   - ответ на более старый запрос применяется, только если последний уже
//     завершился ошибкой и видимое состояние получено не из более нового ответа;
//   - в остальных случаях ответ устарел: возвращается false, но он всё равно
//     обновляет подтверждённое состояние, к которому идёт откат.
//
// Повторное применение того же ответа не меняет состояние.
func (r *Reconciler) Apply(key models.TargetKey, res models.Toggled, seq uint64) bool {
	r.mu.Lock()

	t, ok := r.targets[key]
	if !ok {
		r.mu.Unlock()
		return false
	}

	return r.applyLocked(key, t, res, seq)
}

// applyLocked вызывается под r.mu и снимает его.
func (r *Reconciler) applyLocked(key models.TargetKey, t *target, res models.Toggled, seq uint64) bool {
	total := res.Total
	if total < 0 {
		total = 0
	}
	next := models.InteractionState{Count: total, Flag: res.Flag}

	if seq > t.confirmedSeq {
		t.confirmed, t.confirmedSeq = next, seq
	}

	newest := seq == t.seq
	late := !t.pending && seq > t.authSeq
	if !newest && !late {
		r.mu.Unlock()
		return false
	}

	t.authSeq = seq
	t.provisional = false
	if t.state == next && !t.pending {
		r.mu.Unlock()
		return true
	}

	t.state = next
	t.pending = false
	r.publishLocked(snapshot(key, t))

	return true
}

// State возвращает текущий снимок цели.
func (r *Reconciler) State(key models.TargetKey) (models.Interaction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.targets[key]
	if !ok {
		return models.Interaction{Key: key}, false
	}

	return snapshot(key, t), true
}

// Subscribe регистрирует слушателя и возвращает функцию отписки.
// Слушатели вызываются последовательно в порядке изменений и вне мьютекса состояния.
func (r *Reconciler) Subscribe(fn Listener) (cancel func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// Wait блокируется до завершения всех запросов в полёте.
func (r *Reconciler) Wait() { r.wg.Wait() }

// Close перестаёт принимать переключения и дожидается запросов в полёте.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Reconciler) send(ctx context.Context, key models.TargetKey, seq uint64, before models.InteractionState) {
	const op = "reconciler/send"
	defer r.wg.Done()

	lg := log.Op(ctx, r.log, op, slog.String("target", key.String()), slog.Uint64("seq", seq))

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res, err := r.call(ctx, key)

	r.mu.Lock()
	t := r.targets[key]
	t.inflight--

	if err != nil {
		if r.failLocked(key, t, seq, before) {
			r.metrics.ToggleOutcome(key.Kind, metrics.OutcomeRollback)
			lg.Warn("toggle_rollback", slog.String("err", err.Error()))
			return
		}
		r.metrics.ToggleOutcome(key.Kind, metrics.OutcomeDropped)
		lg.Debug("toggle_stale_failure_ignored", slog.String("err", err.Error()))
		return
	}

	if !r.applyLocked(key, t, res, seq) {
		r.metrics.ToggleOutcome(key.Kind, metrics.OutcomeStale)
		lg.Debug("toggle_stale_response", slog.Int("total", res.Total), slog.Bool("flag", res.Flag))
		return
	}

	r.metrics.ToggleOutcome(key.Kind, metrics.OutcomeApplied)
}

func (r *Reconciler) call(ctx context.Context, key models.TargetKey) (models.Toggled, error) {
	switch key.Kind {
	case models.KindLike:
		return r.api.ToggleLike(ctx, key.Ref)
	case models.KindSave:
		return r.api.ToggleSave(ctx, key.Ref)
	case models.KindShare:
		return r.api.ToggleShare(ctx, key.Ref)
	default:
		return models.Toggled{}, fmt.Errorf("%w: kind %q", ErrInvalidTarget, key.Kind)
	}
}

// failLocked вызывается под r.mu и снимает его. Возвращает true, если состояние откатилось.
//
// Ошибка последнего запроса откатывает к confirmed, когда других запросов
// в полёте нет, иначе к before (состоянию до мутации) до их исхода.
// Ошибка старого запроса после такого промежуточного отката, если она
// была последней в полёте, возвращает цель к confirmed.
func (r *Reconciler) failLocked(key models.TargetKey, t *target, seq uint64, before models.InteractionState) bool {
	switch {
	case seq == t.seq:
		t.pending = false
		if t.inflight == 0 {
			r.settleLocked(t)
		} else {
			t.state = before
			t.provisional = true
		}
	case !t.pending && t.inflight == 0 && t.provisional:
		r.settleLocked(t)
	default:
		r.mu.Unlock()
		return false
	}

	r.publishLocked(snapshot(key, t))

	return true
}

func (r *Reconciler) settleLocked(t *target) {
	t.state = t.confirmed
	t.authSeq = t.confirmedSeq
	t.provisional = false
}

func (r *Reconciler) targetLocked(key models.TargetKey) *target {
	t, ok := r.targets[key]
	if !ok {
		t = &target{}
		r.targets[key] = t
	}

	return t
}

// publishLocked вызывается под r.mu и снимает его.
// Снимки встают в очередь и доставляются по одному, без r.mu, строго в порядке изменений.
// Если очередь уже разбирает другая горутина, доставку выполнит она.
func (r *Reconciler) publishLocked(snap models.Interaction) {
	ls := make([]Listener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		ls = append(ls, fn)
	}
	r.queue = append(r.queue, delivery{snap: snap, listeners: ls})

	if r.draining {
		r.mu.Unlock()
		return
	}
	r.draining = true

	for len(r.queue) > 0 {
		d := r.queue[0]
		r.queue[0] = delivery{}
		r.queue = r.queue[1:]

		r.mu.Unlock()
		for _, fn := range d.listeners {
			fn(d.snap)
		}
		r.mu.Lock()
	}

	r.draining = false
	r.mu.Unlock()
}

func snapshot(key models.TargetKey, t *target) models.Interaction {
	return models.Interaction{Key: key, State: t.state, Seq: t.seq, Pending: t.pending}
}
