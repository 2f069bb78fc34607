// metrics собирает prometheus-коллекторы подсистемы взаимодействий.
// Все методы безопасны для nil-получателя: компоненты можно собирать без метрик.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/go-social-client/internal/models"
)

const namespace = "social_client"

// Исходы запроса переключения.
const (
	OutcomeApplied  = "applied"
	OutcomeStale    = "stale"
	OutcomeRollback = "rollback"
	OutcomeDropped  = "dropped"
)

// Metrics набор коллекторов.
type Metrics struct {
	toggles         *prometheus.CounterVec
	heartbeats      *prometheus.CounterVec
	realtimeState   prometheus.Gauge
	reconnects      prometheus.Counter
	realtimeEvents  *prometheus.CounterVec
	danglingComment prometheus.Counter
	commentFetches  *prometheus.CounterVec
}

// New создаёт коллекторы и регистрирует их в reg.
// reg == nil означает prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		toggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "toggle_responses_total",
			Help:      "Toggle responses by kind and outcome (applied, stale, rollback, dropped).",
		}, []string{"kind", "outcome"}),
		heartbeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "presence",
			Name:      "updates_total",
			Help:      "Presence updates sent to the gateway by state and result.",
		}, []string{"online", "result"}),
		realtimeState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "state",
			Help:      "Realtime connection state: 0 closed, 1 connecting, 2 open.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "reconnects_total",
			Help:      "Scheduled realtime reconnect attempts.",
		}),
		realtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Inbound realtime events by type and whether a subscriber received them.",
		}, []string{"type", "routed"}),
		danglingComment: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "dangling_total",
			Help:      "Comments dropped from the reply tree: orphans, their descendants and cycle members.",
		}),
		commentFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "fetches_total",
			Help:      "Comment list fetches by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.toggles,
		m.heartbeats,
		m.realtimeState,
		m.reconnects,
		m.realtimeEvents,
		m.danglingComment,
		m.commentFetches,
	)

	return m
}

// ToggleOutcome учитывает исход ответа на переключение.
func (m *Metrics) ToggleOutcome(kind models.Kind, outcome string) {
	if m == nil {
		return
	}
	m.toggles.WithLabelValues(string(kind), outcome).Inc()
}

// PresenceUpdate учитывает отправку статуса присутствия.
func (m *Metrics) PresenceUpdate(online bool, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	state := "false"
	if online {
		state = "true"
	}

	m.heartbeats.WithLabelValues(state, result).Inc()
}

// RealtimeState выставляет текущее состояние соединения.
func (m *Metrics) RealtimeState(s models.ConnState) {
	if m == nil {
		return
	}
	m.realtimeState.Set(float64(s))
}

// RealtimeReconnect учитывает запланированный реконнект.
func (m *Metrics) RealtimeReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// RealtimeEvent учитывает входящее событие.
func (m *Metrics) RealtimeEvent(eventType string, routed bool) {
	if m == nil {
		return
	}

	r := "false"
	if routed {
		r = "true"
	}

	m.realtimeEvents.WithLabelValues(eventType, r).Inc()
}

// DanglingComments учитывает комментарии, не попавшие в дерево ответов.
func (m *Metrics) DanglingComments(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.danglingComment.Add(float64(n))
}

// CommentFetch учитывает загрузку списка комментариев.
func (m *Metrics) CommentFetch(err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	m.commentFetches.WithLabelValues(result).Inc()
}
