// Package metrics exposes Prometheus counters for the cart engine.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Remote mirror call results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	mutations     *prometheus.CounterVec
	loadErrors    *prometheus.CounterVec
	persistErrors prometheus.Counter
	journalErrors prometheus.Counter
	remoteCalls   *prometheus.CounterVec
	undoDepth     prometheus.Gauge
}

// New registers the collectors with reg.
// Pass prometheus.NewRegistry() in tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storecart",
			Name:      "mutations_total",
			Help:      "Committed cart transitions by action.",
		}, []string{"action"}),
		loadErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storecart",
			Name:      "load_errors_total",
			Help:      "Durable cart loads that fell back to an empty cart, by code.",
		}, []string{"code"}),
		persistErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "storecart",
			Name:      "persist_errors_total",
			Help:      "Failed write-backs of the committed cart.",
		}),
		journalErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "storecart",
			Name:      "journal_errors_total",
			Help:      "Failed journal appends.",
		}),
		remoteCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storecart",
			Name:      "remote_mirror_calls_total",
			Help:      "Remote mirror calls by result.",
		}, []string{"result"}),
		undoDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "storecart",
			Name:      "undo_depth",
			Help:      "Snapshots currently available to undo.",
		}),
	}
}

// Mutation counts a committed transition. action is a cart.Kind or "undo".
func (m *Metrics) Mutation(action string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(action).Inc()
}

// LoadError counts a load that fell back to an empty cart.
func (m *Metrics) LoadError(code string) {
	if m == nil {
		return
	}
	m.loadErrors.WithLabelValues(code).Inc()
}

// PersistError counts a failed write-back.
func (m *Metrics) PersistError() {
	if m == nil {
		return
	}
	m.persistErrors.Inc()
}

// JournalError counts a failed journal append.
func (m *Metrics) JournalError() {
	if m == nil {
		return
	}
	m.journalErrors.Inc()
}

// RemoteCall counts a finished mirror call.
func (m *Metrics) RemoteCall(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.remoteCalls.WithLabelValues(result).Inc()
}

// UndoDepth records the current history length.
func (m *Metrics) UndoDepth(n int) {
	if m == nil {
		return
	}
	m.undoDepth.Set(float64(n))
}
