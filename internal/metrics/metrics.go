// Package metrics exposes Prometheus collectors for the server.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/kakeibo/internal/ledger"
	"github.com/mmynk/kakeibo/internal/models"
	"github.com/mmynk/kakeibo/internal/realtime"
)

const namespace = "kakeibo"

var _ ledger.Notifier = (*Metrics)(nil)

// Metrics bundles the server collectors.
type Metrics struct {
	registry *prometheus.Registry

	RPCRequests     *prometheus.CounterVec
	RPCDuration     *prometheus.HistogramVec
	ExpenseEvents   *prometheus.CounterVec
	WatchStreams    prometheus.Gauge
	Settlements     prometheus.Counter
	SettledExpenses prometheus.Counter
}

// New constructs the collectors and registers them on a fresh registry
// together with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RPCRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_requests_total",
				Help:      "Total RPC calls by procedure and result code",
			},
			[]string{"procedure", "code"},
		),
		RPCDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_duration_seconds",
				Help:      "RPC latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"procedure"},
		),
		ExpenseEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expense_events_total",
				Help:      "Expense change events published by type",
			},
			[]string{"type"},
		),
		WatchStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watch_streams",
			Help:      "Open WatchExpenses streams",
		}),
		Settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Bulk settlements that changed at least one record",
		}),
		SettledExpenses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settled_expenses_total",
			Help:      "Records marked settled by bulk settlement",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RPCRequests,
		m.RPCDuration,
		m.ExpenseEvents,
		m.WatchStreams,
		m.Settlements,
		m.SettledExpenses,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHub exports the hub's dropped-delivery count.
func (m *Metrics) ObserveHub(hub *realtime.Hub) {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_dropped_events_total",
			Help:      "Events not delivered because a subscriber buffer was full",
		},
		func() float64 { return float64(hub.Dropped()) },
	))
}

// Publisher counts every event before handing it to next.
func (m *Metrics) Publisher(next realtime.Publisher) realtime.Publisher {
	return countingPublisher{next: next, counter: m.ExpenseEvents}
}

type countingPublisher struct {
	next    realtime.Publisher
	counter *prometheus.CounterVec
}

func (p countingPublisher) Publish(ctx context.Context, ev realtime.Event) error {
	p.counter.WithLabelValues(string(ev.Type)).Inc()
	return p.next.Publish(ctx, ev)
}

// ObserveSettlement records one bulk settlement of n records.
func (m *Metrics) ObserveSettlement(n int) {
	if n <= 0 {
		return
	}
	m.Settlements.Inc()
	m.SettledExpenses.Add(float64(n))
}

// SettlementCompleted implements ledger.Notifier.
func (m *Metrics) SettlementCompleted(_ context.Context, _ *models.Group, result ledger.SettleResult) error {
	m.ObserveSettlement(result.Count)
	return nil
}
