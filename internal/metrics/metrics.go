// Package metrics expõe as métricas Prometheus da API de desempenho de vendas
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sales_performance"

// Métricas HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de requisições HTTP",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duração das requisições HTTP (segundos)",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

// Métricas dos contadores
var (
	// IncrementsTotal incrementos aplicados por tipo e resultado
	IncrementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_increments_total",
			Help:      "Total de incrementos de contadores",
		},
		[]string{"kind", "result"}, // kind: leads_received/leads_converted/payment, result: ok/error
	)

	// RolloversTotal períodos arquivados por gatilho
	RolloversTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "period_rollovers_total",
			Help:      "Total de períodos arquivados",
		},
		[]string{"trigger"}, // lazy, sweep
	)

	CountersInitializedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counters_initialized_total",
			Help:      "Total de linhas de contadores criadas",
		},
	)
)

// Métricas da varredura de arquivamento
var (
	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollover_sweep_runs_total",
			Help:      "Total de execuções da varredura de arquivamento",
		},
		[]string{"result"}, // ok, error, locked
	)

	SweepRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollover_sweep_rows_total",
			Help:      "Linhas processadas pela varredura de arquivamento",
		},
		[]string{"result"}, // archived, skipped, failed
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rollover_sweep_duration_seconds",
			Help:      "Duração da varredura de arquivamento (segundos)",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)

// Métricas de eventos de negócio
var (
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "business_events_total",
			Help:      "Total de eventos de negócio recebidos",
		},
		[]string{"source", "type", "result"}, // source: amqp/http, result: ok/invalid/error
	)
)
