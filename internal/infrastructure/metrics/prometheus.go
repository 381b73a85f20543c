// Package metrics publica contadores del servicio en Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Despacho-api/internal/application/ports"
)

var _ ports.Metrics = (*Prometheus)(nil)

const namespace = "despacho"

// Prometheus implementa ports.Metrics con un registro propio.
type Prometheus struct {
	registry       *prometheus.Registry
	movements      *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	insufficient   prometheus.Counter
	repaired       prometheus.Counter
	reconciliation *prometheus.CounterVec
	retries        *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

// New registra los colectores del servicio más los de Go y del proceso.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "movements_recorded_total", Help: "Movimientos agregados al libro por tipo.",
		}, []string{"type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transitions_total", Help: "Transiciones de estado por entidad y estado destino.",
		}, []string{"entity", "to"}),
		insufficient: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "insufficient_stock_warnings_total", Help: "Aprobaciones con stock insuficiente en bodega.",
		}),
		repaired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "projection_repairs_total", Help: "Filas de stock desactualizadas corregidas en lectura.",
		}),
		reconciliation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reconciliation_needed_total", Help: "Proyecciones que fallaron después del reintento.",
		}, []string{"op"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tx_retries_total", Help: "Reintentos de transacción por operación y motivo.",
		}, []string{"op", "reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total", Help: "Peticiones HTTP por método, ruta y estado.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds", Help: "Latencia HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		p.movements, p.transitions, p.insufficient, p.repaired, p.reconciliation, p.retries,
		p.httpRequests, p.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) MovementRecorded(movementType string) {
	p.movements.WithLabelValues(movementType).Inc()
}

func (p *Prometheus) Transition(entity, to string) {
	p.transitions.WithLabelValues(entity, to).Inc()
}

func (p *Prometheus) InsufficientStock() { p.insufficient.Inc() }

func (p *Prometheus) ProjectionRepaired() { p.repaired.Inc() }

func (p *Prometheus) ReconciliationNeeded(op string) {
	p.reconciliation.WithLabelValues(op).Inc()
}

func (p *Prometheus) TxRetry(op, reason string) {
	p.retries.WithLabelValues(op, reason).Inc()
}

// ObserveHTTP lo llama el middleware de logging de peticiones.
func (p *Prometheus) ObserveHTTP(method, route string, status int, seconds float64) {
	p.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	p.httpLatency.WithLabelValues(method, route).Observe(seconds)
}

// Handler expone /metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry para tests.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}
