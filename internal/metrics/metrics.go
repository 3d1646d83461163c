// Package metrics holds the Prometheus collectors exported by the API server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wineinventory"

// ServerMetrics owns its registry so several servers can live in one process.
type ServerMetrics struct {
	Registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	OrdersCreated *prometheus.CounterVec
	OrderStatus   *prometheus.CounterVec
	TasksCreated  *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
}

func NewServerMetrics() *ServerMetrics {
	m := &ServerMetrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created, by initial status.",
		}, []string{"status"}),
		OrderStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_updates_total",
			Help:      "Order status updates, by new status.",
		}, []string{"status"}),
		TasksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Tasks registered, by crew id.",
		}, []string{"crew"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Requests rejected by business rules, by operation and reason.",
		}, []string{"operation", "reason"}),
	}
	m.Registry.MustRegister(m.Requests, m.LatencyMS, m.OrdersCreated, m.OrderStatus, m.TasksCreated, m.Rejections)
	return m
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
