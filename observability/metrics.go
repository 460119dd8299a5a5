// Package observability exposes the prometheus metrics of the engine.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	MessagesAppended  prometheus.Counter
	EventsPublished   *prometheus.CounterVec
	EventsDropped     prometheus.Counter
	ConnectedSessions prometheus.Gauge
	OnlineUsers       prometheus.Gauge
	TypingExpired     prometheus.Counter
	ProcessRSSBytes   prometheus.Gauge
	ProcessCPUPercent prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		MessagesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Messages durably appended to a conversation.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_events_published_total",
			Help: "Events handed to the broadcast pipeline, by kind.",
		}, []string{"kind"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_events_dropped_total",
			Help: "Events dropped on a full bus or a slow connection sink.",
		}),
		ConnectedSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_connected_sessions",
			Help: "Live websocket connections.",
		}),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_online_users",
			Help: "Users with at least one live session.",
		}),
		TypingExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_typing_expired_total",
			Help: "Typing flags cleared by the expiry sweep.",
		}),
		ProcessRSSBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_process_rss_bytes",
			Help: "Resident memory of the server process.",
		}),
		ProcessCPUPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_process_cpu_percent",
			Help: "CPU usage of the server process.",
		}),
	}
	registry.MustRegister(
		m.MessagesAppended,
		m.EventsPublished,
		m.EventsDropped,
		m.ConnectedSessions,
		m.OnlineUsers,
		m.TypingExpired,
		m.ProcessRSSBytes,
		m.ProcessCPUPercent,
	)
	return m
}

// Handler serves the /metrics endpoint for this registry only.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
