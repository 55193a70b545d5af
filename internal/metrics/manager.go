package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/s0up4200/qbitdrop/internal/client"
	"github.com/s0up4200/qbitdrop/internal/config"
)

const (
	ResultSuccess = "success"
	// ResultRejected means the daemon answered with an error status
	ResultRejected = "rejected"
	// ResultUnreachable covers connection failures and timeouts
	ResultUnreachable = "unreachable"
)

type Manager struct {
	registry      *prometheus.Registry
	torrentsAdded *prometheus.CounterVec
	addDuration   *prometheus.HistogramVec
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	torrentsAdded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qbitdrop",
		Name:      "torrents_added_total",
		Help:      "Torrent add requests forwarded to qBittorrent, by directory and result",
	}, []string{"directory", "result"})

	addDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "qbitdrop",
		Name:      "qbittorrent_add_duration_seconds",
		Help:      "Time spent waiting on qBittorrent's torrents/add endpoint",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})

	registry.MustRegister(torrentsAdded, addDuration)

	log.Debug().Msg("metrics manager initialized")

	return &Manager{
		registry:      registry,
		torrentsAdded: torrentsAdded,
		addDuration:   addDuration,
	}
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

// ObserveAdd records the outcome of one forwarded add request
func (m *Manager) ObserveAdd(directory config.Directory, took time.Duration, err error) {
	result := resultLabel(err)
	m.torrentsAdded.WithLabelValues(string(directory), result).Inc()
	m.addDuration.WithLabelValues(result).Observe(took.Seconds())
}

func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, client.ErrUnexpectedStatus):
		return ResultRejected
	default:
		return ResultUnreachable
	}
}
