package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for vintner. A nil *Metrics is a
// valid no-op collector.
type Metrics struct {
	config MetricsConfig

	// Download metrics
	downloadsTotal   *prometheus.CounterVec
	downloadBytes    prometheus.Counter
	cacheHitsTotal   prometheus.Counter
	checksumFailures prometheus.Counter

	// Install metrics
	installsTotal   *prometheus.CounterVec
	uninstallsTotal prometheus.Counter
	installDuration *prometheus.HistogramVec

	// Installer subprocess metrics
	installerRuns *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// No-op instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "vintner"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		downloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_total",
				Help:      "Total number of artifact downloads",
			},
			[]string{"result"},
		),
		downloadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "download_bytes_total",
				Help:      "Total bytes fetched over HTTP",
			},
		),
		cacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Downloads satisfied from the on-disk cache",
			},
		),
		checksumFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checksum_failures_total",
				Help:      "Artifacts that failed SHA-256 verification",
			},
		),
		installsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "installs_total",
				Help:      "Verb installs by final status",
			},
			[]string{"status"},
		),
		uninstallsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uninstalls_total",
				Help:      "Verb uninstalls performed",
			},
		),
		installDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "install_duration_seconds",
				Help:      "Duration of verb installs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"category"},
		),
		installerRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "installer_runs_total",
				Help:      "Installer subprocess invocations by family",
			},
			[]string{"family"},
		),
	}

	collectors := []prometheus.Collector{
		m.downloadsTotal,
		m.downloadBytes,
		m.cacheHitsTotal,
		m.checksumFailures,
		m.installsTotal,
		m.uninstallsTotal,
		m.installDuration,
		m.installerRuns,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordDownload records a completed download attempt.
func (m *Metrics) RecordDownload(result string, bytes int64) {
	if m == nil || !m.config.Enabled {
		return
	}
	m.downloadsTotal.WithLabelValues(result).Inc()
	if bytes > 0 {
		m.downloadBytes.Add(float64(bytes))
	}
}

// RecordCacheHit records a download satisfied from cache.
func (m *Metrics) RecordCacheHit() {
	if m == nil || !m.config.Enabled {
		return
	}
	m.cacheHitsTotal.Inc()
}

// RecordChecksumFailure records an artifact that failed verification.
func (m *Metrics) RecordChecksumFailure() {
	if m == nil || !m.config.Enabled {
		return
	}
	m.checksumFailures.Inc()
}

// RecordInstall records a finished install with its final status and
// duration in seconds.
func (m *Metrics) RecordInstall(status, category string, seconds float64) {
	if m == nil || !m.config.Enabled {
		return
	}
	m.installsTotal.WithLabelValues(status).Inc()
	m.installDuration.WithLabelValues(category).Observe(seconds)
}

// RecordUninstall records a completed uninstall.
func (m *Metrics) RecordUninstall() {
	if m == nil || !m.config.Enabled {
		return
	}
	m.uninstallsTotal.Inc()
}

// RecordInstallerRun records an installer subprocess invocation.
func (m *Metrics) RecordInstallerRun(family string) {
	if m == nil || !m.config.Enabled {
		return
	}
	m.installerRuns.WithLabelValues(family).Inc()
}

// Handler returns an HTTP handler exposing the metrics, or nil when
// collection is disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil || !m.config.Enabled {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
