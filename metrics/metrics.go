package metrics

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes metric names when Config.Namespace is empty.
const DefaultNamespace = "workerskv"

// codeError labels requests that failed before a status code was received.
const codeError = "error"

var (
	// ErrInvalidMetricName indicates a namespace that does not match the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	// ErrRegister wraps failures while registering collectors.
	ErrRegister = errors.New("failed to register metrics")

	// isMetricNameValid validates metric name prefixes using the Prometheus naming pattern.
	isMetricNameValid = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
)

// Config controls naming and registration of the client collectors.
type Config struct {
	// Namespace prefixes every metric name. If empty, DefaultNamespace is used.
	Namespace string

	// Registerer receives the collectors. If nil, prometheus.DefaultRegisterer is used.
	Registerer prometheus.Registerer
}

// Metrics holds the client collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	pages    prometheus.Counter
}

// New creates and registers the request collectors.
func New(config Config) (*Metrics, error) {
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	if !isMetricNameValid.MatchString(ns) {
		return nil, ErrInvalidMetricName
	}

	reg := config.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "requests_total",
				Help:      "Total number of Workers KV API requests by operation and status code",
			},
			[]string{"operation", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "request_duration_seconds",
				Help:      "Latency of Workers KV API requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "requests_in_flight",
				Help:      "Number of Workers KV API requests currently awaiting a response",
			},
		),
		pages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "list_pages_total",
				Help:      "Total number of key list pages fetched while listing all keys",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.inFlight, m.pages} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Join(ErrRegister, err)
		}
	}

	return m, nil
}

// Start marks a request as in flight and returns a function that records its
// outcome. A non-nil err is labelled as an error regardless of code.
func (m *Metrics) Start(operation string) func(code int, err error) {
	if m == nil {
		return func(int, error) {}
	}

	begin := time.Now()
	m.inFlight.Inc()
	return func(code int, err error) {
		m.inFlight.Dec()
		m.duration.WithLabelValues(operation).Observe(time.Since(begin).Seconds())

		label := strconv.Itoa(code)
		if err != nil {
			label = codeError
		}
		m.requests.WithLabelValues(operation, label).Inc()
	}
}

// IncPages counts one page fetched by a list-all walk.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.pages.Inc()
}
