package nhslogin

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics tracks redirect handling and relay exchanges.
type metrics struct {
	callbacks        *prometheus.CounterVec
	exchanges        *prometheus.CounterVec
	exchangeDuration prometheus.Histogram
}

// newMetrics creates the coordinator metrics and registers them on reg when
// reg is non-nil. Collectors left behind by an earlier coordinator are reused.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nhslogin_callbacks_total",
			Help: "Redirect events by outcome of code validation",
		}, []string{"state"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nhslogin_exchanges_total",
			Help: "Relay code exchanges by outcome",
		}, []string{"state"}),
		exchangeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nhslogin_exchange_duration_seconds",
			Help:    "Duration of relay code exchanges including ID token decoding",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	if reg != nil {
		m.callbacks = register(reg, m.callbacks)
		m.exchanges = register(reg, m.exchanges)
		m.exchangeDuration = register(reg, m.exchangeDuration)
	}

	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// observeCallback counts a redirect event by the state it ended validation in.
func (m *metrics) observeCallback(state CallbackState) {
	m.callbacks.WithLabelValues(state.String()).Inc()
}

// observeExchange records an exchange outcome and its duration.
// Call with time.Now() at the start of the exchange.
func (m *metrics) observeExchange(state CallbackState, start time.Time) {
	m.exchanges.WithLabelValues(state.String()).Inc()
	m.exchangeDuration.Observe(time.Since(start).Seconds())
}
