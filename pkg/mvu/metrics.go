package mvu

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts loop activity. A nil *Metrics records nothing.
type Metrics struct {
	messages      prometheus.Counter
	commands      prometheus.Counter
	commandErrors prometheus.Counter
	cancellations prometheus.Counter
	envs          prometheus.Counter
	renders       prometheus.Counter
	duration      *prometheus.HistogramVec
}

// NewMetrics creates the program collectors and registers them with reg
// when reg is non-nil.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mvu",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		messages:      counter("messages_processed_total", "Messages passed to Update."),
		commands:      counter("commands_run_total", "Commands started by the loop."),
		commandErrors: counter("command_failures_total", "Commands that failed with a non-cancellation error."),
		cancellations: counter("cancellations_total", "Invocations that stopped early on cancellation."),
		envs:          counter("envs_created_total", "Execution contexts created."),
		renders:       counter("renders_total", "Renderer notifications."),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mvu",
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of Init and Dispatch calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.messages, m.commands, m.commandErrors, m.cancellations, m.envs, m.renders, m.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) messageProcessed() {
	if m != nil {
		m.messages.Inc()
	}
}

func (m *Metrics) commandRun() {
	if m != nil {
		m.commands.Inc()
	}
}

func (m *Metrics) commandFailed() {
	if m != nil {
		m.commandErrors.Inc()
	}
}

func (m *Metrics) canceled() {
	if m != nil {
		m.cancellations.Inc()
	}
}

func (m *Metrics) envCreated() {
	if m != nil {
		m.envs.Inc()
	}
}

func (m *Metrics) rendered() {
	if m != nil {
		m.renders.Inc()
	}
}

func (m *Metrics) observe(kind string, start time.Time) {
	if m != nil {
		m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}
