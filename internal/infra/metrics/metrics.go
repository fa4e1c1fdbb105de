package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var alertsSentTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "dockguard_alerts_sent_total",
		Help: "Total number of alerts delivered, by category.",
	},
	[]string{"category"},
)

var alertsSuppressedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "dockguard_alerts_suppressed_total",
		Help: "Total number of alerts dropped by the cooldown gate, by alert key.",
	},
	[]string{"key"},
)

var containersStoppedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "dockguard_containers_stopped_total",
		Help: "Total number of containers stopped by the memory pressure manager.",
	},
	[]string{"container"},
)

var containersRestartedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "dockguard_containers_restarted_total",
		Help: "Total number of containers restarted after operator confirmation.",
	},
	[]string{"container"},
)

var sampleFailuresTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "dockguard_sample_failures_total",
		Help: "Total number of per-container sampling failures skipped during poll cycles.",
	},
	[]string{"container"},
)

var pollCyclesTotal = promauto.With(prometheus.DefaultRegisterer).NewCounter(
	prometheus.CounterOpts{
		Name: "dockguard_poll_cycles_total",
		Help: "Total number of completed resource monitor poll cycles.",
	},
)

var memoryPressureState = promauto.With(prometheus.DefaultRegisterer).NewGauge(
	prometheus.GaugeOpts{
		Name: "dockguard_memory_pressure_state",
		Help: "Current memory pressure state (0=normal, 1=warning, 2=critical, 3=recovering).",
	},
)

// RecordAlertSent increments the delivered-alert counter for a category.
func RecordAlertSent(category string) {
	alertsSentTotal.WithLabelValues(category).Inc()
}

// RecordAlertSuppressed increments the suppressed-alert counter for an alert key.
func RecordAlertSuppressed(key string) {
	alertsSuppressedTotal.WithLabelValues(key).Inc()
}

// RecordContainerStopped increments the stop counter when a kill succeeds.
func RecordContainerStopped(container string) {
	containersStoppedTotal.WithLabelValues(container).Inc()
}

// RecordContainerRestarted increments the restart counter after a confirmed restart.
func RecordContainerRestarted(container string) {
	containersRestartedTotal.WithLabelValues(container).Inc()
}

// RecordSampleFailure increments the counter for a container skipped this cycle.
func RecordSampleFailure(container string) {
	sampleFailuresTotal.WithLabelValues(container).Inc()
}

// RecordPollCycle increments the completed poll cycle counter.
func RecordPollCycle() {
	pollCyclesTotal.Inc()
}

// SetMemoryPressureState publishes the numeric pressure state.
func SetMemoryPressureState(v float64) {
	memoryPressureState.Set(v)
}
