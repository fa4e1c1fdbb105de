package monitor

import (
	"time"

	"github.com/skillcoder/dockguard/internal/config"
)

// Thresholds is the effective pair of limits for one container after
// override resolution.
type Thresholds struct {
	CPUPercent    float64
	MemoryPercent float64
}

// ViolationState records an ongoing breach of one metric by one container.
// StartedAt is set once when the breach begins and held fixed across
// consecutive breaching samples.
type ViolationState struct {
	StartedAt    time.Time
	CurrentValue float64
	Threshold    float64
}

type violationKey struct {
	container string
	metric    Metric
}

// Tracker maintains the per-container, per-metric violation map. Invariant: a
// state exists for a key iff the most recent sample for that key was strictly
// above its threshold. Not safe for concurrent use; it is owned by the
// monitor's goroutine.
type Tracker struct {
	defaults  Thresholds
	overrides map[string]config.Override
	states    map[violationKey]*ViolationState
	now       func() time.Time
}

// NewTracker creates a tracker with the given default thresholds and
// per-container overrides.
func NewTracker(defaults Thresholds, overrides map[string]config.Override) *Tracker {
	return &Tracker{
		defaults:  defaults,
		overrides: overrides,
		states:    make(map[violationKey]*ViolationState),
		now:       time.Now,
	}
}

// resolve merges a container's override onto the defaults field by field.
func (t *Tracker) resolve(container string) Thresholds {
	effective := t.defaults

	override, ok := t.overrides[container]
	if !ok {
		return effective
	}

	if override.CPUPercent != nil {
		effective.CPUPercent = *override.CPUPercent
	}

	if override.MemoryPercent != nil {
		effective.MemoryPercent = *override.MemoryPercent
	}

	return effective
}

// Update feeds one sample through the tracker and returns the event per
// metric. Metrics that were not in breach before and are not now produce no
// entry.
func (t *Tracker) Update(sample ContainerSample) map[Metric]Event {
	thresholds := t.resolve(sample.Name)

	events := make(map[Metric]Event, 2)

	if event := t.updateMetric(sample.Name, MetricCPU, sample.CPUPercent, thresholds.CPUPercent); event != EventNone {
		events[MetricCPU] = event
	}

	if event := t.updateMetric(sample.Name, MetricMemory, sample.MemoryPercent, thresholds.MemoryPercent); event != EventNone {
		events[MetricMemory] = event
	}

	return events
}

func (t *Tracker) updateMetric(container string, metric Metric, value, threshold float64) Event {
	key := violationKey{container: container, metric: metric}
	state, exists := t.states[key]

	if value > threshold {
		if !exists {
			t.states[key] = &ViolationState{
				StartedAt:    t.now(),
				CurrentValue: value,
				Threshold:    threshold,
			}

			return EventStarted
		}

		state.CurrentValue = value

		return EventContinuing
	}

	if exists {
		delete(t.states, key)

		return EventCleared
	}

	return EventNone
}

// Get returns a copy of the violation state for a key, if any.
func (t *Tracker) Get(container string, metric Metric) (ViolationState, bool) {
	state, ok := t.states[violationKey{container: container, metric: metric}]
	if !ok {
		return ViolationState{}, false
	}

	return *state, true
}

// Prune drops violation state for containers that are no longer running, so a
// container that disappears and later returns starts a fresh breach clock.
func (t *Tracker) Prune(running map[string]struct{}) {
	for key := range t.states {
		if _, ok := running[key.container]; !ok {
			delete(t.states, key)
		}
	}
}

// Len returns the number of active violation states.
func (t *Tracker) Len() int {
	return len(t.states)
}
