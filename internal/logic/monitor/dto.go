package monitor

import "github.com/skillcoder/dockguard/internal/logic/stats"

// Metric identifies which resource a threshold or violation refers to.
type Metric string

const (
	MetricCPU    Metric = "cpu"
	MetricMemory Metric = "memory"
)

// Event is the tracker's verdict for one metric of one sample.
type Event int

const (
	EventNone Event = iota
	EventStarted
	EventContinuing
	EventCleared
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventContinuing:
		return "continuing"
	case EventCleared:
		return "cleared"
	case EventNone:
		return "none"
	}

	return "unknown"
}

// RawSample is what the runtime adapter returns for one container: cumulative
// CPU counters plus point-in-time memory figures. CacheReported distinguishes
// "runtime reported zero cache" from "runtime reported no cache figure at
// all"; subtraction only happens in the former case.
type RawSample struct {
	Name          string
	CPU           stats.Counters
	MemoryUsage   uint64
	MemoryCache   uint64
	MemoryLimit   uint64
	CacheReported bool
}

// ContainerSample is the immutable per-cycle snapshot fed to the tracker.
// CPUPercent may exceed 100 on multi-core hosts. MemoryBytes is usage minus
// reclaimable cache.
type ContainerSample struct {
	Name          string
	CPUPercent    float64
	MemoryPercent float64
	MemoryBytes   uint64
	MemoryLimit   uint64
}
