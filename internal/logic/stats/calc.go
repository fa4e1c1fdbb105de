// Package stats converts cumulative runtime counters into instantaneous
// percentages. Everything here is pure; callers own the previous/current
// sample bookkeeping.
package stats

const percentScale = 100.0

// Counters is a point-in-time snapshot of a container's cumulative CPU
// counters as reported by the engine. Both totals are monotonically
// increasing except across a container restart.
type Counters struct {
	// CPUTotal is the container's cumulative CPU time in nanoseconds.
	CPUTotal uint64

	// SystemTotal is the host's cumulative CPU time across all cores.
	SystemTotal uint64

	// OnlineCPUs is the number of CPUs available to the container;
	// zero when the engine did not report it.
	OnlineCPUs uint32
}

// CPUPercent computes the instantaneous CPU percentage between two polls of
// the same container: (cpuDelta / systemDelta) * onlineCPUs * 100. The result
// may exceed 100 on multi-core hosts. A non-positive system delta or a
// negative cpu delta (counter reset after a container restart) yields 0.0.
// hostCPUs is the fallback core count when the engine reports zero OnlineCPUs.
func CPUPercent(cur, prev Counters, hostCPUs int) float64 {
	if cur.SystemTotal <= prev.SystemTotal {
		return 0.0
	}

	if cur.CPUTotal < prev.CPUTotal {
		return 0.0
	}

	cpus := float64(cur.OnlineCPUs)
	if cpus == 0 {
		cpus = float64(hostCPUs)
	}

	if cpus == 0 {
		return 0.0
	}

	cpuDelta := float64(cur.CPUTotal - prev.CPUTotal)
	systemDelta := float64(cur.SystemTotal - prev.SystemTotal)

	return cpuDelta / systemDelta * cpus * percentScale
}

// MemoryPercent computes (usage - cache) / limit * 100. The cache argument is
// the reclaimable page cache charged to the container, so cache-heavy
// workloads are not flagged as memory-pressured. A zero limit means the
// container is unconstrained; the percentage is reported as 0.0 and callers
// surface raw bytes instead.
func MemoryPercent(usage, cache, limit uint64) float64 {
	if limit == 0 {
		return 0.0
	}

	return float64(UsedBytes(usage, cache)) / float64(limit) * percentScale
}

// UsedBytes returns usage minus reclaimable cache, clamped at zero.
func UsedBytes(usage, cache uint64) uint64 {
	if cache >= usage {
		return 0
	}

	return usage - cache
}
