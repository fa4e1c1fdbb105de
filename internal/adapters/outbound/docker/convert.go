package docker

import (
	"github.com/docker/docker/api/types/container"

	"github.com/skillcoder/dockguard/internal/logic/monitor"
	"github.com/skillcoder/dockguard/internal/logic/stats"
)

// cacheKeyFallbacks covers the cgroup v2 and v1 names for reclaimable page
// cache, in lookup order.
var cacheKeyFallbacks = []string{"inactive_file", "total_inactive_file", "cache"}

// rawSample converts an engine stats payload into the monitor's sample shape.
// Cache is only reported when one of the candidate keys is actually present
// in memory_stats; a runtime that reports no cache figure gets no
// subtraction.
func rawSample(name string, s *container.StatsResponse, cacheKey string) *monitor.RawSample {
	sample := &monitor.RawSample{
		Name: name,
		CPU: stats.Counters{
			CPUTotal:    s.CPUStats.CPUUsage.TotalUsage,
			SystemTotal: s.CPUStats.SystemUsage,
			OnlineCPUs:  s.CPUStats.OnlineCPUs,
		},
		MemoryUsage: s.MemoryStats.Usage,
		MemoryLimit: s.MemoryStats.Limit,
	}

	keys := cacheKeyFallbacks
	if cacheKey != "" {
		keys = append([]string{cacheKey}, cacheKeyFallbacks...)
	}

	for _, key := range keys {
		if v, ok := s.MemoryStats.Stats[key]; ok {
			sample.MemoryCache = v
			sample.CacheReported = true

			break
		}
	}

	return sample
}
