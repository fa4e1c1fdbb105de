package pinger

import (
	"sync"
	"time"
)

// Stats tracks the last outcome of a single pinger.
type Stats struct {
	Name         string
	LastRun      time.Time
	LastError    error
	SuccessCount uint64
	ErrorCount   uint64
	mu           sync.RWMutex
}

func (s *Stats) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastRun = time.Now()
	s.LastError = err

	if err != nil {
		s.ErrorCount++
	} else {
		s.SuccessCount++
	}
}

// Statistics is a read-only snapshot of a pinger's state.
type Statistics struct {
	IsHealthy    bool
	LastRun      time.Time
	LastError    error
	SuccessCount uint64
	ErrorCount   uint64
}

func (s *Stats) snapshot(info *pingerInfo) *Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Non-critical pingers never fail overall health
	isHealthy := !info.healthCritical || s.LastError == nil

	return &Statistics{
		IsHealthy:    isHealthy,
		LastRun:      s.LastRun,
		LastError:    s.LastError,
		SuccessCount: s.SuccessCount,
		ErrorCount:   s.ErrorCount,
	}
}
