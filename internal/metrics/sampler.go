package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Sampler periodically reads goroutine count, heap usage, and smoothed
// CPU percentage into a Metrics sink. Grounded on the teacher's
// internal/metrics/system.go (SystemMetrics.updateCPUMetrics
// exponential smoothing) and src/resource_guard.go's periodic
// UpdateResources loop.
type Sampler struct {
	sink       *Metrics
	interval   time.Duration
	cpuPercent float64
}

// NewSampler builds a Sampler that reports into sink every interval.
func NewSampler(sink *Metrics, interval time.Duration) *Sampler {
	return &Sampler{sink: sink, interval: interval}
}

// Run samples until ctx is canceled.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	percents, err := cpu.Percent(100*time.Millisecond, false)
	if err == nil && len(percents) > 0 {
		const alpha = 0.3
		if s.cpuPercent == 0 {
			s.cpuPercent = percents[0]
		} else {
			s.cpuPercent = alpha*percents[0] + (1-alpha)*s.cpuPercent
		}
	}

	s.sink.SetResourceUsage(runtime.NumGoroutine(), mem.HeapAlloc, s.cpuPercent)
}
