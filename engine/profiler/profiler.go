package profiler

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"
)

// Report is one interval's worth of frame and memory statistics.
type Report struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler counts frames and samples runtime memory statistics once per interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	logging        atomic.Bool
	now            func() time.Time

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a profiler reporting once per second.
//
// Parameters:
//   - options: functional options overriding the interval or logging
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	p.logging.Store(true)
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// SetLogging turns the [Profiler] log line on or off. Safe to call from any goroutine.
//
// Parameters:
//   - enabled: whether to log each report
func (p *Profiler) SetLogging(enabled bool) {
	p.logging.Store(enabled)
}

// Logging reports whether reports are logged.
//
// Returns:
//   - bool: the logging state
func (p *Profiler) Logging() bool {
	return p.logging.Load()
}

// Tick records one rendered frame. Once the interval has elapsed it samples the runtime,
// logs a [Profiler] line when logging is on and returns the report.
//
// Returns:
//   - Report: the interval's statistics, zero when ok is false
//   - bool: true when a report was produced on this tick
func (p *Profiler) Tick() (Report, bool) {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Report{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	rep := Report{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}
	rep.LastPauseUs, rep.MaxPauseUs = p.pauses()

	if p.logging.Load() {
		log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			rep.FPS, rep.HeapMB, rep.AllocRateMB, rep.GCCount, rep.LastPauseUs, rep.MaxPauseUs, rep.SysMB)
	}

	p.frameCount = 0
	p.lastTime = current
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return rep, true
}

// pauses returns the latest GC pause and the longest one since the previous report.
// PauseNs is a ring of the last 256 pauses.
func (p *Profiler) pauses() (last, longest uint64) {
	n := p.memStats.NumGC
	if n == 0 {
		return 0, 0
	}
	last = p.memStats.PauseNs[(n-1)%256] / 1000
	start := p.lastGCCount
	if n-start > 256 {
		start = n - 256
	}
	for i := start; i < n; i++ {
		longest = max(longest, p.memStats.PauseNs[i%256]/1000)
	}
	return last, longest
}
