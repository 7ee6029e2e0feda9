package profiler

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time         { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsOncePerInterval(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithLogging(false), WithInterval(time.Second), withClock(clk.now))

	for i := range 29 {
		clk.advance(time.Second / 60)
		if _, ok := p.Tick(); ok {
			t.Fatalf("report on tick %d before the interval elapsed", i)
		}
	}
	clk.advance(time.Second)
	rep, ok := p.Tick()
	if !ok {
		t.Fatal("no report after the interval")
	}
	// 30 frames over 29/60 + 1 seconds.
	want := 30 / (29.0/60 + 1)
	if diff := rep.FPS - want; diff > 0.01 || diff < -0.01 {
		t.Errorf("FPS = %.3f, want %.3f", rep.FPS, want)
	}
	if rep.SysMB <= 0 {
		t.Errorf("SysMB = %v, want positive", rep.SysMB)
	}

	clk.advance(time.Millisecond)
	if _, ok := p.Tick(); ok {
		t.Error("counter not reset after a report")
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithInterval(-time.Second))
	if p.updateInterval != time.Second {
		t.Errorf("interval = %v, want 1s", p.updateInterval)
	}
}
