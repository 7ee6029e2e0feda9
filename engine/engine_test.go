package engine

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/cluster"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

func TestFrameStats(t *testing.T) {
	st := scene.Stats{
		Frame:            12,
		NumLights:        150,
		Grid:             cluster.Dimensions{X: 15, Y: 9, Z: 32},
		Clusters:         15 * 9 * 32,
		Objects:          4,
		Drawn:            3,
		MaxOccupancy:     17,
		OccupiedClusters: 200,
	}
	got := frameStats(profiler.Report{FPS: 144}, st)
	if got.FPS != 144 || got.Frame != 12 || got.NumLights != 150 {
		t.Errorf("header fields = %+v", got)
	}
	if got.ClustersX != 15 || got.ClustersY != 9 || got.ClustersZ != 32 || got.Clusters != 4320 {
		t.Errorf("grid fields = %+v", got)
	}
	if got.MaxOccupancy != 17 || got.OccupiedClusters != 200 || got.Objects != 4 || got.Drawn != 3 {
		t.Errorf("occupancy fields = %+v", got)
	}
}

func TestBuilderOptions(t *testing.T) {
	e := &engine{lightStep: 50}
	tick := func() time.Duration { return time.Duration(e.tickRate.Load()) }
	limit := func() time.Duration { return time.Duration(e.frameLimit.Load()) }
	tests := []struct {
		name  string
		opt   EngineBuilderOption
		check func() bool
	}{
		{"tick rate", WithTickRate(30), func() bool { return tick() == time.Second/30 }},
		{"default tick rate", WithTickRate(0), func() bool { return tick() == time.Second/60 }},
		{"frame limit", WithRenderFrameLimit(120), func() bool { return limit() == time.Second/120 }},
		{"uncapped", WithRenderFrameLimit(-1), func() bool { return limit() == 0 }},
		{"light step", WithLightStep(10), func() bool { return e.lightStep == 10 }},
		{"ignored light step", WithLightStep(0), func() bool { return e.lightStep == 10 }},
		{"telemetry", WithTelemetry(":8089"), func() bool { return e.telemetryAddr == ":8089" }},
		{"status title", WithStatusTitle("demo"), func() bool { return e.statusTitle == "demo" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opt(e)
			if !tt.check() {
				t.Errorf("option not applied: %+v", e)
			}
		})
	}
}

func TestHeldKeysAxis(t *testing.T) {
	h := newHeldKeys()
	if got := h.axis(1, 2); got != 0 {
		t.Fatalf("idle axis = %v", got)
	}
	h.set(2, true)
	if got := h.axis(1, 2); got != 1 {
		t.Errorf("positive axis = %v", got)
	}
	h.set(1, true)
	if got := h.axis(1, 2); got != 0 {
		t.Errorf("opposed axis = %v", got)
	}
	h.set(2, false)
	if got := h.axis(1, 2); got != -1 {
		t.Errorf("negative axis = %v", got)
	}
}

func TestStatusLine(t *testing.T) {
	st := scene.Stats{NumLights: 500, Grid: cluster.Dimensions{X: 25, Y: 15, Z: 32}, MaxOccupancy: 40}
	got := statusLine("demo", profiler.Report{FPS: 143.6}, st)
	want := "demo | 144 fps | 500 lights | 25x15x32 clusters (max 40)"
	if got != want {
		t.Errorf("statusLine = %q, want %q", got, want)
	}
}
