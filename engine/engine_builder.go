package engine

import "time"

// EngineBuilderOption configures an engine during NewEngine.
type EngineBuilderOption func(*engine)

// WithProfiling turns the [Profiler] log line on from the start.
//
// Parameters:
//   - enabled: whether reports are logged
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the input tick rate. Defaults to 60.
//
// Parameters:
//   - hz: ticks per second, the default when not positive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(hz float64) EngineBuilderOption {
	return func(e *engine) {
		e.tickRate.Store(int64(hzToPeriod(hz, time.Second/60)))
	}
}

// WithRenderFrameLimit caps the render loop. Uncapped by default.
//
// Parameters:
//   - fps: maximum frames per second, 0 for uncapped
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameLimit.Store(int64(hzToPeriod(fps, 0)))
	}
}

// WithTelemetry serves frame statistics and light count control over a websocket on
// addr + "/ws" while the engine runs.
//
// Parameters:
//   - addr: the listen address, e.g. ":8089"
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTelemetry(addr string) EngineBuilderOption {
	return func(e *engine) {
		e.telemetryAddr = addr
	}
}

// WithStatusTitle rewrites the window title once per profiler interval with the frame
// rate, light count and cluster grid, prefixed by base.
//
// Parameters:
//   - base: the fixed part of the title
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithStatusTitle(base string) EngineBuilderOption {
	return func(e *engine) {
		e.statusTitle = base
	}
}

// WithLightStep sets how many lights the +/- keys add or remove. Defaults to 50.
//
// Parameters:
//   - n: the step, ignored when below 1
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLightStep(n int) EngineBuilderOption {
	return func(e *engine) {
		if n > 0 {
			e.lightStep = n
		}
	}
}

// WithOrbitSpeed sets the camera orbit speed in radians per second for the W/A/S/D keys.
//
// Parameters:
//   - speed: the angular speed
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithOrbitSpeed(speed float32) EngineBuilderOption {
	return func(e *engine) {
		e.orbitSpeed = speed
	}
}
