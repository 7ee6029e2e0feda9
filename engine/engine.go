// Package engine runs a Scene inside a Window: a fixed-rate tick goroutine for input-driven
// camera motion, a render goroutine submitting frames as fast as the present mode allows,
// and the window's event loop on the caller's goroutine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/cluster"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/telemetry"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
)

// engine is the implementation of the Engine interface.
type engine struct {
	window window.Window
	scene  scene.Scene

	profiler         *profiler.Profiler
	profilingEnabled bool

	telemetryAddr string
	hub           telemetry.Hub
	server        *telemetry.Server

	statusTitle string

	tickRate    atomic.Int64 // nanoseconds between ticks
	frameLimit  atomic.Int64 // minimum nanoseconds per frame, 0 = uncapped
	onTick      func(deltaTime float32)
	onFrameDone func(deltaTime float32)

	lightStep  int
	orbitSpeed float32 // radians per second while an orbit key is held
	vsync      atomic.Bool
	held       *heldKeys

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// Engine drives a single Scene: it owns the frame loop and maps window input onto the
// scene and its camera.
//
// Key bindings: W/A/S/D orbit, +/- change the light count, P toggles profiler logging,
// V toggles vsync and Esc quits. The scroll wheel zooms.
type Engine interface {
	// Window returns the window the engine renders into.
	//
	// Returns:
	//   - window.Window: the window
	Window() window.Window

	// Scene returns the rendered scene.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// EnableProfiler turns on the once-per-second [Profiler] log line.
	EnableProfiler()

	// DisableProfiler turns off the [Profiler] log line. Telemetry keeps receiving reports.
	DisableProfiler()

	// SetTickRate changes the input tick rate. Takes effect on the next tick when running.
	//
	// Parameters:
	//   - hz: ticks per second, 60 when not positive
	SetTickRate(hz float64)

	// SetTickCallback registers a function run on every tick after camera input is applied.
	//
	// Parameters:
	//   - callback: function receiving the tick delta in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers a function run after every submitted frame.
	//
	// Parameters:
	//   - callback: function receiving the frame delta in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop independently of the present mode.
	//
	// Parameters:
	//   - fps: maximum frames per second, 0 for uncapped
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render goroutines and blocks in the window's event loop
	// until the window closes. Must be called on the goroutine that created the window.
	Run()

	// Quit stops both goroutines and closes the window. Safe to call more than once.
	Quit()
}

var _ Engine = &engine{}

// NewEngine binds a scene to a window.
//
// Parameters:
//   - w: the window providing input and resize events
//   - s: the scene to render
//   - options: functional options for profiling, rates, telemetry and key bindings
//
// Returns:
//   - Engine: the engine, ready to Run
func NewEngine(w window.Window, s scene.Scene, options ...EngineBuilderOption) Engine {
	if w == nil || s == nil {
		panic("engine: NewEngine requires a window and a scene")
	}
	e := &engine{
		window:     w,
		scene:      s,
		lightStep:  50,
		orbitSpeed: 1.2,
		held:       newHeldKeys(),
		quit:       make(chan struct{}),
	}
	e.tickRate.Store(int64(time.Second / 60))
	for _, opt := range options {
		opt(e)
	}
	e.profiler = profiler.NewProfiler(profiler.WithLogging(e.profilingEnabled))

	if e.telemetryAddr != "" {
		e.hub = telemetry.NewHub(telemetry.WithControlHandler(e.applyControl))
		e.server = telemetry.NewServer(e.telemetryAddr, e.hub)
	}

	w.SetResizeCallback(e.onResize)
	w.SetKeyCallback(e.onKey)
	w.SetScrollCallback(func(delta float32) {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil {
			ctrl.Zoom(delta)
		}
	})
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Run() {
	if e.server != nil {
		e.server.Start()
	}
	e.wg.Add(2)
	go e.tickLoop()
	go e.renderLoop()

	e.window.Run()
	e.stop()
	e.wg.Wait()

	if e.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.server.Shutdown(ctx); err != nil {
			log.Printf("[Engine] telemetry shutdown: %v", err)
		}
	}
}

func (e *engine) Quit() {
	e.stop()
	if err := e.window.Close(); err != nil && !errors.Is(err, window.ErrClosed) {
		log.Printf("[Engine] close window: %v", err)
	}
}

func (e *engine) stop() {
	e.quitOnce.Do(func() { close(e.quit) })
}

// tickLoop applies held orbit keys and runs the tick callback at the tick rate.
func (e *engine) tickLoop() {
	defer e.wg.Done()

	rate := time.Duration(e.tickRate.Load())
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-e.quit:
			return
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now

			e.applyOrbit(dt)
			if e.onTick != nil {
				e.onTick(dt)
			}
			if r := time.Duration(e.tickRate.Load()); r != rate {
				rate = r
				ticker.Reset(rate)
			}
		}
	}
}

// renderLoop submits one frame per iteration until quit. Frame errors are logged and the
// loop continues; a panic stops the engine.
func (e *engine) renderLoop() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render loop panic: %v", r)
			e.Quit()
		}
	}()

	start := time.Now()
	last := start
	for {
		select {
		case <-e.quit:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if err := e.scene.SubmitFrame(float32(now.Sub(start).Seconds()), dt); err != nil {
			log.Printf("[Engine] %v", err)
		}
		if e.onFrameDone != nil {
			e.onFrameDone(dt)
		}
		if rep, ok := e.profiler.Tick(); ok {
			e.report(rep)
		}

		if limit := time.Duration(e.frameLimit.Load()); limit > 0 {
			if remaining := limit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// report publishes a profiler interval to telemetry and the window title.
func (e *engine) report(rep profiler.Report) {
	if e.hub == nil && e.statusTitle == "" {
		return
	}
	st := e.scene.Stats()
	if e.hub != nil {
		e.hub.Broadcast(frameStats(rep, st))
	}
	if e.statusTitle != "" {
		e.window.SetTitle(statusLine(e.statusTitle, rep, st))
	}
}

// statusLine formats the window title shown while profiling.
func statusLine(base string, rep profiler.Report, st scene.Stats) string {
	return fmt.Sprintf("%s | %.0f fps | %d lights | %dx%dx%d clusters (max %d)",
		base, rep.FPS, st.NumLights, st.Grid.X, st.Grid.Y, st.Grid.Z, st.MaxOccupancy)
}

// frameStats builds the telemetry document from a profiler report and scene statistics.
func frameStats(rep profiler.Report, st scene.Stats) telemetry.FrameStats {
	return telemetry.FrameStats{
		Frame:            st.Frame,
		FPS:              rep.FPS,
		NumLights:        st.NumLights,
		Clusters:         st.Clusters,
		ClustersX:        st.Grid.X,
		ClustersY:        st.Grid.Y,
		ClustersZ:        st.Grid.Z,
		MaxOccupancy:     st.MaxOccupancy,
		OccupiedClusters: st.OccupiedClusters,
		Objects:          st.Objects,
		Drawn:            st.Drawn,
	}
}

// applyControl handles a telemetry control message.
func (e *engine) applyControl(msg telemetry.ControlMessage) {
	if msg.NumLights != nil {
		e.scene.SetLightCount(*msg.NumLights)
	}
}

func (e *engine) onResize(width, height int) {
	err := e.scene.Resize(width, height)
	if err != nil && !errors.Is(err, cluster.ErrZeroViewport) {
		log.Printf("[Engine] resize to %dx%d: %v", width, height, err)
	}
}

func (e *engine) EnableProfiler() {
	e.profiler.SetLogging(true)
}

func (e *engine) DisableProfiler() {
	e.profiler.SetLogging(false)
}

func (e *engine) SetTickRate(hz float64) {
	e.tickRate.Store(int64(hzToPeriod(hz, time.Second/60)))
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.onTick = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.onFrameDone = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.frameLimit.Store(int64(hzToPeriod(fps, 0)))
}

// hzToPeriod converts a rate to a period, returning fallback for non-positive rates.
func hzToPeriod(hz float64, fallback time.Duration) time.Duration {
	if hz <= 0 {
		return fallback
	}
	return time.Duration(float64(time.Second) / hz)
}
