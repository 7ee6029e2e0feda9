package window

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// ErrClosed is returned by Close when the native window has already been destroyed.
var ErrClosed = errors.New("window: closed")

// glfwWindow is the GLFW implementation of the Window interface.
type glfwWindow struct {
	title     string
	width     int
	height    int
	limits    [4]int
	resizable bool

	win *glfw.Window

	mu        *sync.Mutex
	fbWidth   int
	fbHeight  int
	destroyed bool

	polling      atomic.Bool
	pendingTitle atomic.Pointer[string]

	onResize func(width, height int)
	onKey    KeyCallback
	onScroll func(delta float32)
}

var _ Window = &glfwWindow{}

// NewWindow initialises GLFW and opens a window without a client API. The calling
// goroutine is locked to its OS thread and must be the one that later calls Run.
//
// Parameters:
//   - options: functional options for the title, size and resize behaviour
//
// Returns:
//   - Window: the open window
//   - error: an error when GLFW cannot initialise or create the window
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &glfwWindow{
		title:     "oxy",
		width:     1280,
		height:    720,
		resizable: true,
		mu:        &sync.Mutex{},
	}
	for _, opt := range options {
		opt(w)
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("window: init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, boolHint(w.resizable))

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window: create: %w", err)
	}
	w.win = win
	if w.limits != [4]int{} {
		win.SetSizeLimits(limit(w.limits[0]), limit(w.limits[1]), limit(w.limits[2]), limit(w.limits[3]))
	}
	w.fbWidth, w.fbHeight = win.GetFramebufferSize()

	win.SetKeyCallback(w.keyEvent)
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})
	// Framebuffer size, not window size: the surface is configured in pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.mu.Lock()
		w.fbWidth, w.fbHeight = width, height
		w.mu.Unlock()
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	return w, nil
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func limit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

func (w *glfwWindow) keyEvent(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if w.onKey == nil || key == glfw.KeyUnknown {
		return
	}
	switch action {
	case glfw.Press, glfw.Repeat:
		w.onKey(uint32(key), true)
	case glfw.Release:
		w.onKey(uint32(key), false)
	}
}

func (w *glfwWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *glfwWindow) SetKeyCallback(callback KeyCallback) {
	w.onKey = callback
}

func (w *glfwWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *glfwWindow) SetTitle(title string) {
	w.pendingTitle.Store(&title)
}

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.win)
}

func (w *glfwWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fbWidth, w.fbHeight
}

func (w *glfwWindow) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.destroyed && !w.win.ShouldClose()
}

func (w *glfwWindow) Run() {
	w.polling.Store(true)
	for w.IsRunning() {
		glfw.PollEvents()
		if t := w.pendingTitle.Swap(nil); t != nil {
			w.win.SetTitle(*t)
		}
	}
	w.polling.Store(false)
	w.destroy()
}

func (w *glfwWindow) Close() error {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.win.SetShouldClose(true)
	w.mu.Unlock()
	if !w.polling.Load() {
		w.destroy()
	}
	return nil
}

// destroy frees the native window and terminates GLFW once.
func (w *glfwWindow) destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return
	}
	w.destroyed = true
	w.win.Destroy()
	glfw.Terminate()
}
