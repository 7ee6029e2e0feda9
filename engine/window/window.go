// Package window opens the native window the renderer presents into and forwards its
// input events. It is backed by GLFW with the client API disabled, so the only consumer of
// the window surface is WebGPU.
package window

import "github.com/cogentcore/webgpu/wgpu"

// KeyCallback receives a key code and whether it went down (press or repeat) or up.
type KeyCallback func(keyCode uint32, down bool)

// Window provides the render surface and input events of a native window.
//
// Callbacks run on the goroutine calling Run, which must be the goroutine that created
// the window.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyCallback sets the function called for key presses, repeats and releases.
	//
	// Parameters:
	//   - callback: function receiving the key code and its state
	SetKeyCallback(callback KeyCallback)

	// SetScrollCallback sets the function called for vertical scroll wheel movement.
	//
	// Parameters:
	//   - callback: function receiving the scroll delta, positive away from the user
	SetScrollCallback(callback func(delta float32))

	// SetTitle replaces the title bar text. Safe to call from any goroutine; the title is
	// applied on the next Run iteration.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// SurfaceDescriptor returns the platform surface descriptor WebGPU creates its
	// surface from.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Size returns the framebuffer size in pixels, which differs from the window size on
	// high-DPI displays.
	//
	// Returns:
	//   - width, height: the framebuffer size
	Size() (width, height int)

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: false after the user closes the window or Close is called
	IsRunning() bool

	// Run polls events until the window closes.
	Run()

	// Close asks the window to close. The native window is destroyed when Run returns,
	// or immediately when Run is not active.
	//
	// Returns:
	//   - error: ErrClosed when the window was already destroyed
	Close() error
}
