package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// heldKeys tracks keys that act continuously while pressed.
type heldKeys struct {
	mu   *sync.Mutex
	keys map[uint32]bool
}

func newHeldKeys() *heldKeys {
	return &heldKeys{mu: &sync.Mutex{}, keys: make(map[uint32]bool)}
}

func (h *heldKeys) set(key uint32, down bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if down {
		h.keys[key] = true
	} else {
		delete(h.keys, key)
	}
}

// axis returns +1 when only pos is held, -1 when only neg is held and 0 otherwise.
func (h *heldKeys) axis(neg, pos uint32) float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	var v float32
	if h.keys[pos] {
		v++
	}
	if h.keys[neg] {
		v--
	}
	return v
}

// onKey handles discrete bindings on the press edge and records the rest as held.
func (e *engine) onKey(key uint32, down bool) {
	if down && e.press(key) {
		return
	}
	e.held.set(key, down)
}

// press applies a discrete key binding.
//
// Returns:
//   - bool: true when key is bound to an action
func (e *engine) press(key uint32) bool {
	switch key {
	case common.KeyEsc:
		e.Quit()
	case common.KeyEqual, common.KeyKPAdd:
		e.scene.SetLightCount(e.scene.Lights().Count() + e.lightStep)
	case common.KeyMinus, common.KeyKPSubtract:
		e.scene.SetLightCount(e.scene.Lights().Count() - e.lightStep)
	case common.KeyP:
		e.profiler.SetLogging(!e.profiler.Logging())
	case common.KeyV:
		on := !e.vsync.Load()
		e.vsync.Store(on)
		e.scene.SetVSync(on)
	default:
		return false
	}
	return true
}

// applyOrbit turns the camera around its target while W/A/S/D are held.
func (e *engine) applyOrbit(dt float32) {
	ctrl := e.scene.Camera().Controller()
	if ctrl == nil {
		return
	}
	dAz := e.held.axis(common.KeyA, common.KeyD)
	dEl := e.held.axis(common.KeyS, common.KeyW)
	if dAz != 0 || dEl != 0 {
		ctrl.Orbit(dAz*e.orbitSpeed*dt, dEl*e.orbitSpeed*dt)
	}
}
