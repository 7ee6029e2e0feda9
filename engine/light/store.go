package light

import (
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/go-gl/mathgl/mgl32"
)

// Store owns the authoritative set of point lights and their packed GPU representation.
// The store has a fixed capacity; only the first Count lights are active.
type Store interface {
	// Count returns the number of active lights.
	//
	// Returns:
	//   - int: the active light count
	Count() int

	// Capacity returns the maximum number of lights the store can hold.
	//
	// Returns:
	//   - int: the capacity
	Capacity() int

	// SetLightCount changes the number of active lights. Values outside [0, Capacity()]
	// are clamped. Only the count changes; positions and colors are untouched.
	//
	// Parameters:
	//   - n: the requested light count
	//
	// Returns:
	//   - int: the count actually applied after clamping
	SetLightCount(n int) int

	// Advance recomputes the position of every active light for absolute time t.
	// The update is split into batches that run in parallel on the store's worker pool
	// and Advance returns once every batch is done.
	//
	// Parameters:
	//   - t: the absolute time in seconds
	Advance(t float32)

	// Light returns a copy of light i. i must be below Capacity().
	//
	// Parameters:
	//   - i: the light index
	//
	// Returns:
	//   - Light: the light value
	Light(i int) Light

	// Lights returns a copy of the active lights.
	//
	// Returns:
	//   - []Light: the first Count() lights
	Lights() []Light

	// Marshal packs the header and every light slot, active or not, into the LightSet
	// buffer layout. The result is exactly BufferSize() bytes.
	//
	// Returns:
	//   - []byte: the packed buffer
	Marshal() []byte

	// MarshalHeader packs just the 16-byte header holding the active count.
	//
	// Returns:
	//   - []byte: the packed header
	MarshalHeader() []byte

	// BufferSize returns the byte size of the packed LightSet buffer.
	//
	// Returns:
	//   - uint64: header size plus Capacity() light records
	BufferSize() uint64

	// Close stops the store's worker pool.
	Close()
}

// store is the implementation of the Store interface.
type store struct {
	mu *sync.RWMutex

	lights    []Light
	numLights int

	boundsMin mgl32.Vec3
	boundsMax mgl32.Vec3

	intensity float32
	seed      int64
	batchSize int
	workers   int
	pool      worker.DynamicWorkerPool
}

var _ Store = &store{}

// NewStore creates a light store sized from cfg and populates every slot with a palette
// color. Positions start at their time-zero location.
//
// Parameters:
//   - cfg: the renderer configuration (capacity, initial count, bounds, intensity, seed)
//   - options: functional options overriding the worker count or seed
//
// Returns:
//   - Store: the populated light store
func NewStore(cfg config.Config, options ...StoreBuilderOption) Store {
	s := &store{
		mu:        &sync.RWMutex{},
		lights:    make([]Light, cfg.MaxNumLights),
		boundsMin: mgl32.Vec3(cfg.LightBoundsMin),
		boundsMax: mgl32.Vec3(cfg.LightBoundsMax),
		intensity: cfg.LightIntensity,
		seed:      cfg.LightSeed,
		batchSize: max(cfg.MoveLightsWorkgroupSize, 1),
		workers:   max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range options {
		opt(s)
	}
	s.numLights = common.Clamp(cfg.NumLights, 0, len(s.lights))
	s.pool = worker.NewDynamicWorkerPool(s.workers, 256, time.Second)

	rng := rand.New(rand.NewSource(s.seed))
	for i := range s.lights {
		s.lights[i].Color = PaletteColor(rng.Float32(), s.intensity)
	}
	s.advanceRange(0, len(s.lights), 0)
	log.Printf("[Lights] store ready: %d/%d lights, %d workers", s.numLights, len(s.lights), s.workers)
	return s
}

func (s *store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numLights
}

func (s *store) Capacity() int {
	return len(s.lights)
}

func (s *store) SetLightCount(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numLights = common.Clamp(n, 0, len(s.lights))
	return s.numLights
}

func (s *store) Advance(t float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < s.numLights; start += s.batchSize {
		end := min(start+s.batchSize, s.numLights)
		wg.Add(1)
		lo, hi := start, end
		s.pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				s.advanceRange(lo, hi, t)
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()
}

// advanceRange moves lights [lo, hi). Batches touch disjoint ranges so no locking is needed
// beyond the write lock Advance already holds.
func (s *store) advanceRange(lo, hi int, t float32) {
	for i := lo; i < hi; i++ {
		s.lights[i].Position = MotionPosition(uint32(i), t, s.boundsMin, s.boundsMax)
	}
}

func (s *store) Light(i int) Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lights[i]
}

func (s *store) Lights() []Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Light, s.numLights)
	copy(out, s.lights[:s.numLights])
	return out
}

func (s *store) Marshal() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	header := GPULightSetHeader{NumLights: uint32(s.numLights)}
	buf := header.AppendTo(make([]byte, 0, s.bufferSize()))
	for _, l := range s.lights {
		rec := GPULight{Position: l.Position, Color: l.Color}
		buf = rec.AppendTo(buf)
	}
	return buf
}

func (s *store) MarshalHeader() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := GPULightSetHeader{NumLights: uint32(s.numLights)}
	return h.Marshal()
}

func (s *store) BufferSize() uint64 {
	return s.bufferSize()
}

func (s *store) bufferSize() uint64 {
	return BufferSize(len(s.lights))
}

func (s *store) Close() {
	s.pool.Stop()
}

// BufferSize returns the byte size of a LightSet buffer holding capacity lights.
//
// Parameters:
//   - capacity: the number of light slots
//
// Returns:
//   - uint64: the header size plus capacity 32-byte records
func BufferSize(capacity int) uint64 {
	h := GPULightSetHeader{}
	l := GPULight{}
	return uint64(h.Size()) + uint64(capacity)*uint64(l.Size())
}
