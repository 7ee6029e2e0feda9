package cluster

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// clusterer is the implementation of the Clusterer interface.
type clusterer struct {
	mu *sync.Mutex

	cfg        config.Config
	grid       Grid
	radius     float32
	lightBatch int
	workers    int
	pool       worker.DynamicWorkerPool

	// viewLights is reused between frames to hold light centres in view space.
	viewLights []mgl32.Vec3
}

// Clusterer is the CPU implementation of light clustering. It produces the same
// assignment the GPU kernel writes and serves as its reference and as the source of
// occupancy statistics.
type Clusterer interface {
	// Grid returns the current grid.
	//
	// Returns:
	//   - Grid: the grid sized for the last viewport
	Grid() Grid

	// Resize rebuilds the grid for a new viewport.
	//
	// Parameters:
	//   - width, height: the viewport size in pixels
	//
	// Returns:
	//   - error: ErrZeroViewport for an empty viewport; the previous grid is kept
	Resize(width, height int) error

	// ClusterLights assigns every light to each cluster whose view-space bounds its sphere
	// of influence touches. The assignment is rebuilt from scratch on every call. Work is
	// split into (depth slice, light batch) tasks on the worker pool; records fill through
	// Record.Append so clusters past capacity silently drop lights.
	//
	// Parameters:
	//   - v: the clustering view
	//   - lights: the active lights
	//
	// Returns:
	//   - *Assignment: the per-cluster light lists
	ClusterLights(v View, lights []light.Light) *Assignment

	// Close stops the worker pool.
	Close()
}

var _ Clusterer = &clusterer{}

// NewClusterer creates a clusterer for a viewport using the grid constants of cfg.
//
// Parameters:
//   - cfg: the renderer configuration
//   - width, height: the initial viewport size in pixels
//   - options: functional options overriding the worker count or light batch size
//
// Returns:
//   - Clusterer: the ready clusterer
//   - error: ErrZeroViewport for an empty viewport
func NewClusterer(cfg config.Config, width, height int, options ...ClustererBuilderOption) (Clusterer, error) {
	g, err := NewGrid(cfg, width, height)
	if err != nil {
		return nil, err
	}
	c := &clusterer{
		mu:         &sync.Mutex{},
		cfg:        cfg,
		grid:       g,
		radius:     cfg.LightRadius,
		lightBatch: max(cfg.ClusteringWorkgroupSize, 1),
		workers:    max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range options {
		opt(c)
	}
	c.pool = worker.NewDynamicWorkerPool(c.workers, 256, time.Second)
	log.Printf("[Cluster] grid %dx%dx%d for %dx%d viewport", g.Dims.X, g.Dims.Y, g.Dims.Z, width, height)
	return c, nil
}

func (c *clusterer) Grid() Grid {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grid
}

func (c *clusterer) Resize(width, height int) error {
	g, err := NewGrid(c.cfg, width, height)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grid = g
	return nil
}

func (c *clusterer) ClusterLights(v View, lights []light.Light) *Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := NewAssignment(c.grid)
	if len(lights) == 0 {
		return a
	}

	c.viewLights = c.viewLights[:0]
	for _, l := range lights {
		c.viewLights = append(c.viewLights, v.ToView(l.Position))
	}

	var wg sync.WaitGroup
	taskID := 0
	for z := 0; z < c.grid.Dims.Z; z++ {
		for lo := 0; lo < len(lights); lo += c.lightBatch {
			hi := min(lo+c.lightBatch, len(lights))
			slice, first, last := z, lo, hi
			wg.Add(1)
			c.pool.SubmitTask(worker.Task{
				ID: taskID,
				Do: func() (any, error) {
					defer wg.Done()
					c.clusterSlice(a, v, slice, first, last)
					return nil, nil
				},
			})
			taskID++
		}
	}
	wg.Wait()
	return a
}

// clusterSlice tests lights [lo, hi) against every cell of depth slice z.
func (c *clusterer) clusterSlice(a *Assignment, v View, z, lo, hi int) {
	g := c.grid
	for y := 0; y < g.Dims.Y; y++ {
		for x := 0; x < g.Dims.X; x++ {
			cell := g.CellVolume(v, x, y, z)
			rec := a.Record(g.Dims.Index(x, y, z))
			for i := lo; i < hi; i++ {
				if cell.IntersectsSphere(c.viewLights[i], c.radius) {
					rec.Append(uint32(i))
				}
			}
		}
	}
}

func (c *clusterer) Close() {
	c.pool.Stop()
}

// SphereIntersectsAABB reports whether a sphere touches a box.
//
// Parameters:
//   - center: the sphere centre
//   - radius: the sphere radius
//   - b: the box
//
// Returns:
//   - bool: true when the box's closest point to center is within radius
func SphereIntersectsAABB(center mgl32.Vec3, radius float32, b common.AABB) bool {
	return b.IntersectsSphere(center, radius)
}
