// Package scene wires the clustered deferred renderer together. A Scene owns the light
// store, the cluster grid, the G-buffer and both render passes, and drives them through a
// frame.Graph so every frame runs light motion, clustering, geometry and lighting in order.
package scene

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/cluster"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
)

var (
	// ErrObjectExists is returned by Add when an object with the same ID is already present.
	ErrObjectExists = errors.New("scene: object already added")

	// ErrResizeFailed is returned by SubmitFrame while the passes disagree on the viewport
	// after a failed Resize. A later successful Resize clears it.
	ErrResizeFailed = errors.New("scene: resources out of date after a failed resize")
)

// Scene is the scene provider of the renderer: its drawables feed the geometry pass and
// its lights feed clustering and shading. Thread-safe for concurrent access.
type Scene interface {
	deferred.SceneIterator

	// Config returns the configuration the scene's passes were built from.
	//
	// Returns:
	//   - config.Config: the configuration
	Config() config.Config

	// Camera returns the scene's camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Lights returns the light store.
	//
	// Returns:
	//   - light.Store: the store
	Lights() light.Store

	// Add prepares an object's GPU resources and adds it to the draw list. Objects with ID 0
	// are assigned the next free ID.
	//
	// Parameters:
	//   - obj: the drawable
	//
	// Returns:
	//   - uint64: the object's ID
	//   - error: ErrObjectExists, or a resource creation error
	Add(obj game_object.GameObject) (uint64, error)

	// Get returns the object with the given ID, or nil.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object
	Get(id uint64) game_object.GameObject

	// Remove drops an object from the draw list. Shared meshes and materials stay alive.
	//
	// Parameters:
	//   - id: the object ID
	Remove(id uint64)

	// Count returns the number of drawables.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// SetLightCount changes the number of active lights, clamped to the store capacity.
	//
	// Parameters:
	//   - n: the requested count
	//
	// Returns:
	//   - int: the applied count
	SetLightCount(n int) int

	// Resize reallocates the G-buffer and the cluster buffer for a new viewport and
	// rebinds the lighting pass. A zero-area viewport is rejected and leaves every
	// resource untouched. Any other failure leaves the scene unable to submit frames
	// until a Resize succeeds.
	//
	// Parameters:
	//   - width, height: the new viewport size in pixels
	//
	// Returns:
	//   - error: cluster.ErrZeroViewport or a resource creation error
	Resize(width, height int) error

	// SetVSync switches the surface between vsync and uncapped presentation and
	// reconfigures it at the current viewport size.
	//
	// Parameters:
	//   - enabled: true to wait for vertical blank
	SetVSync(enabled bool)

	// SubmitFrame runs one frame through the graph.
	//
	// Parameters:
	//   - time: the elapsed time in seconds
	//   - dt: the time since the previous frame in seconds
	//
	// Returns:
	//   - error: ErrResizeFailed, or the failing stage's error
	SubmitFrame(time, dt float32) error

	// Stats returns statistics of the last frame.
	//
	// Returns:
	//   - Stats: the statistics
	Stats() Stats

	// Release frees every GPU resource and stops the worker pools.
	Release()
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	cfg config.Config
	r   renderer.Renderer
	cam camera.Camera

	lights    light.Store
	move      *light.MovePass
	clusters  *cluster.Pass
	clusterer cluster.Clusterer
	gbuffer   *deferred.GBuffer
	geometry  *deferred.GeometryPass
	lighting  *deferred.LightingPass
	graph     frame.Graph

	objects *drawList
	nextID  uint64

	cullingDisabled bool
	statsInterval   int
	stats           Stats

	// resizeErr holds the error of a Resize that failed after resources were touched.
	resizeErr error

	pending          []game_object.GameObject
	storeOptions     []light.StoreBuilderOption
	clustererOptions []cluster.ClustererBuilderOption

	// writePool is reused every frame for the batched uniform uploads.
	writePool []bind_group_provider.BufferWrite
}

var _ Scene = &scene{}

// NewScene builds the light store, every pass and the frame graph for the camera's
// viewport. Nothing is left allocated when an error is returned.
//
// Parameters:
//   - cfg: the renderer configuration
//   - cam: the camera; its viewport sizes the G-buffer and the cluster grid
//   - r: the renderer
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the ready scene
//   - error: a wrapped configuration, viewport or resource creation error
func NewScene(cfg config.Config, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) (sc Scene, err error) {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &scene{
		mu:            &sync.RWMutex{},
		cfg:           cfg,
		r:             r,
		cam:           cam,
		objects:       newDrawList(),
		nextID:        1,
		statsInterval: 30,
	}
	for _, option := range options {
		option(s)
	}
	defer func() {
		if err != nil {
			s.Release()
		}
	}()

	width, height := cam.Viewport()
	s.lights = light.NewStore(cfg, s.storeOptions...)

	if s.geometry, err = deferred.NewGeometryPass(r, cfg, cam.BindGroupProvider()); err != nil {
		return nil, err
	}
	if s.move, err = light.NewMovePass(r, s.lights, cfg); err != nil {
		return nil, err
	}
	cameraBuffer := cam.BindGroupProvider().Buffer(s.geometry.CameraBinding())
	if s.clusters, err = cluster.NewPass(r, cfg, cameraBuffer, s.move.Buffer(), width, height); err != nil {
		return nil, err
	}
	if s.gbuffer, err = deferred.NewGBuffer(r, width, height); err != nil {
		return nil, err
	}
	if s.lighting, err = deferred.NewLightingPass(r, cfg, cameraBuffer, s.move.Buffer(), s.clusters.Buffer(), s.gbuffer); err != nil {
		return nil, err
	}
	if s.clusterer, err = cluster.NewClusterer(cfg, width, height, s.clustererOptions...); err != nil {
		return nil, err
	}
	if s.graph, err = frame.NewGraph(s.stages()...); err != nil {
		return nil, err
	}
	for _, obj := range s.pending {
		if _, err = s.Add(obj); err != nil {
			return nil, err
		}
	}
	s.pending = nil

	log.Printf("[Scene] %dx%d viewport, %d/%d lights, %d clusters",
		width, height, s.lights.Count(), s.lights.Capacity(), s.clusters.Grid().Dims.Count())
	return s, nil
}

// stages returns the frame graph stages. Each one runs with the scene lock held.
func (s *scene) stages() []frame.Stage {
	return []frame.Stage{
		frame.StageFunc(frame.StageAdvanceLights, s.advanceLights),
		frame.StageFunc(frame.StageClusterLights, s.clusterLights),
		frame.StageFunc(frame.StageGeometry, s.drawGeometry),
		frame.StageFunc(frame.StageLighting, s.drawLighting),
		frame.StageFunc(frame.StagePresent, func(*frame.Frame) error {
			s.r.Present()
			return nil
		}),
	}
}

// sampling reports whether the CPU clusterer runs this frame.
func (s *scene) sampling(f *frame.Frame) bool {
	return s.statsInterval > 0 && f.Index%uint64(s.statsInterval) == 0
}

// advanceLights uploads the camera and submits the light motion dispatch.
func (s *scene) advanceLights(f *frame.Frame) error {
	s.cam.Update()
	uniform := s.cam.Uniform()
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: s.cam.BindGroupProvider(), Binding: s.geometry.CameraBinding(), Offset: 0, Data: uniform.Marshal()},
	})

	if err := s.r.BeginComputeFrame(); err != nil {
		return fmt.Errorf("begin compute frame: %w", err)
	}
	err := s.move.Encode(f.Time)
	s.r.EndComputeFrame()
	if err != nil {
		return err
	}

	if s.sampling(f) {
		s.lights.Advance(f.Time)
	}
	return nil
}

// clusterLights submits the clustering dispatch. On sampled frames the CPU clusterer
// rebuilds the same assignment for the occupancy statistics.
func (s *scene) clusterLights(f *frame.Frame) error {
	if err := s.r.BeginComputeFrame(); err != nil {
		return fmt.Errorf("begin compute frame: %w", err)
	}
	err := s.clusters.Encode()
	s.r.EndComputeFrame()
	if err != nil {
		return err
	}

	if s.sampling(f) {
		m, lens := s.cam.Matrices(), s.cam.Lens()
		v := cluster.NewView(m.View, m.InvProj, lens.Near, lens.Far)
		a := s.clusterer.ClusterLights(v, s.lights.Lights())
		s.stats.MaxOccupancy, s.stats.OccupiedClusters = occupancy(a)
		s.stats.SampledFrame = f.Index
	}
	return nil
}

// drawGeometry animates the drawables, uploads their changed uniforms and fills the G-buffer.
func (s *scene) drawGeometry(f *frame.Frame) error {
	writes := s.writePool[:0]
	for _, obj := range s.objects.objects {
		obj.Update(f.DeltaTime)
		writes = s.geometry.StageUploads(writes, obj)
	}
	if len(writes) > 0 {
		s.r.WriteBuffers(writes)
	}
	s.writePool = writes

	s.objects.frustum = nil
	if !s.cullingDisabled {
		fr := common.FrustumFromViewProj(s.cam.Matrices().ViewProj)
		s.objects.frustum = &fr
	}
	return s.geometry.Encode(s.gbuffer, s.objects)
}

// drawLighting shades the G-buffer into the surface.
func (s *scene) drawLighting(*frame.Frame) error {
	if err := s.r.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	err := s.lighting.Encode()
	s.r.EndFrame()
	return err
}

func (s *scene) Config() config.Config {
	return s.cfg
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Lights() light.Store {
	return s.lights
}

func (s *scene) Add(obj game_object.GameObject) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj.ID() == 0 {
		obj.SetID(s.nextID)
	}
	id := obj.ID()
	if _, ok := s.objects.byID[id]; ok {
		return 0, fmt.Errorf("%w: id %d", ErrObjectExists, id)
	}
	if err := s.geometry.Prepare(obj); err != nil {
		return 0, err
	}
	s.objects.add(obj)
	s.nextID = max(s.nextID, id+1)
	return id, nil
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects.byID[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj := s.objects.remove(id); obj != nil {
		obj.ModelProvider().Release()
	}
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects.objects)
}

// Iterate walks the visible drawables using the culling state of the last frame.
func (s *scene) Iterate(node deferred.NodeFunc, material deferred.MaterialFunc, primitive deferred.PrimitiveFunc) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.objects.Iterate(node, material, primitive)
}

func (s *scene) SetLightCount(n int) int {
	applied := s.lights.SetLightCount(n)
	log.Printf("[Scene] light count %d", applied)
	return applied
}

func (s *scene) Resize(width, height int) error {
	if _, err := cluster.ComputeGridDimensions(width, height, s.cfg.TileSize, s.cfg.DepthSlices); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resize(width, height); err != nil {
		s.resizeErr = err
		log.Printf("[Scene] resize to %dx%d failed: %v", width, height, err)
		return err
	}
	s.resizeErr = nil
	log.Printf("[Scene] resized to %dx%d, %d clusters", width, height, s.clusters.Grid().Dims.Count())
	return nil
}

// resize reallocates every viewport-sized resource. Each pass keeps its old resources when
// its own step fails, but earlier steps are not rolled back.
func (s *scene) resize(width, height int) error {
	s.r.Resize(width, height)
	s.cam.SetViewport(width, height)
	if err := s.gbuffer.Resize(s.r, width, height); err != nil {
		return fmt.Errorf("scene: resize g-buffer: %w", err)
	}
	if err := s.clusters.Resize(width, height); err != nil {
		return fmt.Errorf("scene: resize cluster buffer: %w", err)
	}
	if err := s.clusterer.Resize(width, height); err != nil {
		return err
	}
	if err := s.lighting.Rebind(s.clusters.Buffer(), s.gbuffer); err != nil {
		return fmt.Errorf("scene: rebind lighting: %w", err)
	}
	return nil
}

func (s *scene) SetVSync(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := renderer.PresentModeUncapped
	if enabled {
		mode = renderer.PresentModeVSync
	}
	s.r.SetPresentMode(mode)
	s.r.Resize(s.cam.Viewport())
	log.Printf("[Scene] present mode %s", mode)
}

func (s *scene) SubmitFrame(time, dt float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resizeErr != nil {
		return fmt.Errorf("%w: %w", ErrResizeFailed, s.resizeErr)
	}
	err := s.graph.SubmitFrame(time, dt)
	grid := s.clusters.Grid()
	s.stats.Frame = s.graph.Frames()
	s.stats.NumLights = s.lights.Count()
	s.stats.Grid = grid.Dims
	s.stats.Clusters = grid.Dims.Count()
	s.stats.Objects = len(s.objects.objects)
	s.stats.Drawn = s.objects.drawn
	return err
}

func (s *scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, obj := range s.objects.objects {
		obj.ModelProvider().Release()
	}
	if s.lighting != nil {
		s.lighting.Release()
	}
	if s.gbuffer != nil {
		s.gbuffer.Release()
	}
	if s.clusters != nil {
		s.clusters.Release()
	}
	if s.move != nil {
		s.move.Release()
	}
	if s.clusterer != nil {
		s.clusterer.Close()
	}
	if s.lights != nil {
		s.lights.Close()
	}
}
