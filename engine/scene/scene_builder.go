package scene

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/cluster"
	"github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithObjects adds initial objects to the scene once its passes exist.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		s.pending = append(s.pending, objects...)
	}
}

// WithCullingDisabled turns off frustum culling of drawables.
//
// Parameters:
//   - disabled: true to draw every enabled object
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}

// WithStatsInterval sets how often, in frames, the CPU clusterer samples cluster occupancy.
// Defaults to 30. Zero disables sampling.
//
// Parameters:
//   - frames: the sampling interval
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithStatsInterval(frames int) SceneBuilderOption {
	return func(s *scene) {
		s.statsInterval = max(frames, 0)
	}
}

// WithWorkers sets the worker pool size of both the light store and the CPU clusterer.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		n = max(n, 1)
		s.storeOptions = append(s.storeOptions, light.WithWorkers(n))
		s.clustererOptions = append(s.clustererOptions, cluster.WithWorkers(n))
	}
}
