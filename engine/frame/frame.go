// Package frame sequences the per-frame work of the renderer. A Graph holds one Stage per
// StageName and always executes them in the canonical order, whatever order they were
// registered in, so light motion is finished before clustering reads the lights and the
// cluster buffer is written before the lighting stage reads it.
package frame

import (
	"errors"
	"fmt"
	"sync"
)

// StageName identifies a stage of the frame.
type StageName string

const (
	StageAdvanceLights StageName = "advance_lights"
	StageClusterLights StageName = "cluster_lights"
	StageGeometry      StageName = "geometry"
	StageLighting      StageName = "lighting"
	StagePresent       StageName = "present"
)

// Order is the execution order of every frame.
var Order = []StageName{StageAdvanceLights, StageClusterLights, StageGeometry, StageLighting, StagePresent}

var (
	// ErrMissingStage is returned by NewGraph when a canonical stage has no implementation.
	ErrMissingStage = errors.New("frame: missing stage")

	// ErrDuplicateStage is returned by NewGraph when a stage is registered twice.
	ErrDuplicateStage = errors.New("frame: duplicate stage")

	// ErrUnknownStage is returned by NewGraph for a stage name outside Order.
	ErrUnknownStage = errors.New("frame: unknown stage")
)

// Frame is the per-frame state handed to each stage.
type Frame struct {
	// Index counts submitted frames starting at 0.
	Index uint64
	// Time is the elapsed time in seconds, used as the light motion phase.
	Time float32
	// DeltaTime is the time since the previous frame in seconds.
	DeltaTime float32
}

// Stage is one step of the frame.
type Stage interface {
	// Name returns the slot this stage fills.
	//
	// Returns:
	//   - StageName: the stage name
	Name() StageName

	// Execute records or performs the stage's work for f.
	//
	// Parameters:
	//   - f: the current frame
	//
	// Returns:
	//   - error: aborts the rest of the frame when non-nil
	Execute(f *Frame) error
}

type stageFunc struct {
	name StageName
	fn   func(*Frame) error
}

func (s stageFunc) Name() StageName       { return s.name }
func (s stageFunc) Execute(f *Frame) error { return s.fn(f) }

// StageFunc adapts a function to the Stage interface.
//
// Parameters:
//   - name: the stage slot
//   - fn: the stage body
//
// Returns:
//   - Stage: the wrapped stage
func StageFunc(name StageName, fn func(*Frame) error) Stage {
	return stageFunc{name: name, fn: fn}
}

// graph is the implementation of the Graph interface.
type graph struct {
	mu     *sync.Mutex
	stages []Stage
	frames uint64
}

// Graph executes the stages of a frame in the canonical order.
type Graph interface {
	// SubmitFrame runs every stage once, in Order. The first failing stage aborts the frame;
	// the frame still counts as submitted.
	//
	// Parameters:
	//   - time: the elapsed time in seconds
	//   - dt: the time since the previous frame in seconds
	//
	// Returns:
	//   - error: the failing stage's error wrapped with the frame index and stage name
	SubmitFrame(time, dt float32) error

	// Frames returns how many frames have been submitted.
	//
	// Returns:
	//   - uint64: the submitted frame count
	Frames() uint64

	// Stages returns the stage names in execution order.
	//
	// Returns:
	//   - []StageName: the execution order
	Stages() []StageName
}

var _ Graph = &graph{}

// NewGraph builds a graph from one stage per canonical name.
//
// Parameters:
//   - stages: the stages in any order
//
// Returns:
//   - Graph: the graph
//   - error: ErrUnknownStage, ErrDuplicateStage or ErrMissingStage
func NewGraph(stages ...Stage) (Graph, error) {
	byName := make(map[StageName]Stage, len(stages))
	for _, s := range stages {
		if !known(s.Name()) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, s.Name())
		}
		if _, ok := byName[s.Name()]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStage, s.Name())
		}
		byName[s.Name()] = s
	}

	g := &graph{mu: &sync.Mutex{}, stages: make([]Stage, 0, len(Order))}
	for _, name := range Order {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingStage, name)
		}
		g.stages = append(g.stages, s)
	}
	return g, nil
}

func known(name StageName) bool {
	for _, n := range Order {
		if n == name {
			return true
		}
	}
	return false
}

func (g *graph) SubmitFrame(time, dt float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	f := &Frame{Index: g.frames, Time: time, DeltaTime: dt}
	g.frames++
	for _, s := range g.stages {
		if err := s.Execute(f); err != nil {
			return fmt.Errorf("frame %d: stage %s: %w", f.Index, s.Name(), err)
		}
	}
	return nil
}

func (g *graph) Frames() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frames
}

func (g *graph) Stages() []StageName {
	names := make([]StageName, len(g.stages))
	for i, s := range g.stages {
		names[i] = s.Name()
	}
	return names
}
