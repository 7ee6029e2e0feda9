// Package loader imports static glTF 2.0 scenes (.gltf and .glb) as drawable parts: shared
// models with their node transforms baked in, and one material per glTF material carrying
// its base color.
package loader

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// LoaderBackendType identifies the file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// Part is one drawable piece of an asset.
type Part struct {
	Model    model.Model
	Material material.Material
}

// Asset is an imported scene. Its models and materials are shared by every instance.
type Asset struct {
	Name      string
	Parts     []Part
	Materials []material.Material
}

// Instantiate creates one game object per part. The options (position, scale, rotation)
// apply to every created object, so the parts keep their relative placement.
//
// Parameters:
//   - options: game object options applied after the part's model and material
//
// Returns:
//   - []game_object.GameObject: the new objects, ready to add to a scene
func (a *Asset) Instantiate(options ...game_object.GameObjectBuilderOption) []game_object.GameObject {
	objects := make([]game_object.GameObject, 0, len(a.Parts))
	for _, p := range a.Parts {
		opts := append([]game_object.GameObjectBuilderOption{
			game_object.WithModel(p.Model),
			game_object.WithMaterial(p.Material),
		}, options...)
		objects = append(objects, game_object.NewGameObject(opts...))
	}
	return objects
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu *sync.RWMutex

	backendType  LoaderBackendType
	defaultColor [4]float32
	cache        map[string]*Asset
}

// Loader imports model files and caches the resulting assets by path or name.
type Loader interface {
	// Load imports a file, returning the cached asset when the path was loaded before.
	//
	// Parameters:
	//   - path: the .gltf or .glb file
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: an error if the file cannot be read or is not a valid static glTF scene
	Load(path string) (*Asset, error)

	// LoadReader imports an asset from a stream and caches it under name. External
	// buffers are not resolvable from a stream; use data URIs or GLB.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the document
	//   - isGLB: true when r holds a GLB container
	//
	// Returns:
	//   - *Asset: the imported asset
	//   - error: an error if decoding fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error)

	// Get returns a cached asset, or nil.
	//
	// Parameters:
	//   - name: the path or name the asset was loaded under
	//
	// Returns:
	//   - *Asset: the asset or nil
	Get(name string) *Asset

	// Assets returns a copy of the cache.
	//
	// Returns:
	//   - map[string]*Asset: the cached assets keyed by name
	Assets() map[string]*Asset
}

var _ Loader = &loader{}

// NewLoader creates a Loader for the given backend.
//
// Parameters:
//   - backendType: the file format backend
//   - options: functional options
//
// Returns:
//   - Loader: the loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:           &sync.RWMutex{},
		backendType:  backendType,
		defaultColor: [4]float32{0.8, 0.8, 0.8, 1},
		cache:        make(map[string]*Asset),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) backend() (loaderBackend, error) {
	switch l.backendType {
	case BackendTypeGLTF:
		return newGLTFLoaderBackend(l.defaultColor), nil
	}
	return nil, fmt.Errorf("loader: unknown backend %d", l.backendType)
}

func (l *loader) Load(path string) (*Asset, error) {
	if a := l.Get(path); a != nil {
		return a, nil
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gltf", ".glb":
	default:
		return nil, fmt.Errorf("loader: unsupported file extension %q", ext)
	}
	b, err := l.backend()
	if err != nil {
		return nil, err
	}
	a, err := b.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loader: load %s: %w", path, err)
	}
	return l.store(path, a), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error) {
	if a := l.Get(name); a != nil {
		return a, nil
	}
	b, err := l.backend()
	if err != nil {
		return nil, err
	}
	a, err := b.LoadReader(name, r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("loader: load %s: %w", name, err)
	}
	return l.store(name, a), nil
}

// store caches a, keeping the first asset when two loads of the same name race.
func (l *loader) store(name string, a *Asset) *Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[name]; ok {
		return cached
	}
	l.cache[name] = a
	log.Printf("[Loader] imported %s: %d parts, %d materials", name, len(a.Parts), len(a.Materials))
	return a
}

func (l *loader) Get(name string) *Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Assets() map[string]*Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*Asset, len(l.cache))
	for k, v := range l.cache {
		out[k] = v
	}
	return out
}
