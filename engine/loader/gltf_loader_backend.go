package loader

import (
	"io"
	"path/filepath"
	"strings"
)

// gltfLoaderBackend imports glTF JSON and GLB documents.
type gltfLoaderBackend struct {
	defaultColor [4]float32
}

var _ loaderBackend = &gltfLoaderBackend{}

func newGLTFLoaderBackend(defaultColor [4]float32) *gltfLoaderBackend {
	return &gltfLoaderBackend{defaultColor: defaultColor}
}

func (b *gltfLoaderBackend) Load(path string) (*Asset, error) {
	p := newGLTFParser(filepath.Dir(path))
	if err := p.Parse(path); err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return b.build(name, p)
}

func (b *gltfLoaderBackend) LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error) {
	p := newGLTFParser(".")
	if err := p.ParseReader(r, isGLB); err != nil {
		return nil, err
	}
	return b.build(name, p)
}

func (b *gltfLoaderBackend) build(name string, p *gltfParser) (*Asset, error) {
	sb := &gltfSceneBuilder{name: name, parser: p, defaultColor: b.defaultColor}
	return sb.build()
}
