package loader

import "io"

// loaderBackend imports one file format. Each call builds a fresh asset.
type loaderBackend interface {
	// Load imports the file at path.
	Load(path string) (*Asset, error)

	// LoadReader imports a document read from r, naming the asset and its parts after name.
	LoadReader(name string, r io.Reader, isGLB bool) (*Asset, error)
}
