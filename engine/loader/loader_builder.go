package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDefaultColor sets the base color of parts whose primitive has no material, and of
// materials without a base color factor. Defaults to light grey.
//
// Parameters:
//   - color: linear RGBA
//
// Returns:
//   - LoaderBuilderOption: a function that applies the color
func WithDefaultColor(color [4]float32) LoaderBuilderOption {
	return func(l *loader) {
		l.defaultColor = color
	}
}

// WithAsset pre-populates the cache, letting procedural assets be fetched by name.
//
// Parameters:
//   - name: the cache key
//   - asset: the asset
//
// Returns:
//   - LoaderBuilderOption: a function that caches the asset
func WithAsset(name string, asset *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[name] = asset
	}
}
