package config

// WithTileSize sets the screen-space tile size in pixels.
//
// Parameters:
//   - px: tile width and height in pixels
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithTileSize(px int) ConfigBuilderOption {
	return func(c *Config) {
		c.TileSize = px
	}
}

// WithDepthSlices sets the number of depth slices.
//
// Parameters:
//   - n: the slice count
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithDepthSlices(n int) ConfigBuilderOption {
	return func(c *Config) {
		c.DepthSlices = n
	}
}

// WithMaxLightsPerCluster sets the per-cluster capacity.
//
// Parameters:
//   - n: the maximum number of light indices a cluster record holds
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithMaxLightsPerCluster(n int) ConfigBuilderOption {
	return func(c *Config) {
		c.MaxLightsPerCluster = n
	}
}

// WithMaxNumLights sets the light store capacity.
//
// Parameters:
//   - n: the maximum number of lights
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithMaxNumLights(n int) ConfigBuilderOption {
	return func(c *Config) {
		c.MaxNumLights = n
	}
}

// WithNumLights sets the number of active lights at startup.
//
// Parameters:
//   - n: the initial active light count
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithNumLights(n int) ConfigBuilderOption {
	return func(c *Config) {
		c.NumLights = n
	}
}

// WithLightRadius sets the shared light radius.
//
// Parameters:
//   - r: radius in world units
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithLightRadius(r float32) ConfigBuilderOption {
	return func(c *Config) {
		c.LightRadius = r
	}
}

// WithLightIntensity sets the palette intensity scale.
//
// Parameters:
//   - i: the intensity multiplier
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithLightIntensity(i float32) ConfigBuilderOption {
	return func(c *Config) {
		c.LightIntensity = i
	}
}

// WithLightBounds sets the world-space box that lights move within.
//
// Parameters:
//   - min: the minimum corner
//   - max: the maximum corner
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithLightBounds(min, max [3]float32) ConfigBuilderOption {
	return func(c *Config) {
		c.LightBoundsMin = min
		c.LightBoundsMax = max
	}
}

// WithAmbient sets the ambient term added to lit pixels.
//
// Parameters:
//   - r, g, b: ambient color
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithAmbient(r, g, b float32) ConfigBuilderOption {
	return func(c *Config) {
		c.Ambient = [3]float32{r, g, b}
	}
}

// WithLightSeed sets the seed for the light color palette.
//
// Parameters:
//   - seed: the random seed
//
// Returns:
//   - ConfigBuilderOption: option function to apply
func WithLightSeed(seed int64) ConfigBuilderOption {
	return func(c *Config) {
		c.LightSeed = seed
	}
}
