// Package config holds the single configuration table shared by host-side buffer sizing,
// the CPU reference algorithms and the WGSL kernels. Kernels receive these values through
// ${name} substitution at shader load time so the clustering and lighting stages can never
// disagree on tile size, slice count or capacities.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
)

// CommonWGSL holds the helper functions shared by every renderer kernel: the light motion
// hash, depth slicing and attenuation. It contains ${name} tokens and is expected to be
// passed through the same constant expansion as the kernel it is prepended to.
//
//go:embed assets/common.wgsl
var CommonWGSL string

// ErrInvalidConfig is returned by Validate when a field is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the canonical constants table for the clustered deferred renderer.
type Config struct {
	// TileSize is the width and height of a screen-space cluster tile in pixels.
	TileSize int

	// DepthSlices is the number of view-space depth slices (clustersZ).
	DepthSlices int

	// MaxLightsPerCluster is the capacity of a single cluster record.
	MaxLightsPerCluster int

	// MaxNumLights is the capacity of the light store.
	MaxNumLights int

	// NumLights is the number of active lights at startup.
	NumLights int

	// LightRadius bounds both attenuation falloff and cluster intersection tests.
	LightRadius float32

	// LightIntensity scales every generated light color.
	LightIntensity float32

	// MoveLightsWorkgroupSize is the workgroup size of the light motion kernel and the
	// batch size of the CPU motion update.
	MoveLightsWorkgroupSize int

	// ClusteringWorkgroupSize is the workgroup size of the clustering kernel.
	ClusteringWorkgroupSize int

	BindGroupScene    int
	BindGroupModel    int
	BindGroupMaterial int
	BindGroupGBuffer  int

	// LightBoundsMin and LightBoundsMax describe the world-space box lights move within.
	LightBoundsMin [3]float32
	LightBoundsMax [3]float32

	// Ambient is added (scaled by albedo) to every lit pixel.
	Ambient [3]float32

	// LightSeed seeds the light color palette.
	LightSeed int64
}

// ConfigBuilderOption is a functional option for configuring a Config.
type ConfigBuilderOption func(*Config)

// Default returns the configuration used by the demo scene.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		TileSize:                128,
		DepthSlices:             32,
		MaxLightsPerCluster:     128,
		MaxNumLights:            5000,
		NumLights:               150,
		LightRadius:             2,
		LightIntensity:          0.1,
		MoveLightsWorkgroupSize: 128,
		ClusteringWorkgroupSize: 128,
		BindGroupScene:          0,
		BindGroupModel:          1,
		BindGroupMaterial:       2,
		BindGroupGBuffer:        1,
		LightBoundsMin:          [3]float32{-11, 0, -6},
		LightBoundsMax:          [3]float32{11, 11, 6},
		LightSeed:               1,
	}
}

// New creates a Config from the defaults with each option applied in order.
// The result is validated before it is returned.
//
// Parameters:
//   - options: functional options overriding default values
//
// Returns:
//   - Config: the configured table
//   - error: a wrapped ErrInvalidConfig if any field is out of range
func New(options ...ConfigBuilderOption) (Config, error) {
	c := Default()
	for _, opt := range options {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every field that host sizing or the kernels depend on.
//
// Returns:
//   - error: a wrapped ErrInvalidConfig describing the first bad field, or nil
func (c Config) Validate() error {
	switch {
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile size %d must be positive", ErrInvalidConfig, c.TileSize)
	case c.DepthSlices <= 0:
		return fmt.Errorf("%w: depth slices %d must be positive", ErrInvalidConfig, c.DepthSlices)
	case c.MaxLightsPerCluster <= 0:
		return fmt.Errorf("%w: max lights per cluster %d must be positive", ErrInvalidConfig, c.MaxLightsPerCluster)
	case c.MaxNumLights <= 0:
		return fmt.Errorf("%w: max light count %d must be positive", ErrInvalidConfig, c.MaxNumLights)
	case c.NumLights < 0 || c.NumLights > c.MaxNumLights:
		return fmt.Errorf("%w: light count %d outside [0, %d]", ErrInvalidConfig, c.NumLights, c.MaxNumLights)
	case c.LightRadius <= 0:
		return fmt.Errorf("%w: light radius %g must be positive", ErrInvalidConfig, c.LightRadius)
	case c.MoveLightsWorkgroupSize <= 0 || c.ClusteringWorkgroupSize <= 0:
		return fmt.Errorf("%w: workgroup sizes must be positive", ErrInvalidConfig)
	}
	for i := range 3 {
		if c.LightBoundsMin[i] > c.LightBoundsMax[i] {
			return fmt.Errorf("%w: light bounds min exceeds max on axis %d", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Constants returns the substitution table for ${name} tokens in WGSL sources.
// Kernel generation and host sizing both read from the same Config so the two can
// never drift apart.
//
// Returns:
//   - map[string]string: token name to WGSL literal
func (c Config) Constants() map[string]string {
	return map[string]string{
		"bindGroup_scene":         strconv.Itoa(c.BindGroupScene),
		"bindGroup_model":         strconv.Itoa(c.BindGroupModel),
		"bindGroup_material":      strconv.Itoa(c.BindGroupMaterial),
		"bindGroup_gBuffers":      strconv.Itoa(c.BindGroupGBuffer),
		"bindGroup_clustering":    "0",
		"moveLightsWorkgroupSize": strconv.Itoa(c.MoveLightsWorkgroupSize),
		"clusteringWorkgroupSize": strconv.Itoa(c.ClusteringWorkgroupSize),
		"maxLightsPerCluster":     strconv.Itoa(c.MaxLightsPerCluster),
		"clusterSizeXY":           strconv.Itoa(c.TileSize),
		"numClusterSlicesZ":       strconv.Itoa(c.DepthSlices),
		"lightRadius":             wgslFloat(c.LightRadius),
		"lightBoundsMin":          wgslVec3(c.LightBoundsMin),
		"lightBoundsMax":          wgslVec3(c.LightBoundsMax),
		"ambient":                 wgslVec3(c.Ambient),
	}
}

// wgslFloat formats f as an abstract-float WGSL literal that always carries a decimal point.
func wgslFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == 'e' {
			return s
		}
	}
	return s + ".0"
}

func wgslVec3(v [3]float32) string {
	return "vec3f(" + wgslFloat(v[0]) + ", " + wgslFloat(v[1]) + ", " + wgslFloat(v[2]) + ")"
}
