package config

import (
	"errors"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.TileSize != 128 || c.DepthSlices != 32 || c.MaxLightsPerCluster != 128 {
		t.Errorf("grid constants = %d/%d/%d", c.TileSize, c.DepthSlices, c.MaxLightsPerCluster)
	}
	if c.MaxNumLights != 5000 || c.NumLights != 150 {
		t.Errorf("light counts = %d/%d", c.MaxNumLights, c.NumLights)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigBuilderOption
		wantErr bool
	}{
		{"defaults", nil, false},
		{"zero tile", []ConfigBuilderOption{WithTileSize(0)}, true},
		{"zero slices", []ConfigBuilderOption{WithDepthSlices(0)}, true},
		{"zero cluster capacity", []ConfigBuilderOption{WithMaxLightsPerCluster(0)}, true},
		{"count above capacity", []ConfigBuilderOption{WithMaxNumLights(10), WithNumLights(11)}, true},
		{"count at capacity", []ConfigBuilderOption{WithMaxNumLights(10), WithNumLights(10)}, false},
		{"negative count", []ConfigBuilderOption{WithNumLights(-1)}, true},
		{"zero radius", []ConfigBuilderOption{WithLightRadius(0)}, true},
		{"inverted bounds", []ConfigBuilderOption{WithLightBounds([3]float32{0, 5, 0}, [3]float32{1, 1, 1})}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("err = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConstants(t *testing.T) {
	c, err := New(
		WithTileSize(64),
		WithDepthSlices(16),
		WithLightRadius(2),
		WithAmbient(0.1, 0, 0.25),
	)
	if err != nil {
		t.Fatal(err)
	}
	k := c.Constants()
	want := map[string]string{
		"clusterSizeXY":       "64",
		"numClusterSlicesZ":   "16",
		"maxLightsPerCluster": "128",
		"lightRadius":         "2.0",
		"ambient":             "vec3f(0.1, 0.0, 0.25)",
	}
	for name, v := range want {
		if k[name] != v {
			t.Errorf("%s = %q, want %q", name, k[name], v)
		}
	}
}

func TestWGSLFloat(t *testing.T) {
	tests := map[float32]string{
		0:      "0.0",
		2:      "2.0",
		0.5:    "0.5",
		-11:    "-11.0",
		1e-4:   "0.0001",
		0.0625: "0.0625",
	}
	for in, want := range tests {
		if got := wgslFloat(in); got != want {
			t.Errorf("wgslFloat(%v) = %q, want %q", in, got, want)
		}
	}
}
