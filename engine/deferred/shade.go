package deferred

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-deferred/engine/cluster"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

// ErrImageSize is returned by ShadeImage when the G-buffer does not match the grid viewport.
var ErrImageSize = errors.New("deferred: g-buffer size does not match the cluster grid")

// Sample is one G-buffer texel. Position.W is 1 where geometry was drawn and 0 for background.
type Sample struct {
	Position mgl32.Vec4
	Albedo   mgl32.Vec3
	Normal   mgl32.Vec3
}

// Covered reports whether geometry was written to this texel.
//
// Returns:
//   - bool: false for background texels
func (s Sample) Covered() bool {
	return s.Position.W() != 0
}

// SampleImage is a CPU G-buffer in row-major order, y down.
type SampleImage struct {
	Width, Height int
	Samples       []Sample
}

// NewSampleImage allocates a background-filled CPU G-buffer.
//
// Parameters:
//   - width, height: the image size in pixels
//
// Returns:
//   - *SampleImage: the image
func NewSampleImage(width, height int) *SampleImage {
	return &SampleImage{Width: width, Height: height, Samples: make([]Sample, width*height)}
}

// At returns a pointer to the texel at (x, y).
//
// Parameters:
//   - x, y: the pixel coordinate
//
// Returns:
//   - *Sample: the texel
func (img *SampleImage) At(x, y int) *Sample {
	return &img.Samples[y*img.Width+x]
}

// Lighting bundles the per-frame inputs the lighting shader reads from its scene group.
type Lighting struct {
	View       cluster.View
	Grid       cluster.Grid
	Assignment *cluster.Assignment
	Lights     []light.Light
	Radius     float32
	Ambient    mgl32.Vec3
}

// Attenuation is the windowed inverse-square falloff: 1 at the light, 0 at radius and beyond.
//
// Parameters:
//   - dist: the distance from the light
//   - radius: the light radius
//
// Returns:
//   - float32: clamp(1-(d/r)^4, 0, 1)^2 / (d^2+1)
func Attenuation(dist, radius float32) float32 {
	ratio := dist / radius
	window := min(max(1-ratio*ratio*ratio*ratio, 0), 1)
	return window * window / (dist*dist + 1)
}

// ShadePixel computes the lit color of one G-buffer texel. Background texels are black.
// Only the lights listed in the texel's cluster contribute; each adds its color scaled
// by the Lambert term and Attenuation, and the sum plus the ambient term is multiplied
// by albedo.
//
// Parameters:
//   - s: the texel
//   - px, py: the pixel coordinate
//   - in: the frame's lighting inputs
//
// Returns:
//   - mgl32.Vec3: the linear RGB result
func ShadePixel(s Sample, px, py int, in Lighting) mgl32.Vec3 {
	if !s.Covered() {
		return mgl32.Vec3{}
	}
	pos := s.Position.Vec3()
	depth := -in.View.ToView(pos).Z()
	idx := in.Grid.ClusterIndexForPixel(in.View, float32(px), float32(py), depth)

	n := s.Normal.Normalize()
	radiance := in.Ambient
	for _, li := range in.Assignment.Record(idx).Indices() {
		l := in.Lights[li]
		toLight := l.Position.Sub(pos)
		dist := toLight.Len()
		lambert := max(n.Dot(toLight.Mul(1/max(dist, 1e-4))), 0)
		radiance = radiance.Add(l.Color.Mul(lambert * Attenuation(dist, in.Radius)))
	}
	return mgl32.Vec3{s.Albedo[0] * radiance[0], s.Albedo[1] * radiance[1], s.Albedo[2] * radiance[2]}
}

// ShadeImage shades every texel of img with ShadePixel, one row per task, and returns the
// colors in the same row-major layout. It stops early when ctx is cancelled.
//
// Parameters:
//   - ctx: cancels the remaining rows
//   - img: the CPU G-buffer
//   - in: the frame's lighting inputs
//
// Returns:
//   - []mgl32.Vec3: the shaded image
//   - error: ErrImageSize, or the context error
func ShadeImage(ctx context.Context, img *SampleImage, in Lighting) ([]mgl32.Vec3, error) {
	if img.Width != in.Grid.Width || img.Height != in.Grid.Height || len(img.Samples) != img.Width*img.Height {
		return nil, fmt.Errorf("%w: image %dx%d, grid %dx%d", ErrImageSize, img.Width, img.Height, in.Grid.Width, in.Grid.Height)
	}

	out := make([]mgl32.Vec3, len(img.Samples))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for y := 0; y < img.Height; y++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := y * img.Width
			for x := 0; x < img.Width; x++ {
				out[row+x] = ShadePixel(img.Samples[row+x], x, y, in)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
