package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// paletteWhiteMix is how far a generated color moves from white toward its pure hue.
const paletteWhiteMix = 0.8

// Light is a single point light. Color is already scaled by the store's intensity.
type Light struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// HueToRGB converts a hue in [0, 1] to a fully saturated RGB color.
//
// Parameters:
//   - h: the hue, wrapping at 1
//
// Returns:
//   - mgl32.Vec3: the RGB color with every channel in [0, 1]
func HueToRGB(h float32) mgl32.Vec3 {
	f := func(n float32) float32 {
		k := float32(math.Mod(float64(n+h*6), 6))
		return 1 - max(min(k, 4-k, 1), 0)
	}
	return mgl32.Vec3{f(5), f(3), f(1)}
}

// PaletteColor returns the color assigned to a light with hue h: the pure hue mixed
// with white and scaled by intensity.
//
// Parameters:
//   - h: the hue in [0, 1]
//   - intensity: the scalar brightness applied to the mixed color
//
// Returns:
//   - mgl32.Vec3: the intensity-scaled light color
func PaletteColor(h, intensity float32) mgl32.Vec3 {
	white := mgl32.Vec3{1, 1, 1}
	hue := HueToRGB(h)
	return white.Add(hue.Sub(white).Mul(paletteWhiteMix)).Mul(intensity)
}
