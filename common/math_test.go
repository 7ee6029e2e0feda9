package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(math.Pi/2, 1, 0.1, 100)

	for _, tc := range []struct {
		name  string
		viewZ float32
		want  float32
	}{
		{"near plane maps to 0", -0.1, 0},
		{"midway is past one half", -50, 0.999},
		{"far plane maps to 1", -100, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clip := proj.Mul4x1(mgl32.Vec4{0, 0, tc.viewZ, 1})
			if got := clip[2] / clip[3]; !approx(got, tc.want, 1e-3) {
				t.Fatalf("ndc z = %v, want %v", got, tc.want)
			}
		})
	}

	if inv := proj.Inv(); !proj.Mul4(inv).ApproxEqualThreshold(mgl32.Ident4(), 1e-4) {
		t.Fatalf("projection does not invert: %v", inv)
	}
}

func TestModelMatrix(t *testing.T) {
	tests := []struct {
		name                      string
		position, rotation, scale mgl32.Vec3
		in, want                  mgl32.Vec3
	}{
		{"translate and scale", mgl32.Vec3{1, 2, 3}, mgl32.Vec3{}, mgl32.Vec3{2, 2, 2}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{3, 4, 5}},
		{"yaw quarter turn", mgl32.Vec3{}, mgl32.Vec3{0, math.Pi / 2, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{"scale before rotate", mgl32.Vec3{}, mgl32.Vec3{0, 0, math.Pi / 2}, mgl32.Vec3{3, 1, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 3, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ModelMatrix(tt.position, tt.rotation, tt.scale)
			if got := TransformPoint(m, tt.in); !got.ApproxEqualThreshold(tt.want, 1e-5) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalMatrixKeepsNormalsPerpendicular(t *testing.T) {
	model := ModelMatrix(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{}, mgl32.Vec3{4, 1, 1})
	normal := NormalMatrix(model)

	// The plane x = y has normal (1, -1, 0) and tangent (1, 1, 0).
	tangent := model.Mul4x1(mgl32.Vec4{1, 1, 0, 0}).Vec3()
	n := normal.Mul4x1(mgl32.Vec4{1, -1, 0, 0}).Vec3()
	if d := n.Dot(tangent); !approx(d, 0, 1e-5) {
		t.Fatalf("normal . tangent = %v", d)
	}
	if normal[12] != 0 || normal[13] != 0 || normal[14] != 0 {
		t.Fatalf("normal matrix carries translation: %v", normal)
	}
}

func TestCeilDiv(t *testing.T) {
	for _, tc := range []struct{ n, d, want int }{
		{256, 128, 2},
		{257, 128, 3},
		{1, 128, 1},
		{0, 128, 0},
	} {
		if got := CeilDiv(tc.n, tc.d); got != tc.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tc.n, tc.d, got, tc.want)
		}
	}
}
