package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestUniformLayout(t *testing.T) {
	c := NewCamera(
		WithViewport(1280, 720),
		WithClipPlanes(0.5, 200),
		WithController(NewOrbitController(WithRadius(10))),
	)
	u := c.Uniform()
	if got := u.Size(); got != 224 {
		t.Fatalf("uniform size = %d, want 224", got)
	}

	buf := u.Marshal()
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	for _, tc := range []struct {
		name string
		off  int
		want float32
	}{
		{"near", 204, 0.5},
		{"viewport width", 208, 1280},
		{"viewport height", 212, 720},
		{"far", 216, 200},
		{"log far over near", 220, float32(math.Log(400))},
		{"invProj[0]", 128, u.InvProj[0]},
		{"view[12]", 64 + 12*4, u.View[12]},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := f(tc.off); math.Abs(float64(got-tc.want)) > 1e-5 {
				t.Fatalf("offset %d = %v, want %v", tc.off, got, tc.want)
			}
		})
	}
}

func TestSetViewportUpdatesProjection(t *testing.T) {
	c := NewCamera(WithViewport(100, 100))
	square := c.Matrices().Proj
	c.SetViewport(200, 100)
	if got := c.Aspect(); got != 2 {
		t.Fatalf("aspect = %v, want 2", got)
	}
	m := c.Matrices()
	if m.Proj[0] != square[0]/2 {
		t.Fatalf("x scale = %v, want %v", m.Proj[0], square[0]/2)
	}
	if !m.Proj.Mul4(m.InvProj).ApproxEqualThreshold(mgl32.Ident4(), 1e-4) {
		t.Fatal("InvProj is not the inverse of Proj")
	}
}

func TestLens(t *testing.T) {
	tests := []struct {
		name string
		opts []CameraBuilderOption
		want Lens
	}{
		{"default", nil, DefaultLens},
		{"fov only", []CameraBuilderOption{WithFov(1)}, Lens{FovY: 1, Near: 0.1, Far: 100}},
		{"clip planes", []CameraBuilderOption{WithClipPlanes(0.5, 500)}, Lens{FovY: DefaultLens.FovY, Near: 0.5, Far: 500}},
		{"whole lens", []CameraBuilderOption{WithLens(Lens{FovY: 0.5, Near: 1, Far: 10})}, Lens{FovY: 0.5, Near: 1, Far: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewCamera(tt.opts...).Lens(); got != tt.want {
				t.Errorf("lens = %+v, want %+v", got, tt.want)
			}
		})
	}

	c := NewCamera()
	before := c.Matrices().Proj
	c.SetLens(Lens{FovY: math.Pi / 2, Near: 1, Far: 10})
	if c.Matrices().Proj == before {
		t.Error("SetLens did not refresh the projection")
	}
}

func TestOrbitController(t *testing.T) {
	o := NewOrbitController(WithRadius(10), WithAngles(0, 0), WithRadiusBounds(2, 20))
	if p := o.Position(); !p.ApproxEqualThreshold(mgl32.Vec3{0, 0, 10}, 1e-5) {
		t.Fatalf("initial position = %v", p)
	}

	o.Zoom(100)
	if got := o.Radius(); got != 2 {
		t.Fatalf("radius after zoom in = %v, want clamp at 2", got)
	}
	o.Zoom(-100)
	if got := o.Radius(); got != 20 {
		t.Fatalf("radius after zoom out = %v, want clamp at 20", got)
	}

	o.Orbit(0, 10)
	_, elev := o.Angles()
	if elev >= math.Pi/2 {
		t.Fatalf("elevation %v passed the pole", elev)
	}

	o.SetTarget(mgl32.Vec3{1, 2, 3})
	if d := o.Position().Sub(o.Target()).Len(); math.Abs(float64(d-20)) > 1e-4 {
		t.Fatalf("eye is %v from target, want 20", d)
	}
}

func TestCameraLooksAtTarget(t *testing.T) {
	c := NewCamera(WithController(NewOrbitController(WithRadius(5), WithAngles(0, 0))))
	p := common.TransformPoint(c.Matrices().View, mgl32.Vec3{0, 0, 0})
	if !p.ApproxEqualThreshold(mgl32.Vec3{0, 0, -5}, 1e-5) {
		t.Fatalf("target in view space = %v, want (0,0,-5)", p)
	}
}
