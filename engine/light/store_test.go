package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/go-gl/mathgl/mgl32"
)

func testConfig(t *testing.T, opts ...config.ConfigBuilderOption) config.Config {
	t.Helper()
	cfg, err := config.New(opts...)
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	return cfg
}

func TestSetLightCountClamps(t *testing.T) {
	cfg := testConfig(t, config.WithMaxNumLights(64), config.WithNumLights(10))
	s := NewStore(cfg, WithWorkers(2))
	defer s.Close()

	for _, tc := range []struct {
		name string
		in   int
		want int
	}{
		{"within range", 32, 32},
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"at capacity", 64, 64},
		{"above capacity", 10000, 64},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.SetLightCount(tc.in); got != tc.want {
				t.Fatalf("SetLightCount(%d) = %d, want %d", tc.in, got, tc.want)
			}
			if got := s.Count(); got != tc.want {
				t.Fatalf("Count() = %d, want %d", got, tc.want)
			}
			hdr := s.MarshalHeader()
			if got := binary.LittleEndian.Uint32(hdr[0:4]); int(got) != tc.want {
				t.Fatalf("header count = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSetLightCountKeepsLights(t *testing.T) {
	cfg := testConfig(t, config.WithMaxNumLights(16), config.WithNumLights(16))
	s := NewStore(cfg)
	defer s.Close()

	before := s.Light(7)
	s.SetLightCount(3)
	s.SetLightCount(16)
	if after := s.Light(7); after != before {
		t.Fatalf("light 7 changed across count changes: %v -> %v", before, after)
	}
}

func TestAdvanceStaysInBoundsAndIsDeterministic(t *testing.T) {
	cfg := testConfig(t, config.WithMaxNumLights(500), config.WithNumLights(500))
	a := NewStore(cfg, WithWorkers(4))
	defer a.Close()
	b := NewStore(cfg, WithWorkers(1))
	defer b.Close()

	lo := mgl32.Vec3(cfg.LightBoundsMin)
	hi := mgl32.Vec3(cfg.LightBoundsMax)
	for _, tm := range []float32{0, 0.5, 3.25, 100} {
		a.Advance(tm)
		b.Advance(tm)
		la, lb := a.Lights(), b.Lights()
		for i := range la {
			if la[i] != lb[i] {
				t.Fatalf("t=%v light %d differs between worker counts: %v vs %v", tm, i, la[i], lb[i])
			}
			for axis := range 3 {
				p := la[i].Position[axis]
				if p < lo[axis]-1e-4 || p > hi[axis]+1e-4 {
					t.Fatalf("t=%v light %d axis %d = %v outside [%v, %v]", tm, i, axis, p, lo[axis], hi[axis])
				}
			}
		}
	}
}

func TestAdvanceOnlyMovesActiveLights(t *testing.T) {
	cfg := testConfig(t, config.WithMaxNumLights(8), config.WithNumLights(8))
	s := NewStore(cfg)
	defer s.Close()

	s.SetLightCount(4)
	inactive := s.Light(6)
	s.Advance(12)
	if got := s.Light(6); got != inactive {
		t.Fatalf("inactive light moved: %v -> %v", inactive, got)
	}
	want := MotionPosition(2, 12, mgl32.Vec3(cfg.LightBoundsMin), mgl32.Vec3(cfg.LightBoundsMax))
	if got := s.Light(2).Position; got != want {
		t.Fatalf("light 2 at %v, want %v", got, want)
	}
}

func TestPaletteColor(t *testing.T) {
	for _, tc := range []struct {
		name string
		hue  float32
		want mgl32.Vec3
	}{
		{"red", 0, mgl32.Vec3{1, 0.2, 0.2}},
		{"green", 1.0 / 3, mgl32.Vec3{0.2, 1, 0.2}},
		{"blue", 2.0 / 3, mgl32.Vec3{0.2, 0.2, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := PaletteColor(tc.hue, 1)
			if !got.ApproxEqualThreshold(tc.want, 1e-4) {
				t.Fatalf("PaletteColor(%v) = %v, want %v", tc.hue, got, tc.want)
			}
		})
	}

	scaled := PaletteColor(0, 0.1)
	if !scaled.ApproxEqualThreshold(mgl32.Vec3{0.1, 0.02, 0.02}, 1e-5) {
		t.Fatalf("intensity scaling gave %v", scaled)
	}
}

func TestStoreColorsAreSeeded(t *testing.T) {
	cfg := testConfig(t, config.WithMaxNumLights(32), config.WithNumLights(32))
	a := NewStore(cfg, WithSeed(7))
	defer a.Close()
	b := NewStore(cfg, WithSeed(7))
	defer b.Close()
	c := NewStore(cfg, WithSeed(8))
	defer c.Close()

	same := true
	for i := range 32 {
		if a.Light(i).Color != b.Light(i).Color {
			t.Fatalf("light %d color differs for equal seeds", i)
		}
		if a.Light(i).Color != c.Light(i).Color {
			same = false
		}
	}
	if same {
		t.Fatal("different seeds produced identical palettes")
	}
}

func TestMarshalLayout(t *testing.T) {
	cfg := testConfig(t, config.WithMaxNumLights(5000), config.WithNumLights(5000))
	s := NewStore(cfg)
	defer s.Close()

	buf := s.Marshal()
	if want := 16 + 5000*32; len(buf) != want || s.BufferSize() != uint64(want) {
		t.Fatalf("buffer is %d bytes (BufferSize %d), want %d", len(buf), s.BufferSize(), want)
	}
	if got := binary.LittleEndian.Uint32(buf[0:4]); got != 5000 {
		t.Fatalf("header count = %d, want 5000", got)
	}

	l := s.Light(4999)
	rec := buf[16+4999*32:]
	for i := range 3 {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(rec[i*4:])); got != l.Position[i] {
			t.Fatalf("position[%d] = %v, want %v", i, got, l.Position[i])
		}
		if got := math.Float32frombits(binary.LittleEndian.Uint32(rec[16+i*4:])); got != l.Color[i] {
			t.Fatalf("color[%d] = %v, want %v", i, got, l.Color[i])
		}
	}
}

func TestGPUTypeSizes(t *testing.T) {
	if got := (&GPULight{}).Size(); got != 32 {
		t.Errorf("GPULight size = %d, want 32", got)
	}
	if got := (&GPULightSetHeader{}).Size(); got != 16 {
		t.Errorf("GPULightSetHeader size = %d, want 16", got)
	}
	if got := (&GPUTimeUniform{}).Size(); got != 16 {
		t.Errorf("GPUTimeUniform size = %d, want 16", got)
	}
}
