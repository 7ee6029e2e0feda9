package cluster

import (
	"encoding/binary"
	"errors"
	"math"
	"regexp"
	"slices"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	testNear = 0.1
	testFar  = 100
)

// testView is a camera at the origin looking down -Z with a 90 degree square frustum.
func testView() View {
	proj := common.Perspective(math.Pi/2, 1, testNear, testFar)
	return NewView(mgl32.Ident4(), proj.Inv(), testNear, testFar)
}

func testClusterer(t *testing.T, opts ...config.ConfigBuilderOption) Clusterer {
	t.Helper()
	cfg, err := config.New(append([]config.ConfigBuilderOption{
		config.WithTileSize(128),
		config.WithDepthSlices(16),
	}, opts...)...)
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	c, err := NewClusterer(cfg, 256, 256, WithWorkers(4), WithLightBatch(8))
	if err != nil {
		t.Fatalf("NewClusterer: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestComputeGridDimensions(t *testing.T) {
	for _, tc := range []struct {
		name         string
		w, h         int
		tile, slices int
		want         Dimensions
		wantErr      error
	}{
		{"exact tiles", 256, 256, 128, 16, Dimensions{2, 2, 16}, nil},
		{"partial tiles round up", 1920, 1080, 128, 32, Dimensions{15, 9, 32}, nil},
		{"single pixel", 1, 1, 128, 4, Dimensions{1, 1, 4}, nil},
		{"zero width", 0, 256, 128, 16, Dimensions{}, ErrZeroViewport},
		{"negative height", 256, -1, 128, 16, Dimensions{}, ErrZeroViewport},
		{"zero tile", 256, 256, 0, 16, Dimensions{}, config.ErrInvalidConfig},
		{"zero slices", 256, 256, 128, 0, Dimensions{}, config.ErrInvalidConfig},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeGridDimensions(tc.w, tc.h, tc.tile, tc.slices)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("dims = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestBufferSize(t *testing.T) {
	d := Dimensions{2, 2, 16}
	if got := RecordSize(128); got != 528 {
		t.Fatalf("RecordSize(128) = %d, want 528", got)
	}
	if got, want := BufferSize(d, 128), uint64(16+64*528); got != want {
		t.Fatalf("BufferSize = %d, want %d", got, want)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	d := Dimensions{3, 5, 7}
	for i := range d.Count() {
		x, y, z := d.Cell(i)
		if got := d.Index(x, y, z); got != i {
			t.Fatalf("Index(Cell(%d)) = %d", i, got)
		}
	}
}

func TestSliceForDepth(t *testing.T) {
	const numSlices = 16
	for _, tc := range []struct {
		name  string
		depth float32
		want  int
	}{
		{"in front of near", 0.01, 0},
		{"near plane", testNear, 0},
		{"far plane", testFar, numSlices - 1},
		{"beyond far", 1000, numSlices - 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := SliceForDepth(tc.depth, testNear, testFar, numSlices); got != tc.want {
				t.Fatalf("SliceForDepth(%v) = %d, want %d", tc.depth, got, tc.want)
			}
		})
	}

	prev := 0
	for d := float32(testNear); d < testFar; d *= 1.07 {
		s := SliceForDepth(d, testNear, testFar, numSlices)
		if s < prev {
			t.Fatalf("slice decreased from %d to %d at depth %v", prev, s, d)
		}
		prev = s
	}

	for k := range numSlices {
		lo, hi := SliceBounds(k, testNear, testFar, numSlices)
		mid := float32(math.Sqrt(float64(lo * hi)))
		if got := SliceForDepth(mid, testNear, testFar, numSlices); got != k {
			t.Fatalf("middle of slice %d (depth %v) mapped to %d", k, mid, got)
		}
	}
}

func TestCellBoundsCoverFrustum(t *testing.T) {
	c := testClusterer(t)
	g := c.Grid()
	v := testView()

	b := g.CellBounds(v, 0, 0, 0)
	lo, hi := SliceBounds(0, testNear, testFar, g.Dims.Z)
	if !approx(b.Max[2], -lo, 1e-4) || !approx(b.Min[2], -hi, 1e-4) {
		t.Fatalf("slice 0 z range = [%v, %v], want [%v, %v]", b.Min[2], b.Max[2], -hi, -lo)
	}
	// Top-left tile of a 90 degree frustum spans x in [-depth, 0] and y in [0, depth].
	if !approx(b.Min[0], -hi, 1e-3) || !approx(b.Max[1], hi, 1e-3) {
		t.Fatalf("top-left tile bounds = %+v", b)
	}
	if b.Max[0] > 1e-4 || b.Min[1] < -1e-4 {
		t.Fatalf("top-left tile crosses the centre: %+v", b)
	}
}

func TestSphereIntersectsAABB(t *testing.T) {
	box := common.AABB{Min: mgl32.Vec3{-1, -1, -3}, Max: mgl32.Vec3{1, 1, -1}}
	for _, tc := range []struct {
		name   string
		center mgl32.Vec3
		want   bool
	}{
		{"inside", mgl32.Vec3{0, 0, -2}, true},
		{"straddling face", mgl32.Vec3{2, 0, -2}, true},
		{"touching corner", mgl32.Vec3{1.5, 1.5, -0.5}, true},
		{"outside", mgl32.Vec3{5, 0, -2}, false},
		{"behind", mgl32.Vec3{0, 0, 2}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := SphereIntersectsAABB(tc.center, 1, box); got != tc.want {
				t.Fatalf("intersects = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCellVolumeSidePlanes(t *testing.T) {
	c := testClusterer(t)
	g := c.Grid()
	v := testView()

	// Top-left tile, last slice: the box reaches x = -far, the left plane is x = z.
	cell := g.CellVolume(v, 0, 0, g.Dims.Z-1)
	for _, tc := range []struct {
		name   string
		center mgl32.Vec3
		want   bool
	}{
		{"inside", mgl32.Vec3{-30, 30, -70}, true},
		{"straddling left plane", mgl32.Vec3{-71, 30, -70}, true},
		{"straddling inner tile edge", mgl32.Vec3{1, 30, -70}, true},
		{"inside box outside left plane", mgl32.Vec3{-90, 30, -70}, false},
		{"outside box", mgl32.Vec3{30, 30, -70}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := cell.IntersectsSphere(tc.center, 2); got != tc.want {
				t.Fatalf("intersects = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClusterLightsTileEdges(t *testing.T) {
	for _, tc := range []struct {
		name  string
		pos   mgl32.Vec3
		tiles [][2]int
	}{
		{"centred on all tiles", mgl32.Vec3{0, 0, -5}, [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
		{"inside one tile", mgl32.Vec3{3, 3, -5}, [][2]int{{1, 0}}},
		{"straddling inner edge", mgl32.Vec3{0.5, 3, -5}, [][2]int{{0, 0}, {1, 0}}},
		{"just outside left edge", mgl32.Vec3{-9, 0, -5}, nil},
		{"off screen", mgl32.Vec3{-90, 90, -70}, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := testClusterer(t, config.WithLightRadius(2))
			g := c.Grid()
			a := c.ClusterLights(testView(), []light.Light{{Position: tc.pos}})

			if len(tc.tiles) == 0 {
				if got := a.MaxOccupancy(); got != 0 {
					t.Fatalf("max occupancy = %d, want 0", got)
				}
				return
			}
			for i := range g.Dims.Count() {
				x, y, z := g.Dims.Cell(i)
				want := z >= 7 && z <= 9 && slices.Contains(tc.tiles, [2]int{x, y})
				if got := a.Count(i) == 1; got != want {
					t.Errorf("cell (%d, %d, %d) holds light = %v, want %v", x, y, z, got, want)
				}
			}
		})
	}
}

func TestClusteringKernelIndexesOnlyVarArrays(t *testing.T) {
	decl := regexp.MustCompile(`let\s+(\w+)\s*=\s*array<`)
	for _, m := range decl.FindAllStringSubmatch(GPUClusteringSource, -1) {
		dynamic := regexp.MustCompile(regexp.QuoteMeta(m[1]) + `\[[^\]0-9]`)
		if dynamic.MatchString(GPUClusteringSource) {
			t.Errorf("array %q is a let binding but indexed with a runtime value", m[1])
		}
	}
}

func TestClusterLightsSingleLight(t *testing.T) {
	c := testClusterer(t, config.WithLightRadius(2))
	g := c.Grid()
	v := testView()
	lights := []light.Light{{Position: mgl32.Vec3{0, 0, -5}}}

	a := c.ClusterLights(v, lights)

	// The light sits on the centre of the screen, so the pixel around it must see it.
	idx := g.ClusterIndexForPixel(v, 127.5, 127.5, 5)
	if got := a.Lights(idx); !slices.Equal(got, []uint32{0}) {
		t.Fatalf("cluster at light centre holds %v, want [0]", got)
	}

	_, _, zLight := g.Dims.Cell(idx)
	for i := range g.Dims.Count() {
		_, _, z := g.Dims.Cell(i)
		lo, hi := SliceBounds(z, testNear, testFar, g.Dims.Z)
		if hi < 3 || lo > 7 {
			if a.Count(i) != 0 {
				t.Fatalf("cluster %d (depth %v..%v) holds a light 3..7 units away", i, lo, hi)
			}
		}
	}
	if zLight == 0 || zLight == g.Dims.Z-1 {
		t.Fatalf("light landed in edge slice %d", zLight)
	}
}

func TestClusterLightsEveryLightReachable(t *testing.T) {
	c := testClusterer(t)
	g := c.Grid()
	v := testView()

	lights := make([]light.Light, 200)
	for i := range lights {
		lights[i].Position = light.MotionPosition(uint32(i), 1.5, mgl32.Vec3{-6, -6, -30}, mgl32.Vec3{6, 6, -1})
	}
	a := c.ClusterLights(v, lights)

	proj := common.Perspective(math.Pi/2, 1, testNear, testFar)
	for i, l := range lights {
		clip := proj.Mul4x1(l.Position.Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip[3])
		if ndc[0] < -1 || ndc[0] > 1 || ndc[1] < -1 || ndc[1] > 1 {
			continue
		}
		px := (ndc[0] + 1) / 2 * float32(g.Width)
		py := (1 - ndc[1]) / 2 * float32(g.Height)
		idx := g.ClusterIndexForPixel(v, px, py, -l.Position[2])
		if a.Count(idx) >= g.MaxLightsPerCluster {
			continue
		}
		if !slices.Contains(a.Lights(idx), uint32(i)) {
			t.Fatalf("light %d at %v missing from its own cluster %d", i, l.Position, idx)
		}
	}
}

func TestClusterLightsIdempotent(t *testing.T) {
	c := testClusterer(t)
	v := testView()
	lights := make([]light.Light, 100)
	for i := range lights {
		lights[i].Position = light.MotionPosition(uint32(i), 0.25, mgl32.Vec3{-10, -10, -40}, mgl32.Vec3{10, 10, -1})
	}

	a := c.ClusterLights(v, lights)
	b := c.ClusterLights(v, lights)
	for i := range c.Grid().Dims.Count() {
		if !slices.Equal(a.Lights(i), b.Lights(i)) {
			t.Fatalf("cluster %d differs between runs: %v vs %v", i, a.Lights(i), b.Lights(i))
		}
	}
}

func TestClusterLightsNoLights(t *testing.T) {
	c := testClusterer(t)
	a := c.ClusterLights(testView(), nil)
	if got := a.MaxOccupancy(); got != 0 {
		t.Fatalf("max occupancy = %d, want 0", got)
	}
}

func TestClusterLightsOverflow(t *testing.T) {
	c := testClusterer(t, config.WithMaxLightsPerCluster(4))
	g := c.Grid()
	v := testView()
	lights := make([]light.Light, 10)
	for i := range lights {
		lights[i].Position = mgl32.Vec3{0, 0, -5}
	}

	a := c.ClusterLights(v, lights)
	idx := g.ClusterIndexForPixel(v, 128, 128, 5)
	if got := a.Count(idx); got != 4 {
		t.Fatalf("overflowing cluster count = %d, want 4", got)
	}
	for _, li := range a.Lights(idx) {
		if li >= 10 {
			t.Fatalf("stored out-of-range index %d", li)
		}
	}

	buf := a.Marshal()
	off := 16 + idx*int(RecordSize(4))
	if got := binary.LittleEndian.Uint32(buf[off:]); got != 4 {
		t.Fatalf("marshalled count = %d, want 4", got)
	}
}

func TestRecordAppendConcurrent(t *testing.T) {
	a := NewAssignment(Grid{Dims: Dimensions{1, 1, 1}, MaxLightsPerCluster: 10})
	rec := a.Record(0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rec.Append(uint32(i)) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if accepted != 10 || rec.Count() != 10 {
		t.Fatalf("accepted %d, count %d, want 10", accepted, rec.Count())
	}
	got := a.Lights(0)
	if len(slices.Compact(got)) != 10 {
		t.Fatalf("duplicate indices stored: %v", got)
	}
}

func TestAssignmentMarshal(t *testing.T) {
	g := Grid{Dims: Dimensions{2, 1, 2}, MaxLightsPerCluster: 3}
	a := NewAssignment(g)
	a.Record(1).Append(7)
	a.Record(1).Append(9)
	a.Record(3).Append(2)

	buf := a.Marshal()
	if uint64(len(buf)) != g.BufferSize() {
		t.Fatalf("len = %d, want %d", len(buf), g.BufferSize())
	}
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(buf[off:]) }
	if u32(0) != 2 || u32(4) != 1 || u32(8) != 2 {
		t.Fatalf("header = %d %d %d", u32(0), u32(4), u32(8))
	}
	rec := int(RecordSize(3))
	if u32(16+rec) != 2 || u32(16+rec+16) != 7 || u32(16+rec+20) != 9 {
		t.Fatalf("record 1 = count %d [%d %d]", u32(16+rec), u32(16+rec+16), u32(16+rec+20))
	}
	if u32(16+3*rec) != 1 || u32(16+3*rec+16) != 2 {
		t.Fatalf("record 3 = count %d [%d]", u32(16+3*rec), u32(16+3*rec+16))
	}
	if u32(16) != 0 {
		t.Fatalf("record 0 count = %d, want 0", u32(16))
	}

	a.Reset()
	if a.MaxOccupancy() != 0 {
		t.Fatal("Reset left lights behind")
	}
}

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

// fakeCompute records the providers it initialized and dispatched. Bind group creation
// fails while fail is set.
type fakeCompute struct {
	fail       bool
	inits      []bind_group_provider.BindGroupProvider
	dispatched bind_group_provider.BindGroupProvider
}

func (f *fakeCompute) InitBindGroup(p bind_group_provider.BindGroupProvider, _ wgpu.BindGroupLayoutDescriptor, _ map[int]wgpu.BufferUsage, _ map[int]uint64) error {
	if f.fail {
		return errors.New("out of memory")
	}
	f.inits = append(f.inits, p)
	return nil
}

func (f *fakeCompute) RegisterPipelines(...pipeline.Pipeline) error { return nil }

func (f *fakeCompute) WriteBuffers([]bind_group_provider.BufferWrite) {}

func (f *fakeCompute) DispatchCompute(_ string, p bind_group_provider.BindGroupProvider, _ [3]uint32) error {
	f.dispatched = p
	return nil
}

func TestPassResize(t *testing.T) {
	cfg, err := config.New(config.WithTileSize(128), config.WithDepthSlices(16))
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	for _, tc := range []struct {
		name          string
		width, height int
		fail          bool
		wantErr       bool
		wantDims      Dimensions
	}{
		{"grows", 512, 256, false, false, Dimensions{4, 2, 16}},
		{"zero viewport", 0, 256, false, true, Dimensions{2, 2, 16}},
		{"allocation failure", 512, 512, true, true, Dimensions{2, 2, 16}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeCompute{}
			p, err := NewPass(f, cfg, nil, nil, 256, 256)
			if err != nil {
				t.Fatalf("NewPass: %v", err)
			}
			f.fail = tc.fail

			if err := p.Resize(tc.width, tc.height); (err != nil) != tc.wantErr {
				t.Fatalf("Resize err = %v, want error %v", err, tc.wantErr)
			}
			if got := p.Grid().Dims; got != tc.wantDims {
				t.Errorf("dims = %+v, want %+v", got, tc.wantDims)
			}
			if err := p.Encode(); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if last := f.inits[len(f.inits)-1]; f.dispatched != last {
				t.Error("dispatch does not use the last successfully built bind group")
			}
		})
	}
}
