package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/cluster"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// fakeRenderer accepts every call without a GPU. Bind group and target creation can be
// made to fail.
type fakeRenderer struct {
	failLabel   string
	failTargets bool

	writes   []bind_group_provider.BufferWrite
	presents int
}

var _ renderer.Renderer = &fakeRenderer{}

func (f *fakeRenderer) RegisterPipelines(...pipeline.Pipeline) error { return nil }
func (f *fakeRenderer) Resize(int, int) {}
func (f *fakeRenderer) SetPresentMode(renderer.PresentMode) {}

func (f *fakeRenderer) InitMeshBuffers(bind_group_provider.BindGroupProvider, []byte, []byte, int) error {
	return nil
}

func (f *fakeRenderer) InitBindGroup(p bind_group_provider.BindGroupProvider, _ wgpu.BindGroupLayoutDescriptor, _ map[int]wgpu.BufferUsage, _ map[int]uint64) error {
	if f.failLabel != "" && p.Label() == f.failLabel {
		return errors.New("out of memory")
	}
	return nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeRenderer) CreateRenderTarget(desc common.RenderTargetDescriptor) (common.RenderTarget, error) {
	if f.failTargets {
		return common.RenderTarget{}, errors.New("out of memory")
	}
	return common.RenderTarget{Format: desc.Format, Width: desc.Width, Height: desc.Height}, nil
}

func (f *fakeRenderer) BeginComputeFrame() error { return nil }
func (f *fakeRenderer) DispatchCompute(string, bind_group_provider.BindGroupProvider, [3]uint32) error {
	return nil
}
func (f *fakeRenderer) EndComputeFrame() {}
func (f *fakeRenderer) BeginGeometryFrame() error { return nil }
func (f *fakeRenderer) BeginGeometryPass([]*wgpu.TextureView, *wgpu.TextureView) {}
func (f *fakeRenderer) EndGeometryPass() {}
func (f *fakeRenderer) EndGeometryFrame() {}
func (f *fakeRenderer) BeginFrame() error { return nil }
func (f *fakeRenderer) EndFrame() {}
func (f *fakeRenderer) Present() { f.presents++ }
func (f *fakeRenderer) FullscreenDraw(string, uint32, []bind_group_provider.BindGroupProvider) error {
	return nil
}
func (f *fakeRenderer) GeometryDrawCall(string, bind_group_provider.BindGroupProvider, uint32, []bind_group_provider.BindGroupProvider) error {
	return nil
}

func testScene(t *testing.T, f *fakeRenderer) *scene {
	t.Helper()
	cfg, err := config.New(config.WithTileSize(128), config.WithDepthSlices(16))
	if err != nil {
		t.Fatalf("config.New: %v", err)
	}
	cam := camera.NewCamera(camera.WithViewport(256, 256))
	sc, err := NewScene(cfg, cam, f, WithStatsInterval(0), WithWorkers(2))
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	t.Cleanup(sc.Release)
	return sc.(*scene)
}

func TestResizeFailures(t *testing.T) {
	for _, tc := range []struct {
		name          string
		width, height int
		fail          func(f *fakeRenderer)
		wantErr       error
		blocked       bool
	}{
		{"zero viewport", 0, 256, func(*fakeRenderer) {}, cluster.ErrZeroViewport, false},
		{"g-buffer allocation", 512, 512, func(f *fakeRenderer) { f.failTargets = true }, nil, true},
		{"cluster buffer allocation", 512, 512, func(f *fakeRenderer) { f.failLabel = "cluster_set" }, nil, true},
		{"lighting rebind", 512, 512, func(f *fakeRenderer) { f.failLabel = "lighting_gbuffer" }, nil, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeRenderer{}
			s := testScene(t, f)
			grid := s.clusters.Grid()

			tc.fail(f)
			err := s.Resize(tc.width, tc.height)
			if err == nil {
				t.Fatal("expected a resize error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.name == "cluster buffer allocation" && s.clusters.Grid() != grid {
				t.Errorf("grid = %+v after a failed allocation, want %+v", s.clusters.Grid(), grid)
			}

			presents := f.presents
			err = s.SubmitFrame(0, 0.016)
			if got := errors.Is(err, ErrResizeFailed); got != tc.blocked {
				t.Fatalf("SubmitFrame err = %v, blocked = %v, want %v", err, got, tc.blocked)
			}
			if tc.blocked && f.presents != presents {
				t.Error("a blocked frame was presented")
			}

			*f = fakeRenderer{}
			if err := s.Resize(512, 512); err != nil {
				t.Fatalf("retry Resize: %v", err)
			}
			if err := s.SubmitFrame(0.016, 0.016); err != nil {
				t.Fatalf("SubmitFrame after a good resize: %v", err)
			}
			if f.presents != 1 {
				t.Errorf("presents = %d, want 1", f.presents)
			}
		})
	}
}

func TestCameraUploadUsesShaderBinding(t *testing.T) {
	f := &fakeRenderer{}
	s := testScene(t, f)
	f.writes = nil

	if err := s.SubmitFrame(0, 0.016); err != nil {
		t.Fatalf("SubmitFrame: %v", err)
	}
	cam := s.cam.BindGroupProvider()
	found := false
	for _, w := range f.writes {
		if w.Provider != cam {
			continue
		}
		found = true
		if w.Binding != s.geometry.CameraBinding() {
			t.Errorf("camera write to binding %d, want %d", w.Binding, s.geometry.CameraBinding())
		}
	}
	if !found {
		t.Fatal("no camera uniform upload")
	}
}
