package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewBindGroupProviderAttachesBorrowed(t *testing.T) {
	camera := &wgpu.Buffer{}
	view := &wgpu.TextureView{}
	p := NewBindGroupProvider("lighting", WithBuffer(0, camera), WithTextureView(3, view))

	if p.Label() != "lighting" {
		t.Errorf("Label() = %q", p.Label())
	}
	if p.Buffer(0) != camera {
		t.Error("borrowed buffer not attached")
	}
	if p.TextureView(3) != view {
		t.Error("borrowed view not attached")
	}
	if p.Buffer(1) != nil || p.TextureView(0) != nil {
		t.Error("unset bindings should be nil")
	}
}

func TestSetBufferNilDetaches(t *testing.T) {
	p := NewBindGroupProvider("clusters")
	p.SetBuffer(2, &wgpu.Buffer{})
	p.SetBuffer(2, nil)
	if p.Buffer(2) != nil {
		t.Error("nil SetBuffer should detach")
	}
	impl := p.(*bindGroupProvider)
	if _, ok := impl.bindings[2]; ok {
		t.Error("detached binding still tracked")
	}
}

func TestReleaseLeavesBorrowedAlone(t *testing.T) {
	p := NewBindGroupProvider("scene", WithBuffer(0, &wgpu.Buffer{}), WithBuffer(1, &wgpu.Buffer{}))
	p.ReleaseBuffer(1)
	if p.Buffer(1) != nil {
		t.Error("ReleaseBuffer should detach")
	}
	// Releasing a borrowed buffer would dereference the zero handle.
	p.Release()
	if p.Buffer(0) != nil {
		t.Error("Release should detach every binding")
	}
	if v, i, n := p.Mesh(); v != nil || i != nil || n != 0 {
		t.Errorf("Mesh() after Release = %v, %v, %d", v, i, n)
	}
}
