package material

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial(WithName("floor"))
	if got := m.BaseColor(); got != [4]float32{1, 1, 1, 1} {
		t.Errorf("default base color = %v, want opaque white", got)
	}
	if m.BindGroupProvider() == nil {
		t.Fatal("expected a bind group provider")
	}
	if m.BindGroupProvider().Label() != "floor material" {
		t.Errorf("provider label = %q", m.BindGroupProvider().Label())
	}
	if !m.TakeDirty() {
		t.Error("a new material must start dirty so it is uploaded once")
	}
	if m.TakeDirty() {
		t.Error("TakeDirty must clear the flag")
	}
}

func TestSetBaseColorMarksDirty(t *testing.T) {
	m := NewMaterial()
	m.TakeDirty()
	m.SetBaseColor([4]float32{0.5, 0.25, 0, 1})
	if !m.TakeDirty() {
		t.Fatal("SetBaseColor must mark the material dirty")
	}
	if got := m.Params().BaseColor; got != [4]float32{0.5, 0.25, 0, 1} {
		t.Errorf("params base color = %v", got)
	}
}

func TestMaterialParamsMarshal(t *testing.T) {
	p := GPUMaterialParams{BaseColor: [4]float32{0.1, 0.2, 0.3, 1}}
	if p.Size() != 16 {
		t.Fatalf("Size() = %d, want 16", p.Size())
	}
	buf := p.Marshal()
	if len(buf) != p.Size() {
		t.Fatalf("len(Marshal()) = %d, want %d", len(buf), p.Size())
	}
	for i, want := range p.BaseColor {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != want {
			t.Errorf("component %d = %v, want %v", i, got, want)
		}
	}
}
