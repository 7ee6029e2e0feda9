package game_object

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

func TestNewGameObjectDefaults(t *testing.T) {
	obj := NewGameObject()
	if !obj.Enabled() {
		t.Error("objects are enabled by default")
	}
	if obj.Transform() != Identity {
		t.Errorf("Transform() = %+v, want Identity", obj.Transform())
	}
	if obj.ModelProvider() == nil {
		t.Fatal("expected a model provider")
	}
	if !obj.TakeDirty() {
		t.Error("a new object must start dirty")
	}
}

func TestSettersMarkDirty(t *testing.T) {
	tests := []struct {
		name string
		set  func(GameObject)
	}{
		{"transform", func(g GameObject) { g.SetTransform(Transform{Position: mgl32.Vec3{1, 2, 3}, Scale: mgl32.Vec3{1, 1, 1}}) }},
		{"update with spin", func(g GameObject) { g.SetSpin(mgl32.Vec3{0, 1, 0}); g.Update(0.5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := NewGameObject()
			obj.TakeDirty()
			tt.set(obj)
			if !obj.TakeDirty() {
				t.Error("expected the object to be dirty")
			}
		})
	}
}

func TestUpdateWithoutSpinStaysClean(t *testing.T) {
	obj := NewGameObject()
	obj.TakeDirty()
	obj.Update(1)
	if obj.TakeDirty() {
		t.Error("Update without spin must not dirty the transform")
	}
}

func TestUpdateAdvancesRotation(t *testing.T) {
	obj := NewGameObject(WithSpin(0, 2, 0), WithRotation(0.5, 0, 0))
	obj.Update(0.25)
	want := mgl32.Vec3{0.5, 0.5, 0}
	if got := obj.Transform().Rotation; !got.ApproxEqualThreshold(want, 1e-6) {
		t.Errorf("rotation = %v, want %v", got, want)
	}
}

func TestModelDataTranslates(t *testing.T) {
	obj := NewGameObject(WithPosition(3, -1, 2), WithScale(2, 2, 2))
	data := obj.ModelData()
	p := common.TransformPoint(data.Model, mgl32.Vec3{1, 0, 0})
	want := mgl32.Vec3{5, -1, 2}
	if !p.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("model * (1,0,0) = %v, want %v", p, want)
	}
	// uniform scale: the normal matrix is the rotation scaled by 1/s
	if math.Abs(float64(data.Normal[0]-0.5)) > 1e-5 {
		t.Errorf("normal matrix [0] = %v, want 0.5", data.Normal[0])
	}
}

func TestBoundingSphere(t *testing.T) {
	obj := NewGameObject(
		WithModel(model.NewModel(model.WithMesh(model.Cube(2)))),
		WithPosition(1, 2, 3),
		WithScale(1, -3, 2),
	)
	c, r := obj.BoundingSphere()
	if c != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("centre = %v", c)
	}
	want := float32(math.Sqrt(3)) * 3
	if math.Abs(float64(r-want)) > 1e-4 {
		t.Errorf("radius = %v, want %v", r, want)
	}

	empty := NewGameObject()
	if _, r := empty.BoundingSphere(); r != 0 {
		t.Errorf("object without a model has radius %v", r)
	}
}
