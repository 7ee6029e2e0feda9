package scene

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

func testFrustum() *common.Frustum {
	// With an identity view the view-projection is the projection.
	f := common.FrustumFromViewProj(common.Perspective(math.Pi/2, 1, 0.1, 100))
	return &f
}

type drawCall struct {
	model, material, mesh bind_group_provider.BindGroupProvider
}

// collect records one drawCall per primitive.
func collect(d *drawList) []drawCall {
	var calls []drawCall
	var cur drawCall
	d.Iterate(
		func(m bind_group_provider.BindGroupProvider) { cur.model = m },
		func(m bind_group_provider.BindGroupProvider) { cur.material = m },
		func(m bind_group_provider.BindGroupProvider) {
			cur.mesh = m
			calls = append(calls, cur)
		},
	)
	return calls
}

func TestDrawListIterate(t *testing.T) {
	mdl := model.NewModel(model.WithName("cube"), model.WithMesh(model.Cube(1)))
	red := material.NewMaterial(material.WithName("red"), material.WithBaseColor([4]float32{1, 0, 0, 1}))
	blue := material.NewMaterial(material.WithName("blue"), material.WithBaseColor([4]float32{0, 0, 1, 1}))

	front := game_object.NewGameObject(game_object.WithID(1), game_object.WithModel(mdl), game_object.WithMaterial(red), game_object.WithPosition(0, 0, -5))
	shared := game_object.NewGameObject(game_object.WithID(2), game_object.WithModel(mdl), game_object.WithMaterial(red), game_object.WithPosition(1, 0, -5))
	behind := game_object.NewGameObject(game_object.WithID(3), game_object.WithModel(mdl), game_object.WithMaterial(blue), game_object.WithPosition(0, 0, 5))
	disabled := game_object.NewGameObject(game_object.WithID(4), game_object.WithModel(mdl), game_object.WithMaterial(blue), game_object.WithEnabled(false))
	bare := game_object.NewGameObject(game_object.WithID(5), game_object.WithModel(mdl))
	last := game_object.NewGameObject(game_object.WithID(6), game_object.WithModel(mdl), game_object.WithMaterial(blue), game_object.WithPosition(0, 0, -20))

	d := newDrawList()
	for _, obj := range []game_object.GameObject{front, shared, behind, disabled, bare, last} {
		d.add(obj)
	}

	t.Run("culled", func(t *testing.T) {
		d.frustum = testFrustum()
		calls := collect(d)
		want := []drawCall{
			{front.ModelProvider(), red.BindGroupProvider(), mdl.MeshProvider()},
			{shared.ModelProvider(), red.BindGroupProvider(), mdl.MeshProvider()},
			{last.ModelProvider(), blue.BindGroupProvider(), mdl.MeshProvider()},
		}
		if len(calls) != len(want) {
			t.Fatalf("got %d draws, want %d", len(calls), len(want))
		}
		for i := range want {
			if calls[i] != want[i] {
				t.Errorf("draw %d = %+v, want %+v", i, calls[i], want[i])
			}
		}
		if d.drawn != 3 {
			t.Errorf("drawn = %d, want 3", d.drawn)
		}
	})

	t.Run("culling disabled", func(t *testing.T) {
		d.frustum = nil
		if calls := collect(d); len(calls) != 4 {
			t.Errorf("got %d draws, want 4", len(calls))
		}
	})

	t.Run("shared material bound once", func(t *testing.T) {
		d.frustum = testFrustum()
		materials := 0
		d.Iterate(func(bind_group_provider.BindGroupProvider) {}, func(bind_group_provider.BindGroupProvider) { materials++ }, func(bind_group_provider.BindGroupProvider) {})
		if materials != 2 {
			t.Errorf("material bound %d times, want 2", materials)
		}
	})
}

func TestDrawListRemove(t *testing.T) {
	d := newDrawList()
	for id := uint64(1); id <= 3; id++ {
		d.add(game_object.NewGameObject(game_object.WithID(id)))
	}
	if obj := d.remove(2); obj == nil || obj.ID() != 2 {
		t.Fatalf("remove(2) = %v", obj)
	}
	if d.remove(2) != nil {
		t.Error("second remove returned an object")
	}
	if len(d.objects) != 2 || d.objects[0].ID() != 1 || d.objects[1].ID() != 3 {
		t.Errorf("remaining objects out of order")
	}
	if _, ok := d.byID[2]; ok {
		t.Error("removed object still indexed")
	}
}
