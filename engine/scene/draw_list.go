package scene

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/game_object"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// drawList holds the scene's drawables in insertion order and yields the visible ones to
// the geometry pass. It is not safe for concurrent use; the scene lock guards it.
type drawList struct {
	objects []game_object.GameObject
	byID    map[uint64]game_object.GameObject

	// frustum, when set, skips objects whose bounding sphere lies outside it.
	frustum *common.Frustum
	drawn   int
}

var _ deferred.SceneIterator = &drawList{}

func newDrawList() *drawList {
	return &drawList{byID: make(map[uint64]game_object.GameObject)}
}

func (d *drawList) add(obj game_object.GameObject) {
	d.objects = append(d.objects, obj)
	d.byID[obj.ID()] = obj
}

func (d *drawList) remove(id uint64) game_object.GameObject {
	obj, ok := d.byID[id]
	if !ok {
		return nil
	}
	delete(d.byID, id)
	d.objects = slices.DeleteFunc(d.objects, func(o game_object.GameObject) bool { return o.ID() == id })
	return obj
}

// visible reports whether obj should be drawn this frame.
func (d *drawList) visible(obj game_object.GameObject) bool {
	if !obj.Enabled() || obj.Model() == nil || obj.Material() == nil {
		return false
	}
	if d.frustum == nil {
		return true
	}
	center, radius := obj.BoundingSphere()
	return d.frustum.IntersectsSphere(center, radius)
}

// Iterate yields each visible object as one node, its material and its single mesh
// primitive. The material callback is skipped while consecutive objects share a material.
func (d *drawList) Iterate(node deferred.NodeFunc, materialFn deferred.MaterialFunc, primitive deferred.PrimitiveFunc) {
	d.drawn = 0
	var lastMaterial material.Material
	for _, obj := range d.objects {
		if !d.visible(obj) {
			continue
		}
		node(obj.ModelProvider())
		if mat := obj.Material(); mat != lastMaterial {
			materialFn(mat.BindGroupProvider())
			lastMaterial = mat
		}
		primitive(obj.Model().MeshProvider())
		d.drawn++
	}
}
