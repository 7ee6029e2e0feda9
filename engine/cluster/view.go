package cluster

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

// View is the camera state clustering depends on.
type View struct {
	View    mgl32.Mat4
	InvProj mgl32.Mat4
	Near    float32
	Far     float32
}

// NewView bundles the matrices and clip planes of one frame.
//
// Parameters:
//   - view: the world-to-view matrix
//   - invProj: the inverse of the projection
//   - near, far: the clip plane distances the projection was built with
//
// Returns:
//   - View: the clustering view
func NewView(view, invProj mgl32.Mat4, near, far float32) View {
	return View{View: view, InvProj: invProj, Near: near, Far: far}
}

// ToView transforms a world-space point into view space.
//
// Parameters:
//   - p: the world-space point
//
// Returns:
//   - mgl32.Vec3: the view-space point (visible points have negative z)
func (v View) ToView(p mgl32.Vec3) mgl32.Vec3 {
	return v.View.Mul4x1(p.Vec4(1)).Vec3()
}

// nearPlanePoint unprojects a pixel onto the near plane. The returned point has z = -near.
func (g Grid) nearPlanePoint(v View, px, py float32) mgl32.Vec3 {
	ndc := mgl32.Vec4{
		px/float32(g.Width)*2 - 1,
		1 - py/float32(g.Height)*2,
		0,
		1,
	}
	p := v.InvProj.Mul4x1(ndc)
	return p.Vec3().Mul(1 / p[3])
}

// CellVolume is the view-space shape of one cluster: its enclosing box plus the four side
// planes of its tile, which all pass through the eye.
type CellVolume struct {
	Bounds common.AABB
	Sides  [4]common.Plane // Left, Right, Top, Bottom; positive side faces the tile
}

// IntersectsSphere reports whether a sphere may touch the cell. A sphere has to touch the box
// and lie no further than its radius outside any of the side planes. Spheres near the corner
// where two planes meet can still pass without touching the cell.
//
// Parameters:
//   - center: the view-space sphere centre
//   - radius: the sphere radius
//
// Returns:
//   - bool: false only when the sphere is known to miss the cell
func (c CellVolume) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	if !c.Bounds.IntersectsSphere(center, radius) {
		return false
	}
	for _, p := range c.Sides {
		if p.SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}

// CellVolume builds the view-space volume of cluster (ix, iy, iz). The four tile corners
// (clamped to the viewport) are unprojected onto the near plane and pushed along their view
// rays to the slice's near and far depths. The rays of adjacent corners span the side planes.
//
// Parameters:
//   - v: the clustering view
//   - ix, iy, iz: the cell coordinate
//
// Returns:
//   - CellVolume: the bounds and side planes of the cell
func (g Grid) CellVolume(v View, ix, iy, iz int) CellVolume {
	x0 := float32(ix * g.TileSize)
	y0 := float32(iy * g.TileSize)
	x1 := float32(min((ix+1)*g.TileSize, g.Width))
	y1 := float32(min((iy+1)*g.TileSize, g.Height))
	zNear, zFar := SliceBounds(iz, v.Near, v.Far, g.Dims.Z)

	var corners [4]mgl32.Vec3 // top-left, top-right, bottom-left, bottom-right
	var mid mgl32.Vec3
	cell := CellVolume{Bounds: common.EmptyAABB()}
	for i, c := range [4][2]float32{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}} {
		p := g.nearPlanePoint(v, c[0], c[1])
		scale := -1 / p[2]
		cell.Bounds.Extend(p.Mul(zNear * scale))
		cell.Bounds.Extend(p.Mul(zFar * scale))
		corners[i] = p
		mid = mid.Add(p)
	}

	edges := [4][2]int{{0, 2}, {1, 3}, {0, 1}, {2, 3}}
	for i, e := range edges {
		cell.Sides[i] = sidePlane(corners[e[0]], corners[e[1]], mid)
	}
	return cell
}

// sidePlane returns the plane through the eye and the rays a and b, facing inside.
func sidePlane(a, b, inside mgl32.Vec3) common.Plane {
	n := a.Cross(b)
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	if n.Dot(inside) < 0 {
		n = n.Mul(-1)
	}
	return common.Plane{Normal: n}
}

// CellBounds returns the view-space axis-aligned box enclosing cluster (ix, iy, iz).
//
// Parameters:
//   - v: the clustering view
//   - ix, iy, iz: the cell coordinate
//
// Returns:
//   - common.AABB: the view-space bounds of the cell
func (g Grid) CellBounds(v View, ix, iy, iz int) common.AABB {
	return g.CellVolume(v, ix, iy, iz).Bounds
}

// ClusterIndexForPixel reconstructs the cluster a shaded pixel belongs to. It is the same
// tile and slice mapping the clustering stage used to build the cells.
//
// Parameters:
//   - v: the clustering view
//   - px, py: the pixel coordinate (fragment position, y down)
//   - depth: the positive view-space depth of the surface
//
// Returns:
//   - int: the flat cluster index
func (g Grid) ClusterIndexForPixel(v View, px, py, depth float32) int {
	ix := common.Clamp(int(math.Floor(float64(px)/float64(g.TileSize))), 0, g.Dims.X-1)
	iy := common.Clamp(int(math.Floor(float64(py)/float64(g.TileSize))), 0, g.Dims.Y-1)
	iz := SliceForDepth(depth, v.Near, v.Far, g.Dims.Z)
	return g.Dims.Index(ix, iy, iz)
}
