// Package cluster partitions the view frustum into a grid of screen-space tiles times
// logarithmic depth slices and assigns each point light to every cell its sphere of
// influence touches. The CPU Clusterer and the GPU clustering kernel share the grid
// layout, depth slicing and buffer format defined here.
package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
)

// ErrZeroViewport is returned when a grid is requested for a viewport with no area.
var ErrZeroViewport = errors.New("cluster: viewport has zero area")

// headerSize is the byte size of the ClusterSet header (clustersX, clustersY, clustersZ, pad).
const headerSize = 16

// Dimensions is the number of clusters along each axis.
type Dimensions struct {
	X, Y, Z int
}

// Count returns the total number of clusters.
//
// Returns:
//   - int: X * Y * Z
func (d Dimensions) Count() int {
	return d.X * d.Y * d.Z
}

// Index flattens a cell coordinate with x varying fastest.
//
// Parameters:
//   - x, y, z: the cell coordinate
//
// Returns:
//   - int: the flat cluster index
func (d Dimensions) Index(x, y, z int) int {
	return x + y*d.X + z*d.X*d.Y
}

// Cell is the inverse of Index.
//
// Parameters:
//   - i: the flat cluster index
//
// Returns:
//   - x, y, z: the cell coordinate
func (d Dimensions) Cell(i int) (x, y, z int) {
	x = i % d.X
	y = (i / d.X) % d.Y
	z = i / (d.X * d.Y)
	return
}

// ComputeGridDimensions returns the cluster counts for a viewport: ceil(width/tileSize)
// by ceil(height/tileSize) tiles and slices depth slices.
//
// Parameters:
//   - width, height: the viewport size in pixels
//   - tileSize: the tile edge in pixels
//   - slices: the number of depth slices
//
// Returns:
//   - Dimensions: the cluster counts
//   - error: ErrZeroViewport for an empty viewport, a wrapped config.ErrInvalidConfig for a bad tile or slice count
func ComputeGridDimensions(width, height, tileSize, slices int) (Dimensions, error) {
	if width <= 0 || height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: %dx%d", ErrZeroViewport, width, height)
	}
	if tileSize <= 0 || slices <= 0 {
		return Dimensions{}, fmt.Errorf("%w: tile size %d, slices %d", config.ErrInvalidConfig, tileSize, slices)
	}
	return Dimensions{
		X: common.CeilDiv(width, tileSize),
		Y: common.CeilDiv(height, tileSize),
		Z: slices,
	}, nil
}

// RecordSize returns the byte size of one cluster record: a count, three words of
// padding and maxPerCluster light indices, all u32.
//
// Parameters:
//   - maxPerCluster: the record capacity
//
// Returns:
//   - uint64: (4 + maxPerCluster) * 4
func RecordSize(maxPerCluster int) uint64 {
	return uint64(4+maxPerCluster) * 4
}

// BufferSize returns the byte size of a ClusterSet buffer.
//
// Parameters:
//   - d: the grid dimensions
//   - maxPerCluster: the record capacity
//
// Returns:
//   - uint64: the header plus one record per cluster
func BufferSize(d Dimensions, maxPerCluster int) uint64 {
	return headerSize + uint64(d.Count())*RecordSize(maxPerCluster)
}

// Grid is a sized cluster grid: the dimensions for one viewport plus the constants that
// map pixels and depths onto cells.
type Grid struct {
	Dims                Dimensions
	Width, Height       int
	TileSize            int
	MaxLightsPerCluster int
}

// NewGrid sizes a grid for a viewport using the tile, slice and capacity constants of cfg.
//
// Parameters:
//   - cfg: the renderer configuration
//   - width, height: the viewport size in pixels
//
// Returns:
//   - Grid: the sized grid
//   - error: any error from ComputeGridDimensions
func NewGrid(cfg config.Config, width, height int) (Grid, error) {
	d, err := ComputeGridDimensions(width, height, cfg.TileSize, cfg.DepthSlices)
	if err != nil {
		return Grid{}, err
	}
	return Grid{
		Dims:                d,
		Width:               width,
		Height:              height,
		TileSize:            cfg.TileSize,
		MaxLightsPerCluster: cfg.MaxLightsPerCluster,
	}, nil
}

// BufferSize returns the byte size of this grid's ClusterSet buffer.
//
// Returns:
//   - uint64: the buffer size
func (g Grid) BufferSize() uint64 {
	return BufferSize(g.Dims, g.MaxLightsPerCluster)
}

// SliceForDepth maps a positive view-space depth to a depth slice with a logarithmic
// partition: floor(ln(depth/near) / ln(far/near) * slices), clamped to [0, slices-1].
// Depths in front of the near plane land in slice 0.
//
// Parameters:
//   - depth: the positive view-space distance along the view axis
//   - near, far: the camera clip planes
//   - slices: the slice count
//
// Returns:
//   - int: the slice index
func SliceForDepth(depth, near, far float32, slices int) int {
	d := max(depth, near)
	s := math.Floor(math.Log(float64(d/near)) / math.Log(float64(far/near)) * float64(slices))
	return common.Clamp(int(s), 0, slices-1)
}

// SliceBounds returns the view-space depth range covered by slice k.
//
// Parameters:
//   - k: the slice index
//   - near, far: the camera clip planes
//   - slices: the slice count
//
// Returns:
//   - zNear, zFar: the positive depths where the slice begins and ends
func SliceBounds(k int, near, far float32, slices int) (zNear, zFar float32) {
	ratio := float64(far / near)
	zNear = near * float32(math.Pow(ratio, float64(k)/float64(slices)))
	zFar = near * float32(math.Pow(ratio, float64(k+1)/float64(slices)))
	return
}
