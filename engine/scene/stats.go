package scene

import "github.com/Carmen-Shannon/oxy-deferred/engine/cluster"

// Stats describes the most recent frame.
type Stats struct {
	// Frame is the number of frames submitted so far.
	Frame uint64

	// NumLights is the active light count.
	NumLights int

	// Grid is the cluster grid size for the current viewport.
	Grid cluster.Dimensions

	// Clusters is Grid.Count().
	Clusters int

	// Objects is the number of drawables in the scene and Drawn how many survived culling.
	Objects int
	Drawn   int

	// MaxOccupancy and OccupiedClusters come from the last CPU clustering sample. They are
	// zero until the first sample is taken.
	MaxOccupancy     int
	OccupiedClusters int
	SampledFrame     uint64
}

// occupancy summarizes an assignment.
func occupancy(a *cluster.Assignment) (maxCount, occupied int) {
	for i := range a.Grid().Dims.Count() {
		if a.Count(i) > 0 {
			occupied++
		}
	}
	return a.MaxOccupancy(), occupied
}
