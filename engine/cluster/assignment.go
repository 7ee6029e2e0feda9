package cluster

import (
	"encoding/binary"
	"slices"
	"sync/atomic"
)

// Record is one cluster's light list. Appends are safe from concurrent goroutines; once the
// record is full further appends are dropped.
type Record struct {
	count   atomic.Uint32
	indices []uint32
}

// Append adds a light index if the record has room.
//
// Parameters:
//   - idx: the light index
//
// Returns:
//   - bool: false when the record was already full and idx was dropped
func (r *Record) Append(idx uint32) bool {
	capacity := uint32(len(r.indices))
	for {
		n := r.count.Load()
		if n >= capacity {
			return false
		}
		if r.count.CompareAndSwap(n, n+1) {
			r.indices[n] = idx
			return true
		}
	}
}

// Count returns the number of stored indices.
//
// Returns:
//   - int: the count, never above the record capacity
func (r *Record) Count() int {
	return int(r.count.Load())
}

// Indices returns the stored light indices in append order. The slice aliases the record
// and must not be modified or read while appends are in flight.
//
// Returns:
//   - []uint32: the first Count() indices
func (r *Record) Indices() []uint32 {
	return r.indices[:r.Count()]
}

func (r *Record) reset() {
	r.count.Store(0)
}

// Assignment is the result of clustering one frame: a record per cluster of the grid.
type Assignment struct {
	grid    Grid
	records []Record
	backing []uint32
}

// NewAssignment allocates empty records for every cluster of g.
//
// Parameters:
//   - g: the grid
//
// Returns:
//   - *Assignment: the empty assignment
func NewAssignment(g Grid) *Assignment {
	n := g.Dims.Count()
	a := &Assignment{
		grid:    g,
		records: make([]Record, n),
		backing: make([]uint32, n*g.MaxLightsPerCluster),
	}
	for i := range a.records {
		a.records[i].indices = a.backing[i*g.MaxLightsPerCluster : (i+1)*g.MaxLightsPerCluster]
	}
	return a
}

// Grid returns the grid the assignment was built for.
//
// Returns:
//   - Grid: the grid
func (a *Assignment) Grid() Grid {
	return a.grid
}

// Record returns cluster i's record for appending.
//
// Parameters:
//   - i: the flat cluster index
//
// Returns:
//   - *Record: the record
func (a *Assignment) Record(i int) *Record {
	return &a.records[i]
}

// Count returns the number of lights assigned to cluster i.
//
// Parameters:
//   - i: the flat cluster index
//
// Returns:
//   - int: the light count
func (a *Assignment) Count(i int) int {
	return a.records[i].Count()
}

// Lights returns a sorted copy of cluster i's light indices. Append order depends on
// scheduling, so callers comparing sets should use this rather than the raw buffer.
//
// Parameters:
//   - i: the flat cluster index
//
// Returns:
//   - []uint32: the sorted light indices
func (a *Assignment) Lights(i int) []uint32 {
	r := &a.records[i]
	out := slices.Clone(r.indices[:r.Count()])
	slices.Sort(out)
	return out
}

// MaxOccupancy returns the largest per-cluster light count.
//
// Returns:
//   - int: the highest count over all clusters
func (a *Assignment) MaxOccupancy() int {
	m := 0
	for i := range a.records {
		m = max(m, a.records[i].Count())
	}
	return m
}

// Reset empties every record so the assignment can be reused for the next frame.
func (a *Assignment) Reset() {
	for i := range a.records {
		a.records[i].reset()
	}
}

// Marshal packs the assignment in the ClusterSet buffer layout read by the lighting kernel:
// a 16-byte header of dimensions followed by one record per cluster (count, three pad
// words, MaxLightsPerCluster indices). Index slots past the count are zero.
//
// Returns:
//   - []byte: exactly Grid().BufferSize() bytes
func (a *Assignment) Marshal() []byte {
	buf := make([]byte, a.grid.BufferSize())
	copy(buf, MarshalHeader(a.grid.Dims))

	recSize := int(RecordSize(a.grid.MaxLightsPerCluster))
	off := headerSize
	for i := range a.records {
		r := &a.records[i]
		n := r.Count()
		binary.LittleEndian.PutUint32(buf[off:], uint32(n))
		for j, idx := range r.indices[:n] {
			binary.LittleEndian.PutUint32(buf[off+16+j*4:], idx)
		}
		off += recSize
	}
	return buf
}

// MarshalHeader packs only the 16-byte dimensions header.
//
// Parameters:
//   - d: the grid dimensions
//
// Returns:
//   - []byte: the header bytes
func MarshalHeader(d Dimensions) []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(d.X))
	binary.LittleEndian.PutUint32(buf[4:], uint32(d.Y))
	binary.LittleEndian.PutUint32(buf[8:], uint32(d.Z))
	return buf
}
