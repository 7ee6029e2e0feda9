package cluster

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

const (
	// StructKeyClusterRecord is the annotation key of the ClusterRecord struct.
	StructKeyClusterRecord shader.StructKey = "cluster_record"

	// StructKeyClusterSet is the annotation key of the ClusterSet struct.
	StructKeyClusterSet shader.StructKey = "cluster_set"
)

// GPUClusterRecordSource is the WGSL definition of a single cluster's light list. Its index
// array length is the ${maxLightsPerCluster} constant.
//
//go:embed assets/cluster_record.wgsl
var GPUClusterRecordSource string

// GPUClusterSetSource is the WGSL definition of the ClusterSet storage buffer.
//
//go:embed assets/cluster_set.wgsl
var GPUClusterSetSource string

// GPUClusteringSource is the light clustering compute kernel.
//
//go:embed assets/clustering.wgsl
var GPUClusteringSource string

func init() {
	shader.RegisterStruct(StructKeyClusterRecord, "ClusterRecord", GPUClusterRecordSource)
	shader.RegisterStruct(StructKeyClusterSet, "ClusterSet", GPUClusterSetSource)
}
