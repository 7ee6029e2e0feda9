package cluster

// ClustererBuilderOption is a function that configures a Clusterer during construction.
type ClustererBuilderOption func(*clusterer)

// WithWorkers sets the size of the clusterer's worker pool.
// Defaults to runtime.NumCPU()-1 (minimum 1).
//
// Parameters:
//   - n: the worker count, ignored when below 1
//
// Returns:
//   - ClustererBuilderOption: a function that applies the worker count
func WithWorkers(n int) ClustererBuilderOption {
	return func(c *clusterer) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLightBatch sets how many lights a single task tests against its depth slice.
// Defaults to the clustering workgroup size.
//
// Parameters:
//   - n: the batch size, ignored when below 1
//
// Returns:
//   - ClustererBuilderOption: a function that applies the batch size
func WithLightBatch(n int) ClustererBuilderOption {
	return func(c *clusterer) {
		if n > 0 {
			c.lightBatch = n
		}
	}
}
