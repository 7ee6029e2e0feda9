package light

// StoreBuilderOption is a function that configures a Store during construction.
type StoreBuilderOption func(*store)

// WithWorkers sets how many goroutines Advance fans out to.
// Defaults to runtime.NumCPU()-1 (minimum 1).
//
// Parameters:
//   - n: the worker count, ignored when below 1
//
// Returns:
//   - StoreBuilderOption: a function that applies the worker count to a store
func WithWorkers(n int) StoreBuilderOption {
	return func(s *store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSeed overrides the palette seed taken from the configuration.
//
// Parameters:
//   - seed: the math/rand seed used to pick light hues
//
// Returns:
//   - StoreBuilderOption: a function that applies the seed to a store
func WithSeed(seed int64) StoreBuilderOption {
	return func(s *store) {
		s.seed = seed
	}
}
