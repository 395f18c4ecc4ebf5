package tiling

import "math/rand/v2"

// Source supplies uniformly distributed float32 values in [0, 1).
// It is the injection point for phase generation: tests and reproducible frame dumps pass a
// seeded source, everything else gets SystemSource.
type Source interface {
	Float32() float32
}

// systemSource draws from the process-wide generator, which is randomly seeded per run.
type systemSource struct{}

func (systemSource) Float32() float32 {
	return rand.Float32()
}

// SystemSource returns the non-deterministic default Source.
func SystemSource() Source {
	return systemSource{}
}

// NewSeededSource returns a deterministic Source. Two sources built from the same seed produce
// the same sequence.
//
// Parameters:
//   - seed: the PCG seed
//
// Returns:
//   - Source: a seeded, non-concurrent source
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
