package tiling

import "github.com/chewxy/math32"

const (
	// MaxPhase is the exclusive upper bound of a tile's random phase.
	MaxPhase float32 = 2.5

	// Amplitude scales the oscillator; heights span [0, 2·Amplitude].
	Amplitude float32 = 2.5
)

// Height returns the instantaneous height of a tile with phase p at scene time t:
// 2.5·(1 + sin(t + p)). The result lies in [0, 5] and repeats every 2π in t.
func Height(t, p float32) float32 {
	return Amplitude * (1 + math32.Sin(t+p))
}

// HeightField stores one fixed phase per slot of both grids. Phases are drawn once at
// construction and never change afterwards.
type HeightField struct {
	grid   Grid
	phases [len(Shapes)][]float32
}

// NewHeightField draws a phase in [0, MaxPhase) for every hexagon slot and then every diamond
// slot, each in row-major order, from src. A nil src falls back to SystemSource.
//
// Parameters:
//   - grid: the hexagon grid dimensions
//   - src: the random source phases are drawn from
//
// Returns:
//   - *HeightField: the populated field
func NewHeightField(grid Grid, src Source) *HeightField {
	if src == nil {
		src = SystemSource()
	}
	f := &HeightField{grid: grid}
	for _, shape := range Shapes {
		phases := make([]float32, 0, grid.Count(shape))
		for range grid.Slots(shape) {
			p := MaxPhase * src.Float32()
			// float32 rounding can land exactly on the bound
			if p >= MaxPhase {
				p = math32.Nextafter(MaxPhase, 0)
			}
			phases = append(phases, p)
		}
		f.phases[shape] = phases
	}
	return f
}

// Grid returns the grid the field was built for.
func (f *HeightField) Grid() Grid {
	return f.grid
}

// Phase returns the fixed phase of a slot.
//
// Parameters:
//   - shape: the grid the slot belongs to
//   - slot: the slot position
//
// Returns:
//   - float32: the phase in [0, MaxPhase)
func (f *HeightField) Phase(shape Shape, slot Slot) float32 {
	_, cols := f.grid.Size(shape)
	return f.phases[shape][slot.Row*cols+slot.Column]
}

// Phases returns a copy of every phase of a shape's grid in row-major order.
func (f *HeightField) Phases(shape Shape) []float32 {
	out := make([]float32, len(f.phases[shape]))
	copy(out, f.phases[shape])
	return out
}

// HeightAt returns the height of a slot at scene time t.
func (f *HeightField) HeightAt(shape Shape, slot Slot, t float32) float32 {
	return Height(t, f.Phase(shape, slot))
}
