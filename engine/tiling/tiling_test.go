package tiling

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeOutline(t *testing.T) {
	tests := []struct {
		shape Shape
		count int
	}{
		{Hexagon, 6},
		{Diamond, 4},
	}
	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			outline := tt.shape.Outline()
			require.Len(t, outline, tt.count)
			assert.Equal(t, tt.count, tt.shape.VertexCount())

			// convex and counter-clockwise: every turn has the same positive sign
			n := len(outline)
			for i := range outline {
				a, b, c := outline[i], outline[(i+1)%n], outline[(i+2)%n]
				e1, e2 := b.Sub(a), c.Sub(b)
				assert.Greater(t, e1.X()*e2.Y()-e1.Y()*e2.X(), float32(0), "turn at vertex %d", (i+1)%n)
			}

			// point symmetric about the origin
			for _, v := range outline {
				found := false
				for _, w := range outline {
					if v.Add(w).Len() < 1e-6 {
						found = true
						break
					}
				}
				assert.True(t, found, "no mirror for %v", v)
			}

			// both shapes share the cos(30°) half-width
			var maxX float32
			for _, v := range outline {
				maxX = max(maxX, v.X())
			}
			assert.InDelta(t, math32.Sqrt(3)/2, maxX, 1e-6)
		})
	}
}

func TestShapeOutlineIsACopy(t *testing.T) {
	a := Hexagon.Outline()
	a[0] = mgl32.Vec2{42, 42}
	assert.NotEqual(t, a[0], Hexagon.Outline()[0])
}

func TestUnknownShape(t *testing.T) {
	s := Shape(7)
	assert.Nil(t, s.Outline())
	assert.Zero(t, s.VertexCount())
	assert.Equal(t, "Shape(7)", s.String())
}

func TestGridValidate(t *testing.T) {
	assert.NoError(t, DefaultGrid.Validate())
	assert.NoError(t, Grid{Rows: 2, Columns: 2}.Validate())
	assert.ErrorIs(t, Grid{Rows: 1, Columns: 12}.Validate(), ErrInvalidGrid)
	assert.ErrorIs(t, Grid{Rows: 12, Columns: 0}.Validate(), ErrInvalidGrid)
}

func TestGridSizes(t *testing.T) {
	rows, cols := DefaultGrid.Size(Hexagon)
	assert.Equal(t, 12, rows)
	assert.Equal(t, 12, cols)

	rows, cols = DefaultGrid.Size(Diamond)
	assert.Equal(t, 11, rows)
	assert.Equal(t, 11, cols)

	assert.Equal(t, 144, DefaultGrid.Count(Hexagon))
	assert.Equal(t, 121, DefaultGrid.Count(Diamond))
}

func TestGridOffsets(t *testing.T) {
	c := HalfWidth
	tests := []struct {
		name  string
		shape Shape
		slot  Slot
		want  mgl32.Vec2
	}{
		{"centre diamond", Diamond, Slot{5, 5}, mgl32.Vec2{0, 0}},
		{"first diamond", Diamond, Slot{0, 0}, mgl32.Vec2{-10 * c, -10}},
		{"last diamond", Diamond, Slot{10, 10}, mgl32.Vec2{10 * c, 10}},
		{"first hexagon", Hexagon, Slot{0, 0}, mgl32.Vec2{-11 * c, -11}},
		{"last hexagon", Hexagon, Slot{11, 11}, mgl32.Vec2{11 * c, 11}},
		{"hexagon next to centre", Hexagon, Slot{6, 6}, mgl32.Vec2{c, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultGrid.Offset(tt.shape, tt.slot)
			assert.InDelta(t, tt.want.X(), got.X(), 1e-5)
			assert.InDelta(t, tt.want.Y(), got.Y(), 1e-5)
			// no hidden state
			assert.Equal(t, got, DefaultGrid.Offset(tt.shape, tt.slot))
		})
	}
}

func TestDiamondTouchesHexagons(t *testing.T) {
	// the diamond at (i, j) sits in the middle of hexagons (i..i+1, j..j+1) and its top vertex
	// coincides with a lower vertex of the hexagon above it
	g := DefaultGrid
	d := g.Offset(Diamond, Slot{3, 4})
	h := g.Offset(Hexagon, Slot{4, 4})
	top := d.Add(Diamond.Outline()[1])
	lowerRight := h.Add(Hexagon.Outline()[5])
	assert.InDelta(t, top.X(), lowerRight.X(), 1e-5)
	assert.InDelta(t, top.Y(), lowerRight.Y(), 1e-5)
}

func TestGridSlotsOrder(t *testing.T) {
	g := Grid{Rows: 3, Columns: 2}
	var got []Slot
	for s := range g.Slots(Hexagon) {
		got = append(got, s)
	}
	assert.Equal(t, []Slot{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 0}, {2, 1}}, got)

	var n int
	for range g.Slots(Diamond) {
		n++
	}
	assert.Equal(t, 2, n)
}

func TestHeightBoundsAndPeriod(t *testing.T) {
	for ti := -50; ti <= 50; ti++ {
		tm := float32(ti) * 0.37
		for _, p := range []float32{0, 0.5, 1.25, 2.49} {
			h := Height(tm, p)
			assert.GreaterOrEqual(t, h, float32(0))
			assert.LessOrEqual(t, h, float32(5))
			assert.InDelta(t, h, Height(tm+2*math32.Pi, p), 1e-3)
		}
	}
	assert.InDelta(t, 2.5, Height(0, 0), 1e-6)
	assert.InDelta(t, 5, Height(math32.Pi/2, 0), 1e-6)
}

type countingSource struct {
	n   int
	val float32
}

func (c *countingSource) Float32() float32 {
	c.n++
	return c.val
}

func TestHeightFieldDrawCount(t *testing.T) {
	src := &countingSource{val: 0.5}
	f := NewHeightField(DefaultGrid, src)
	assert.Equal(t, 144+121, src.n)
	assert.Len(t, f.Phases(Hexagon), 144)
	assert.Len(t, f.Phases(Diamond), 121)
	assert.Equal(t, float32(1.25), f.Phase(Diamond, Slot{10, 10}))
}

func TestHeightFieldPhaseRange(t *testing.T) {
	f := NewHeightField(DefaultGrid, nil)
	for _, shape := range Shapes {
		for _, p := range f.Phases(shape) {
			assert.GreaterOrEqual(t, p, float32(0))
			assert.Less(t, p, MaxPhase)
		}
	}

	// the upper bound stays exclusive even for the largest source value
	edge := NewHeightField(Grid{Rows: 2, Columns: 2}, &countingSource{val: math32.Nextafter(1, 0)})
	for _, p := range edge.Phases(Hexagon) {
		assert.Less(t, p, MaxPhase)
	}
}

func TestHeightFieldSeeded(t *testing.T) {
	a := NewHeightField(DefaultGrid, NewSeededSource(7))
	b := NewHeightField(DefaultGrid, NewSeededSource(7))
	c := NewHeightField(DefaultGrid, NewSeededSource(8))
	assert.Equal(t, a.Phases(Hexagon), b.Phases(Hexagon))
	assert.Equal(t, a.Phases(Diamond), b.Phases(Diamond))
	assert.NotEqual(t, a.Phases(Hexagon), c.Phases(Hexagon))
}

func TestPhasesReturnsCopy(t *testing.T) {
	f := NewHeightField(DefaultGrid, NewSeededSource(1))
	p := f.Phases(Hexagon)
	p[0] = 99
	assert.NotEqual(t, float32(99), f.Phase(Hexagon, Slot{0, 0}))
}

func TestAppendInstances(t *testing.T) {
	f := NewHeightField(DefaultGrid, NewSeededSource(3))
	model := mgl32.HomogRotate3DZ(math32.Pi / 4)

	got := AppendInstances(nil, f, model, 1.5)
	require.Len(t, got, 144+121)

	for i, inst := range got {
		if i < 144 {
			assert.Equal(t, Hexagon, inst.Shape)
		} else {
			assert.Equal(t, Diamond, inst.Shape)
		}
		assert.Equal(t, Height(1.5, f.Phase(inst.Shape, inst.Slot)), inst.Height)
		assert.Equal(t, DefaultGrid.Offset(inst.Shape, inst.Slot), inst.Offset)
	}
	assert.Equal(t, Slot{0, 1}, got[1].Slot)
	assert.Equal(t, Slot{0, 0}, got[144].Slot)

	// the centre diamond sits on the origin, so its model is the scene model itself
	centre := got[144+5*11+5]
	assert.Equal(t, Slot{5, 5}, centre.Slot)
	assert.True(t, centre.Model.ApproxEqualThreshold(model, 1e-6))

	// reusing the backing array keeps results identical
	again := AppendInstances(got[:0], f, model, 1.5)
	assert.Len(t, again, len(got))
}

func TestTileModel(t *testing.T) {
	model := mgl32.HomogRotate3DZ(math32.Pi / 2)
	m := TileModel(model, mgl32.Vec2{1, 0})
	// translate then rotate: (0,0) goes to (1,0) and then to (0,1)
	p := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1e-6)
	assert.InDelta(t, 1, p.Y(), 1e-6)
}
