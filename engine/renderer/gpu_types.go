package renderer

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUWallVertex is one corner of an extruded wall. Matches the WallVertex struct of the tile
// shaders: xy is the outline position in tile space, z is 0 on the floor and 1 on the top
// edge, scaled by the height uniform in the vertex stage.
// Size: 12 bytes.
type GPUWallVertex struct {
	Position [3]float32 // offset 0: x, y, top flag (12 bytes)
}

// Size returns the size of the GPUWallVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUWallVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUWallVertex into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 12-byte buffer ready for GPU upload.
func (g *GPUWallVertex) Marshal() []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	return buf
}

// verticesPerSegment is the number of wall vertices one outline segment expands into.
const verticesPerSegment = 6

// ExtrudeOutline expands a closed outline into the triangle list of its walls. Segment i runs
// from vertex i to vertex (i+1) mod n and becomes two triangles spanning z=0 to the top edge,
// the surface a line loop sweeps as it is raised from the floor to the tile height.
//
// Parameters:
//   - outline: the closed outline, at least two vertices
//
// Returns:
//   - []GPUWallVertex: 6·len(outline) vertices, or nil for fewer than two vertices
func ExtrudeOutline(outline []mgl32.Vec2) []GPUWallVertex {
	n := len(outline)
	if n < 2 {
		return nil
	}
	out := make([]GPUWallVertex, 0, n*verticesPerSegment)
	for i, a := range outline {
		b := outline[(i+1)%n]
		a0 := GPUWallVertex{Position: [3]float32{a.X(), a.Y(), 0}}
		a1 := GPUWallVertex{Position: [3]float32{a.X(), a.Y(), 1}}
		b0 := GPUWallVertex{Position: [3]float32{b.X(), b.Y(), 0}}
		b1 := GPUWallVertex{Position: [3]float32{b.X(), b.Y(), 1}}
		out = append(out, a0, b0, b1, a0, b1, a1)
	}
	return out
}

// marshalWalls packs wall vertices back to back.
func marshalWalls(walls []GPUWallVertex) []byte {
	buf := make([]byte, 0, len(walls)*12)
	for i := range walls {
		buf = append(buf, walls[i].Marshal()...)
	}
	return buf
}
