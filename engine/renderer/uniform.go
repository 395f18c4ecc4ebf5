package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnknownUniform is returned by SetUniform for a name the program does not declare.
	ErrUnknownUniform = errors.New("renderer: unknown uniform")

	// ErrUniformType is returned by SetUniform when the value does not fit the declared type.
	ErrUniformType = errors.New("renderer: uniform type mismatch")
)

// uniformSlotAlignment is the WebGPU default minUniformBufferOffsetAlignment.
const uniformSlotAlignment = 256

// encodeUniform writes value into dst at the field's offset in the little-endian layout WGSL
// uniform buffers use. mgl32 matrices are column-major, like WGSL.
//
// Parameters:
//   - dst: the staging bytes of the whole uniform block
//   - field: the reflected field to write
//   - value: float32, int32, int, mgl32.Vec2, mgl32.Vec3, mgl32.Vec4 or mgl32.Mat4
//
// Returns:
//   - error: ErrUniformType if value does not match the field's WGSL type
func encodeUniform(dst []byte, field shader.UniformField, value any) error {
	var floats []float32
	switch v := value.(type) {
	case float32:
		if !isType(field.TypeName, "f32") {
			return typeError(field, value)
		}
		floats = []float32{v}
	case int32:
		return encodeInt(dst, field, int64(v), value)
	case int:
		return encodeInt(dst, field, int64(v), value)
	case mgl32.Vec2:
		if !isType(field.TypeName, "vec2<f32>", "vec2f") {
			return typeError(field, value)
		}
		floats = v[:]
	case mgl32.Vec3:
		if !isType(field.TypeName, "vec3<f32>", "vec3f") {
			return typeError(field, value)
		}
		floats = v[:]
	case mgl32.Vec4:
		if !isType(field.TypeName, "vec4<f32>", "vec4f") {
			return typeError(field, value)
		}
		floats = v[:]
	case mgl32.Mat4:
		if !isType(field.TypeName, "mat4x4<f32>", "mat4x4f") {
			return typeError(field, value)
		}
		floats = v[:]
	default:
		return typeError(field, value)
	}

	if field.Offset+uint64(len(floats))*4 > uint64(len(dst)) {
		return fmt.Errorf("uniform %s overruns its block", field.Name)
	}
	for i, f := range floats {
		binary.LittleEndian.PutUint32(dst[field.Offset+uint64(i)*4:], math.Float32bits(f))
	}
	return nil
}

func encodeInt(dst []byte, field shader.UniformField, v int64, value any) error {
	switch {
	case isType(field.TypeName, "i32"):
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("%w: %d overflows %s", ErrUniformType, v, field.Name)
		}
	case isType(field.TypeName, "u32"):
		if v < 0 || v > math.MaxUint32 {
			return fmt.Errorf("%w: %d overflows %s", ErrUniformType, v, field.Name)
		}
	default:
		return typeError(field, value)
	}
	if field.Offset+4 > uint64(len(dst)) {
		return fmt.Errorf("uniform %s overruns its block", field.Name)
	}
	binary.LittleEndian.PutUint32(dst[field.Offset:], uint32(v))
	return nil
}

func isType(typeName string, names ...string) bool {
	for _, n := range names {
		if typeName == n {
			return true
		}
	}
	return false
}

func typeError(field shader.UniformField, value any) error {
	return fmt.Errorf("%w: cannot write %T to %s %s", ErrUniformType, value, field.TypeName, field.Name)
}

// uniformArena collects one snapshot of a program's uniform block per draw. Slots are aligned
// so each can be selected with a dynamic offset.
type uniformArena struct {
	data []byte
}

// push appends a copy of block in the next aligned slot and returns the slot's offset.
func (a *uniformArena) push(block []byte) uint32 {
	offset := (len(a.data) + uniformSlotAlignment - 1) &^ (uniformSlotAlignment - 1)
	if offset > len(a.data) {
		a.data = append(a.data, make([]byte, offset-len(a.data))...)
	}
	a.data = append(a.data, block...)
	return uint32(offset)
}

func (a *uniformArena) reset() {
	a.data = a.data[:0]
}

// capacityFor returns the buffer size to allocate for n bytes: the next power of two,
// at least one slot.
func capacityFor(n int) uint64 {
	c := uint64(uniformSlotAlignment)
	for c < uint64(n) {
		c <<= 1
	}
	return c
}
