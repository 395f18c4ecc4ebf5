package shader

import (
	"strconv"
	"strings"
)

// wgslPrimitiveLayoutMap holds size and alignment of the host-shareable built-in types.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec3<i32>": {12, 16},
	"vec4<i32>": {16, 16},
	"vec2<u32>": {8, 8},
	"vec3<u32>": {12, 16},
	"vec4<u32>": {16, 16},

	// matCxR: C columns, each padded to the alignment of vecR
	"mat2x2<f32>": {16, 8},
	"mat3x3<f32>": {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// roundUpAlign rounds value up to a multiple of alignment, which must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a type against the built-ins and already resolved structs.
// Fixed-size arrays resolve to count × stride; a runtime-sized array resolves to one element
// stride, the smallest useful binding.
//
// Parameters:
//   - typeName: the WGSL type, e.g. "f32", "TileUniforms", "array<vec4<f32>, 4>"
//   - known: resolved struct layouts keyed by name
//
// Returns:
//   - wgslTypeLayout: the size and alignment
//   - bool: false if the type is unknown
func resolveTypeLayout(typeName string, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if l, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return l, true
	}
	if l, ok := known[typeName]; ok {
		return l, true
	}

	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return wgslTypeLayout{}, false
	}
	parts := splitAtTopLevelCommas(strings.TrimSuffix(inner, ">"))
	elem, ok := resolveTypeLayout(strings.TrimSpace(parts[0]), known)
	if !ok {
		return wgslTypeLayout{}, false
	}
	stride := roundUpAlign(elem.align, elem.size)
	if len(parts) < 2 {
		return wgslTypeLayout{stride, elem.align}, true
	}
	count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{count * stride, elem.align}, true
}

// computeStructLayout places each member at the next offset aligned for its type and rounds
// the total up to the largest member alignment. A trailing runtime-sized array ends the
// struct at its aligned offset. @builtin members are not part of any buffer and are skipped.
//
// Parameters:
//   - ps: the struct to lay out
//   - known: resolved struct layouts the members may refer to
//
// Returns:
//   - structLayout: the struct size, alignment and member offsets
//   - bool: false if a member type cannot be resolved yet
func computeStructLayout(ps parsedStruct, known map[string]wgslTypeLayout) (structLayout, bool) {
	var out structLayout
	offset, maxAlign := uint64(0), uint64(1)

	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		if isRuntimeArray(f.typeName) {
			elem, ok := resolveTypeLayout(f.typeName, known)
			if !ok {
				return structLayout{}, false
			}
			maxAlign = max(maxAlign, elem.align)
			offset = roundUpAlign(elem.align, offset)
			out.fields = append(out.fields, UniformField{Name: f.name, TypeName: f.typeName, Offset: offset, Size: elem.size})
			break
		}

		fl, ok := resolveTypeLayout(f.typeName, known)
		if !ok {
			return structLayout{}, false
		}
		offset = roundUpAlign(fl.align, offset)
		out.fields = append(out.fields, UniformField{Name: f.name, TypeName: f.typeName, Offset: offset, Size: fl.size})
		offset += fl.size
		maxAlign = max(maxAlign, fl.align)
	}

	out.size = roundUpAlign(maxAlign, offset)
	out.align = maxAlign
	return out, true
}

// isRuntimeArray reports whether typeName is array<T> without an element count.
func isRuntimeArray(typeName string) bool {
	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok {
		return false
	}
	return len(splitAtTopLevelCommas(strings.TrimSuffix(inner, ">"))) == 1
}

// computeStructLayouts resolves every struct, repeating until structs that embed other
// structs have their dependencies available. Structs that never resolve are left out.
func computeStructLayouts(structs []parsedStruct) map[string]structLayout {
	resolved := make(map[string]structLayout, len(structs))
	known := make(map[string]wgslTypeLayout, len(structs))
	remaining := append([]parsedStruct(nil), structs...)

	for len(remaining) > 0 {
		next := remaining[:0]
		for _, ps := range remaining {
			l, ok := computeStructLayout(ps, known)
			if !ok {
				next = append(next, ps)
				continue
			}
			resolved[ps.name] = l
			known[ps.name] = l.wgslTypeLayout
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}
	return resolved
}
