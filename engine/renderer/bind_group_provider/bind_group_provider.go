package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// binding is the resource set at one binding index. Exactly one field is normally non-nil.
type binding struct {
	buffer  *wgpu.Buffer
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	label string

	// bindGroup and any buffer in bindings are created by the backend and owned by the provider.
	// Views and samplers are borrowed: the shadow target and the renderer release them.
	bindGroup *wgpu.BindGroup
	bindings  map[int]binding

	// bindGroupLayout is shared with a pipeline layout unless ownsLayout is set.
	bindGroupLayout *wgpu.BindGroupLayout
	ownsLayout      bool

	// vertexBuffer holds extruded wall vertices for geometry providers, which have no bindings.
	vertexBuffer *wgpu.Buffer
	vertexCount  int
}

// BindGroupProvider owns the GPU resources behind one bind group, or behind one vertex buffer.
// Shader programs hold a provider for their uniform arena (group 0) and one per shadow map
// they sample (group 1); geometry buffers hold one for their extruded walls.
//
// Usage pattern:
//  1. The owner creates a provider with its layout and any borrowed views and samplers
//  2. The backend's InitBindGroup creates the missing buffers and the bind group
//  3. Per-frame data is uploaded with BufferWrite values
//  4. The bind group is set on a render pass at draw time
type BindGroupProvider interface {
	// Release frees the bind group, the buffers the backend created and a layout created by
	// SetBindGroupLayout. Borrowed views and samplers are dropped without being released.
	// Safe to call more than once.
	Release()

	// Label returns the debug label, used as a prefix for GPU object labels.
	Label() string

	// BindGroup returns the created bind group, or nil before InitBindGroup.
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout the bind group is created against, or nil if none is known yet.
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at a binding index, or nil if none was created.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the texture view at a binding index, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler at a binding index, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// VertexBuffer returns the GPU vertex buffer, or nil if not initialized.
	VertexBuffer() *wgpu.Buffer

	// VertexCount returns the number of vertices held by the vertex buffer.
	VertexCount() int

	// SetBindGroup stores the bind group, releasing the previous one.
	// Called by the backend's InitBindGroup, again whenever a buffer is reallocated.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout stores a layout created on the provider's behalf; Release frees it.
	// Called by the backend's InitBindGroup when no layout was supplied.
	//
	// Parameters:
	//   - bgl: the created bind group layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores a backend-created buffer for a binding, releasing the buffer it replaces.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetVertexBuffer stores the GPU vertex buffer and its vertex count, releasing any previous buffer.
	//
	// Parameters:
	//   - buf: the created vertex buffer
	//   - count: the number of vertices in buf
	SetVertexBuffer(buf *wgpu.Buffer, count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label, prefixed to the labels of every GPU object the provider owns
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		bindings: make(map[int]binding),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(index int) *wgpu.Buffer {
	return p.bindings[index].buffer
}

func (p *bindGroupProvider) TextureView(index int) *wgpu.TextureView {
	return p.bindings[index].view
}

func (p *bindGroupProvider) Sampler(index int) *wgpu.Sampler {
	return p.bindings[index].sampler
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) VertexCount() int {
	return p.vertexCount
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
	p.ownsLayout = true
}

func (p *bindGroupProvider) SetBuffer(index int, buf *wgpu.Buffer) {
	b := p.bindings[index]
	if b.buffer != nil && b.buffer != buf {
		b.buffer.Release()
	}
	b.buffer = buf
	p.bindings[index] = b
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer, count int) {
	if p.vertexBuffer != nil && p.vertexBuffer != buf {
		p.vertexBuffer.Release()
	}
	p.vertexBuffer = buf
	p.vertexCount = count
}

// set applies fn to the binding at index, creating the entry if needed.
func (p *bindGroupProvider) set(index int, fn func(*binding)) {
	b := p.bindings[index]
	fn(&b)
	p.bindings[index] = b
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for _, b := range p.bindings {
		if b.buffer != nil {
			b.buffer.Release()
		}
	}
	clear(p.bindings)

	if p.ownsLayout && p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
	}
	p.bindGroupLayout = nil
	p.ownsLayout = false

	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	p.vertexCount = 0
}
