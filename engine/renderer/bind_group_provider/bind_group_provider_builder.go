package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroupLayout sets a layout the provider shares with a pipeline layout. The provider
// does not release it.
//
// Parameters:
//   - bgl: the bind group layout to use for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group layout for this provider
func WithBindGroupLayout(bgl *wgpu.BindGroupLayout) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroupLayout = bgl
		p.ownsLayout = false
	}
}

// WithTextureView binds a texture view the provider borrows; Release leaves it alone.
//
// Parameters:
//   - index: the binding index of the texture entry
//   - tv: the view to bind
//
// Returns:
//   - BindGroupProviderOption: a function that sets the texture view for the binding
func WithTextureView(index int, tv *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.set(index, func(b *binding) { b.view = tv })
	}
}

// WithSampler binds a sampler the provider borrows; Release leaves it alone.
//
// Parameters:
//   - index: the binding index of the sampler entry
//   - s: the sampler to bind
//
// Returns:
//   - BindGroupProviderOption: a function that sets the sampler for the binding
func WithSampler(index int, s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.set(index, func(b *binding) { b.sampler = s })
	}
}
