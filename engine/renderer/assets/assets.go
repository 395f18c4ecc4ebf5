// Package assets bundles the WGSL sources of the tile programs.
package assets

import "embed"

// FS holds every *.wgsl file of this directory, addressed by file name.
//
//go:embed *.wgsl
var FS embed.FS
