package pixelpipe

import "github.com/gogpu/gputypes"

// PipelineCacheKey identifies a compiled compute pipeline (and its derived
// bind-group layouts). Two steps that would build an identical pipeline
// layout share a cache entry.
type PipelineCacheKey struct {
	ShaderId         string
	InputTextureCount uint32
	HasParams        bool
	HasSampler       bool
}

// TextureCacheKey identifies a cached 2-D texture. ParallelPath
// disambiguates textures created at the same step index by sibling
// sub-plans of a Parallel step (see the §4.D memory caveat): it is empty
// at the top level and a dot-joined sibling-index path once execution has
// descended into one or more nested Parallel steps.
type TextureCacheKey struct {
	StepIndex    uint32
	Width        uint32
	Height       uint32
	Format       gputypes.TextureFormat
	Usage        gputypes.TextureUsage
	ParallelPath string
}

// BufferCacheKey identifies a cached buffer purely by size and usage —
// buffers carry no identity beyond what they're for.
type BufferCacheKey struct {
	Size  uint64
	Usage gputypes.BufferUsage
}
