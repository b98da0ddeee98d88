package pixelpipe

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixelpipe/internal/gpubackend"
	"github.com/gogpu/pixelpipe/internal/lrucache"
)

//go:embed shaders/post_process.wgsl
var postProcessWGSL string

// Engine owns a device/queue pair, the three resource caches, and the
// precompiled post-process pipeline. It has no package-level global state;
// callers wanting a singleton wrap one externally.
type Engine struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	pipelineCache *lrucache.Cache[PipelineCacheKey, *compiledPipeline]
	textureCache  *lrucache.Cache[TextureCacheKey, hal.Texture]
	bufferCache   *lrucache.Cache[BufferCacheKey, hal.Buffer]

	postProcessPipeline   hal.ComputePipeline
	postProcessBindLayout hal.BindGroupLayout

	deviceWaitTimeout time.Duration

	submitCount atomic.Uint64

	// submitMu serializes flush's create-fence/submit/wait/destroy-fence
	// sequence. handleCpuStep's concurrent downloads and a Parallel step's
	// concurrent branches can each call flush from their own goroutine;
	// without this, two goroutines could interleave submissions onto the
	// same queue and race each other's fence wait.
	submitMu sync.Mutex
}

// compiledPipeline bundles a compute pipeline with the layouts it was
// built from, matching PipelineCacheKey's scope (a cached pipeline
// implicitly carries its own bind-group layouts).
type compiledPipeline struct {
	pipeline          hal.ComputePipeline
	bindGroupLayout0  hal.BindGroupLayout
	bindGroupLayout1  hal.BindGroupLayout // nil if the step has no params
	pipelineLayout    hal.PipelineLayout
}

// EngineOption configures NewEngine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	pipelineCacheSize int
	textureCacheSize  int
	bufferCacheSize   int
	deviceWaitTimeout time.Duration
	device            hal.Device
	queue             hal.Queue
	instance          hal.Instance
	logger            *slog.Logger
}

// WithPipelineCacheSize overrides the default pipeline-cache bound (100).
func WithPipelineCacheSize(n int) EngineOption {
	return func(c *engineConfig) { c.pipelineCacheSize = n }
}

// WithTextureCacheSize overrides the default texture-cache bound (100).
func WithTextureCacheSize(n int) EngineOption {
	return func(c *engineConfig) { c.textureCacheSize = n }
}

// WithBufferCacheSize overrides the default buffer-cache bound (100).
func WithBufferCacheSize(n int) EngineOption {
	return func(c *engineConfig) { c.bufferCacheSize = n }
}

// WithDeviceWaitTimeout overrides how long a submit's fence wait blocks
// before returning ErrDevicePoll. Device polling is meant to wait
// unbounded for completed GPU work; the default is a very large duration
// standing in for "forever" rather than a short ceiling, so callers who
// want an actual deadline opt in explicitly via this option.
func WithDeviceWaitTimeout(d time.Duration) EngineOption {
	return func(c *engineConfig) { c.deviceWaitTimeout = d }
}

// WithLogger sets the package-wide logger as part of engine construction,
// equivalent to calling SetLogger separately. It exists so a caller can
// configure logging in the same functional-options call as cache sizing.
func WithLogger(l *slog.Logger) EngineOption {
	return func(c *engineConfig) { c.logger = l }
}

// WithDevice supplies a pre-acquired device/queue (and optional owning
// instance) instead of letting NewEngine bootstrap its own. Used by tests
// to inject the software mock device from internal/gpubackend/swdevice.
func WithDevice(device hal.Device, queue hal.Queue, instance hal.Instance) EngineOption {
	return func(c *engineConfig) {
		c.device = device
		c.queue = queue
		c.instance = instance
	}
}

// NewEngine acquires a device and queue (unless one was supplied via
// WithDevice) by opening an adapter with the required features and limits,
// compiles the bundled post-process shader, and builds its fixed
// bind-group layout. A device that cannot be opened with those features
// and limits is reported as ErrDeviceUnavailable; a device supplied via
// WithDevice is not checked.
func NewEngine(ctx context.Context, opts ...EngineOption) (*Engine, error) {
	cfg := engineConfig{
		pipelineCacheSize: lrucache.DefaultMaxSize,
		textureCacheSize:  lrucache.DefaultMaxSize,
		bufferCacheSize:   lrucache.DefaultMaxSize,
		deviceWaitTimeout: defaultDeviceWaitTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.logger != nil {
		SetLogger(cfg.logger)
	}

	e := &Engine{
		pipelineCache:     lrucache.New[PipelineCacheKey, *compiledPipeline](cfg.pipelineCacheSize),
		textureCache:      lrucache.New[TextureCacheKey, hal.Texture](cfg.textureCacheSize),
		bufferCache:       lrucache.New[BufferCacheKey, hal.Buffer](cfg.bufferCacheSize),
		deviceWaitTimeout: cfg.deviceWaitTimeout,
	}

	if cfg.device != nil {
		e.device, e.queue, e.instance = cfg.device, cfg.queue, cfg.instance
	} else {
		device, queue, instance, err := gpubackend.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		e.device, e.queue, e.instance = device, queue, instance
	}

	Logger().Info("pixelpipe: device acquired")

	if err := e.buildPostProcessPipeline(); err != nil {
		return nil, err
	}

	return e, nil
}

// Device returns the engine's underlying hal.Device, for callers building
// ShaderModules to run on this engine's plans.
func (e *Engine) Device() hal.Device { return e.device }

// Close destroys the engine's device and, if one is set, its instance.
// This includes a device and instance supplied via WithDevice.
func (e *Engine) Close() {
	if e.device != nil {
		e.device.Destroy()
	}
	if e.instance != nil {
		e.instance.Destroy()
	}
}

// SetMaxPipelineCacheSize resizes the compute-pipeline cache, evicting
// immediately if shrinking.
func (e *Engine) SetMaxPipelineCacheSize(n int) { e.pipelineCache.SetMaxSize(n) }

// MaxPipelineCacheSize returns the compute-pipeline cache bound.
func (e *Engine) MaxPipelineCacheSize() int { return e.pipelineCache.MaxSize() }

// SetMaxTextureCacheSize resizes the texture cache, evicting immediately
// if shrinking.
func (e *Engine) SetMaxTextureCacheSize(n int) { e.textureCache.SetMaxSize(n) }

// MaxTextureCacheSize returns the texture cache bound.
func (e *Engine) MaxTextureCacheSize() int { return e.textureCache.MaxSize() }

// SetMaxBufferCacheSize resizes the buffer cache, evicting immediately if
// shrinking.
func (e *Engine) SetMaxBufferCacheSize(n int) { e.bufferCache.SetMaxSize(n) }

// MaxBufferCacheSize returns the buffer cache bound.
func (e *Engine) MaxBufferCacheSize() int { return e.bufferCache.MaxSize() }

// EngineStats aggregates the three caches' activity plus the number of
// command batches submitted so far, in the same snapshot-struct style as
// a resource manager's usage report.
type EngineStats struct {
	Pipelines lrucache.Stats
	Textures  lrucache.Stats
	Buffers   lrucache.Stats
	Submits   uint64
}

// String returns a human-readable summary of the snapshot, in the same
// style as the cache packages' own Stats types.
func (s EngineStats) String() string {
	return fmt.Sprintf("Engine[pipelines=%d/%d textures=%d/%d buffers=%d/%d submits=%d]",
		s.Pipelines.Len, s.Pipelines.MaxSize,
		s.Textures.Len, s.Textures.MaxSize,
		s.Buffers.Len, s.Buffers.MaxSize,
		s.Submits)
}

// Stats returns a point-in-time snapshot of cache and submission activity.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Pipelines: e.pipelineCache.Stats(),
		Textures:  e.textureCache.Stats(),
		Buffers:   e.bufferCache.Stats(),
		Submits:   e.submitCount.Load(),
	}
}

// buildPostProcessPipeline compiles the bundled shader and builds the
// fixed bind-group layout described in §4.H: binding 0 a sampled
// non-filterable float 2D texture, binding 1 a read-write storage buffer.
func (e *Engine) buildPostProcessPipeline() error {
	mod, err := compileShaderModule(e.device, "pixelpipe_post_process", postProcessWGSL)
	if err != nil {
		return fmt.Errorf("%w: post-process shader: %v", ErrShaderCompilation, err)
	}

	layout, err := e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "pixelpipe_post_process_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type: gputypes.BufferBindingTypeStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("pixelpipe: create post-process bind group layout: %w", err)
	}

	pipelineLayout, err := e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "pixelpipe_post_process_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("pixelpipe: create post-process pipeline layout: %w", err)
	}

	pipeline, err := e.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "pixelpipe_post_process_pipeline",
		Layout: pipelineLayout,
		Compute: hal.ProgrammableStage{
			Module:     mod,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("pixelpipe: create post-process pipeline: %w", err)
	}

	e.postProcessPipeline = pipeline
	e.postProcessBindLayout = layout
	return nil
}
