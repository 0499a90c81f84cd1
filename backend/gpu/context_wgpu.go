package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vfx"
)

// Mandatory minimum 2D texture dimensions for the two probe paths.
const (
	minTextureSizeFull    = 1024
	minTextureSizeReduced = 256
)

// frameUniformSize is the byte size of the per-frame uniform block: eight
// f32 values (intensity, energy, pulse, scale, flow.xy, time, padding)
// matching the Params struct declared by every fragment rung.
const frameUniformSize = 32

// rampTexture pairs a gradient texture with the view bound each frame.
type rampTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

// wgpuContext is the production Context on gogpu/wgpu's hal layer. It
// owns the instance → adapter → device → queue chain, or borrows a
// shared device from a host gpucontext.DeviceProvider.
type wgpuContext struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// provider, when non-nil, supplies a host-shared device instead of
	// the chain above. Shared devices belong to the host and are never
	// destroyed on Release.
	provider gpucontext.DeviceProvider
	shared   bool

	acquired bool

	// Fixed plumbing shared by every fragment rung: one sampler and one
	// bind group layout (uniform, ramp texture, sampler) feed a single
	// pipeline layout.
	sampler    hal.Sampler
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	nextHandle uint64
	shaders    map[ShaderHandle]hal.ShaderModule
	vertex     ShaderHandle
	textures   map[TextureHandle]rampTexture

	// pipelines are created lazily, one per fragment handle, pairing the
	// vertex stage with that fragment against the fixed layout.
	pipelines map[ShaderHandle]hal.RenderPipeline

	// target is the offscreen color attachment, recreated whenever the
	// presented frame size changes.
	target           hal.Texture
	targetView       hal.TextureView
	targetW, targetH int
}

// NewWGPUContext creates an unacquired wgpu context that will own its
// device chain.
func NewWGPUContext() Context {
	return &wgpuContext{
		shaders:   make(map[ShaderHandle]hal.ShaderModule),
		textures:  make(map[TextureHandle]rampTexture),
		pipelines: make(map[ShaderHandle]hal.RenderPipeline),
	}
}

// NewSharedContext creates a context that borrows the host's GPU device
// through a gpucontext.DeviceProvider instead of creating its own.
func NewSharedContext(provider gpucontext.DeviceProvider) Context {
	return &wgpuContext{
		provider:  provider,
		shaders:   make(map[ShaderHandle]hal.ShaderModule),
		textures:  make(map[TextureHandle]rampTexture),
		pipelines: make(map[ShaderHandle]hal.RenderPipeline),
	}
}

// Acquire probes for a usable context.
func (c *wgpuContext) Acquire(reduced bool) (Capabilities, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.acquired {
		return Capabilities{}, fmt.Errorf("gpu: context already acquired")
	}

	if c.provider != nil {
		return c.acquireShared()
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return Capabilities{}, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return Capabilities{}, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	c.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		c.releaseLocked()
		return Capabilities{}, fmt.Errorf("%w: no adapters enumerated", ErrNoAdapter)
	}

	// The full probe requires a real GPU, preferring discrete over
	// integrated. The reduced probe settles for whatever is first.
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
		if selected == nil && adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
		}
	}
	if selected == nil {
		if !reduced {
			c.releaseLocked()
			return Capabilities{}, fmt.Errorf("%w: no discrete or integrated GPU", ErrNoAdapter)
		}
		selected = &adapters[0]
	}

	minTex := minTextureSizeFull
	if reduced {
		minTex = minTextureSizeReduced
	}
	maxTex := int(selected.Capabilities.Limits.MaxTextureDimension2D)
	if maxTex < minTex {
		c.releaseLocked()
		return Capabilities{}, fmt.Errorf("%w: max texture %d < %d",
			ErrInsufficientLimits, maxTex, minTex)
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		c.releaseLocked()
		return Capabilities{}, fmt.Errorf("gpu: device open failed: %w", err)
	}
	c.device = openDev.Device
	c.queue = openDev.Queue

	if err := c.createFixedResources(); err != nil {
		c.releaseLocked()
		return Capabilities{}, err
	}

	c.acquired = true
	vfx.Logger().Info("gpu adapter selected",
		"name", selected.Info.Name,
		"device_type", selected.Info.DeviceType.String(),
		"max_texture", maxTex)
	return Capabilities{
		AdapterName:    selected.Info.Name,
		MaxTextureSize: maxTex,
		Reduced:        reduced,
	}, nil
}

// acquireShared borrows the host-provided hal device. Caller holds c.mu.
func (c *wgpuContext) acquireShared() (Capabilities, error) {
	// Providers wired to gogpu expose the raw hal handles through
	// HalDevice() any and HalQueue() any.
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}

	var (
		device hal.Device
		queue  hal.Queue
	)
	if hp, ok := c.provider.(halProvider); ok {
		device, _ = hp.HalDevice().(hal.Device)
		queue, _ = hp.HalQueue().(hal.Queue)
	}
	if device == nil || queue == nil {
		device, _ = c.provider.Device().(hal.Device)
		queue, _ = c.provider.Queue().(hal.Queue)
	}
	if device == nil || queue == nil {
		return Capabilities{}, fmt.Errorf("%w: device provider did not expose a hal device", ErrNoAdapter)
	}
	c.device = device
	c.queue = queue
	c.shared = true

	if err := c.createFixedResources(); err != nil {
		c.releaseLocked()
		return Capabilities{}, err
	}

	c.acquired = true
	vfx.Logger().Info("gpu context sharing host device")
	return Capabilities{
		AdapterName:    "host-shared",
		MaxTextureSize: minTextureSizeFull,
	}, nil
}

// createFixedResources builds the sampler, bind group layout, and
// pipeline layout every pipeline shares. Caller holds c.mu with c.device
// set.
func (c *wgpuContext) createFixedResources() error {
	sampler, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "gradient_ramp_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("gpu: create sampler: %w", err)
	}
	c.sampler = sampler

	bindLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "gradient_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	c.bindLayout = bindLayout

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "gradient_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	c.pipeLayout = pipeLayout
	return nil
}

// CompileShader compiles WGSL to SPIR-V through naga and instantiates
// the module on the device.
func (c *wgpuContext) CompileShader(label, source string) (ShaderHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.acquired {
		return InvalidShader, ErrContextReleased
	}

	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return InvalidShader, fmt.Errorf("gpu: shader %q failed to compile: %w", label, err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}

	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return InvalidShader, fmt.Errorf("gpu: shader module %q: %w", label, err)
	}

	c.nextHandle++
	handle := ShaderHandle(c.nextHandle)
	c.shaders[handle] = module
	if label == vertexStageLabel {
		c.vertex = handle
	}

	vfx.Logger().Debug("shader compiled",
		"label", label, "spirv_words", len(words))
	return handle, nil
}

// CreateGradientTexture uploads a width×1 RGBA ramp.
func (c *wgpuContext) CreateGradientTexture(label string, ramp []uint8, width int) (TextureHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.acquired {
		return InvalidTexture, ErrContextReleased
	}
	if width <= 0 || len(ramp) != width*4 {
		return InvalidTexture, fmt.Errorf("gpu: ramp size %d does not match width %d", len(ramp), width)
	}

	size := hal.Extent3D{Width: uint32(width), Height: 1, DepthOrArrayLayers: 1}
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return InvalidTexture, fmt.Errorf("gpu: create ramp texture: %w", err)
	}

	if err := c.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture: tex,
			Origin:  hal.Origin3D{},
			Aspect:  gputypes.TextureAspectAll,
		},
		ramp,
		&hal.ImageDataLayout{BytesPerRow: uint32(width * 4), RowsPerImage: 1},
		&size,
	); err != nil {
		c.device.DestroyTexture(tex)
		return InvalidTexture, fmt.Errorf("gpu: upload ramp: %w", err)
	}

	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label})
	if err != nil {
		c.device.DestroyTexture(tex)
		return InvalidTexture, fmt.Errorf("gpu: ramp texture view: %w", err)
	}

	c.nextHandle++
	handle := TextureHandle(c.nextHandle)
	c.textures[handle] = rampTexture{tex: tex, view: view}

	vfx.Logger().Debug("gradient texture uploaded",
		"label", label, "width", width)
	return handle, nil
}

// DestroyTexture releases a single texture.
func (c *wgpuContext) DestroyTexture(h TextureHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rt, ok := c.textures[h]
	if !ok {
		return
	}
	delete(c.textures, h)
	c.device.DestroyTextureView(rt.view)
	c.device.DestroyTexture(rt.tex)
}

// Present draws one frame: a fullscreen triangle through the selected
// fragment rung into the offscreen color target, with the frame's state
// values in the uniform block.
func (c *wgpuContext) Present(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.acquired {
		return ErrContextReleased
	}
	fragModule, ok := c.shaders[frame.Shader]
	if !ok {
		return fmt.Errorf("gpu: present with invalid shader handle %d", frame.Shader)
	}
	ramp, ok := c.textures[frame.Texture]
	if !ok {
		return fmt.Errorf("gpu: present with invalid texture handle %d", frame.Texture)
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return fmt.Errorf("gpu: present with invalid surface %dx%d", frame.Width, frame.Height)
	}
	if c.vertex == InvalidShader {
		return fmt.Errorf("gpu: present before vertex stage compiled")
	}

	if err := c.ensureTarget(frame.Width, frame.Height); err != nil {
		return err
	}
	pipeline, err := c.pipelineFor(frame.Shader, fragModule)
	if err != nil {
		return err
	}

	uniformBuf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame_uniforms",
		Size:  frameUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: frame uniform buffer: %w", err)
	}
	defer c.device.DestroyBuffer(uniformBuf)
	if err := c.queue.WriteBuffer(uniformBuf, 0, packFrameUniform(frame)); err != nil {
		return fmt.Errorf("gpu: write frame uniforms: %w", err)
	}

	bindGroup, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "frame_bind",
		Layout: c.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: frameUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: ramp.view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: c.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: frame bind group: %w", err)
	}
	defer c.device.DestroyBindGroup(bindGroup)

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: command encoder: %w", err)
	}
	defer encoder.Destroy()
	if err := encoder.BeginEncoding("frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	pass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "gradient_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       c.targetView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{A: 1},
		}},
	})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	if _, err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("gpu: submit frame: %w", err)
	}
	if err := c.device.WaitIdle(); err != nil {
		return fmt.Errorf("gpu: wait for frame: %w", err)
	}

	vfx.Logger().Debug("frame presented",
		"size", fmt.Sprintf("%dx%d", frame.Width, frame.Height),
		"intensity", frame.Intensity)
	return nil
}

// ensureTarget keeps the offscreen color attachment sized to the frame.
// The old target is destroyed before its replacement is created. Caller
// holds c.mu.
func (c *wgpuContext) ensureTarget(width, height int) error {
	if c.target != nil && c.targetW == width && c.targetH == height {
		return nil
	}
	if c.target != nil {
		c.device.DestroyTextureView(c.targetView)
		c.device.DestroyTexture(c.target)
		c.target, c.targetView = nil, nil
	}

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "frame_target",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create frame target: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "frame_target"})
	if err != nil {
		c.device.DestroyTexture(tex)
		return fmt.Errorf("gpu: frame target view: %w", err)
	}
	c.target, c.targetView = tex, view
	c.targetW, c.targetH = width, height
	return nil
}

// pipelineFor returns the render pipeline pairing the vertex stage with
// the given fragment module, creating it on first use. Caller holds c.mu.
func (c *wgpuContext) pipelineFor(handle ShaderHandle, fragModule hal.ShaderModule) (hal.RenderPipeline, error) {
	if p, ok := c.pipelines[handle]; ok {
		return p, nil
	}
	vertModule, ok := c.shaders[c.vertex]
	if !ok {
		return nil, fmt.Errorf("gpu: vertex module missing")
	}

	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "gradient_pipeline",
		Layout: c.pipeLayout,
		Vertex: hal.VertexState{
			Module:     vertModule,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     fragModule,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create render pipeline: %w", err)
	}
	c.pipelines[handle] = pipeline
	return pipeline, nil
}

// packFrameUniform serializes the frame's state values into the uniform
// block layout the shaders declare.
func packFrameUniform(frame Frame) []byte {
	buf := make([]byte, frameUniformSize)
	put := func(i int, v float64) {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	put(0, frame.Intensity)
	put(1, frame.Energy)
	put(2, frame.Pulse)
	put(3, frame.Scale)
	put(4, frame.FlowX)
	put(5, frame.FlowY)
	put(6, frame.Time)
	// Padding word stays zero.
	return buf
}

// Release drops every resource and the device itself.
func (c *wgpuContext) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
}

// releaseLocked releases resources in reverse order of creation.
// Caller holds c.mu. Shared devices belong to the host: their resources
// are destroyed but the device itself is left untouched.
func (c *wgpuContext) releaseLocked() {
	if c.device != nil {
		if err := c.device.WaitIdle(); err != nil {
			vfx.Logger().Warn("error draining device", "error", err)
		}
		for _, p := range c.pipelines {
			c.device.DestroyRenderPipeline(p)
		}
		if c.target != nil {
			c.device.DestroyTextureView(c.targetView)
			c.device.DestroyTexture(c.target)
		}
		for _, rt := range c.textures {
			c.device.DestroyTextureView(rt.view)
			c.device.DestroyTexture(rt.tex)
		}
		for _, m := range c.shaders {
			c.device.DestroyShaderModule(m)
		}
		if c.pipeLayout != nil {
			c.device.DestroyPipelineLayout(c.pipeLayout)
		}
		if c.bindLayout != nil {
			c.device.DestroyBindGroupLayout(c.bindLayout)
		}
		if c.sampler != nil {
			c.device.DestroySampler(c.sampler)
		}
		if !c.shared {
			c.device.Destroy()
		}
	}
	if c.instance != nil {
		c.instance.Destroy()
	}

	clear(c.pipelines)
	clear(c.textures)
	clear(c.shaders)
	c.vertex = InvalidShader
	c.target, c.targetView = nil, nil
	c.targetW, c.targetH = 0, 0
	c.sampler, c.bindLayout, c.pipeLayout = nil, nil, nil
	c.device, c.queue, c.instance = nil, nil, nil
	c.shared = false
	c.acquired = false
}
