package unified

import (
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gfx"
)

// maxStreams bounds the vertex streams a pipeline reads.
const maxStreams = 8

var defaults = gfx.DefaultRenderStates()

// pipelineKey identifies one compiled pipeline. Everything a render
// pipeline bakes in is part of the key; state the pass sets dynamically is
// not.
type pipelineKey struct {
	program  uint64
	topology gputypes.PrimitiveTopology
	strides  [maxStreams]uint32
	colors   [gfx.MaxColorTargets]gputypes.TextureFormat
	depth    gputypes.TextureFormat
	states   gfx.RenderStateBlock
}

// pipelineStates returns the block a pipeline is compiled from. Unspecified
// slots take the pipeline default. The stencil reference and scissor test
// are set on the pass, and render pipelines only fill solid; those slots
// are cleared.
func pipelineStates(b gfx.RenderStateBlock) gfx.RenderStateBlock {
	b.Fill(&defaults)
	b.Unset(gfx.RSStencilRef)
	b.Unset(gfx.RSScissorTest)
	b.Unset(gfx.RSFillMode)
	return b
}

func (k *pipelineKey) value(s gfx.RenderState) gfx.RenderStateValue {
	v, _ := k.states.Get(s)
	return v
}

func (k *pipelineKey) primitive() gputypes.PrimitiveState {
	return gputypes.PrimitiveState{
		Topology:  k.topology,
		FrontFace: frontFaces[k.value(gfx.RSFrontFace)],
		CullMode:  cullModes[k.value(gfx.RSCullMode)],
	}
}

// depthStencil returns nil when the pass has no depth attachment. A
// disabled depth test also disables depth writes.
func (k *pipelineKey) depthStencil() *hal.DepthStencilState {
	if k.depth == gputypes.TextureFormatUndefined {
		return nil
	}
	ds := &hal.DepthStencilState{
		Format:       k.depth,
		DepthCompare: gputypes.CompareFunctionAlways,
	}
	if k.depth.HasDepth() && k.value(gfx.RSDepthTest) == gfx.True {
		ds.DepthCompare = compareFuncs[k.value(gfx.RSDepthFunc)]
		ds.DepthWriteEnabled = k.value(gfx.RSDepthWrite) == gfx.True
	}

	face := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	if k.depth.HasStencil() && k.value(gfx.RSStencilTest) == gfx.True {
		face = hal.StencilFaceState{
			Compare:     compareFuncs[k.value(gfx.RSStencilFunc)],
			FailOp:      stencilOps[k.value(gfx.RSStencilFail)],
			DepthFailOp: stencilOps[k.value(gfx.RSStencilDepthFail)],
			PassOp:      stencilOps[k.value(gfx.RSStencilPass)],
		}
		ds.StencilReadMask, ds.StencilWriteMask = 0xFF, 0xFF
	}
	ds.StencilFront, ds.StencilBack = face, face
	return ds
}

// blendComponent maps one blend equation. Min and max ignore the factors,
// which must then be one.
func blendComponent(src, dst, op gfx.RenderStateValue) gputypes.BlendComponent {
	c := gputypes.BlendComponent{
		SrcFactor: blendFactors[src],
		DstFactor: blendFactors[dst],
		Operation: blendOps[op],
	}
	if op == gfx.BlendOpMin || op == gfx.BlendOpMax {
		c.SrcFactor, c.DstFactor = gputypes.BlendFactorOne, gputypes.BlendFactorOne
	}
	return c
}

func (k *pipelineKey) colorTargets() []gputypes.ColorTargetState {
	var blend *gputypes.BlendState
	if k.value(gfx.RSBlend) == gfx.True {
		blend = &gputypes.BlendState{
			Color: blendComponent(k.value(gfx.RSBlendSrc), k.value(gfx.RSBlendDst), k.value(gfx.RSBlendOp)),
			Alpha: blendComponent(k.value(gfx.RSBlendSrcAlpha), k.value(gfx.RSBlendDstAlpha), k.value(gfx.RSBlendOpAlpha)),
		}
	}
	targets := make([]gputypes.ColorTargetState, 0, gfx.MaxColorTargets)
	for _, f := range k.colors {
		if f == gputypes.TextureFormatUndefined {
			break
		}
		targets = append(targets, gputypes.ColorTargetState{
			Format:    f,
			Blend:     blend,
			WriteMask: gputypes.ColorWriteMaskAll,
		})
	}
	return targets
}

// vertexLayouts builds one buffer layout per stream up to the highest
// stream the program reads. Buffer slot i reads stream i.
func (p *program) vertexLayouts(strides [maxStreams]uint32) []gputypes.VertexBufferLayout {
	var layouts []gputypes.VertexBufferLayout
	for _, attr := range p.attrs {
		for len(layouts) <= attr.Stream {
			layouts = append(layouts, gputypes.VertexBufferLayout{StepMode: gputypes.VertexStepModeVertex})
		}
		l := &layouts[attr.Stream]
		l.ArrayStride = uint64(strides[attr.Stream])
		l.Attributes = append(l.Attributes, gputypes.VertexAttribute{
			Format:         attr.Format,
			Offset:         attr.Offset,
			ShaderLocation: attr.Location,
		})
	}
	return layouts
}

// pipelineKey captures the state the next draw with prim needs.
func (a *Adapter) pipelineKey(prim gfx.Primitive) pipelineKey {
	k := pipelineKey{
		program:  a.program.serial,
		topology: topologies[prim],
		colors:   a.passTarget.formats,
		depth:    a.passTarget.depthFormat,
		states:   pipelineStates(a.render),
	}
	for _, attr := range a.program.attrs {
		if attr.Stream < len(a.streams) {
			k.strides[attr.Stream] = a.streams[attr.Stream].stride
		}
	}
	return k
}

func (a *Adapter) buildPipeline(k pipelineKey, p *program) (hal.RenderPipeline, error) {
	desc := &hal.RenderPipelineDescriptor{
		Label:  p.name + "_pipeline",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.vertex,
			EntryPoint: p.vertexEntry,
			Buffers:    p.vertexLayouts(k.strides),
		},
		Primitive:    k.primitive(),
		DepthStencil: k.depthStencil(),
		Multisample: gputypes.MultisampleState{
			Count: a.samples,
			Mask:  0xFFFFFFFF,
		},
	}
	if k.value(gfx.RSMultisample) == gfx.False {
		desc.Multisample.Mask = 1
	}
	if p.fragment != nil {
		desc.Fragment = &hal.FragmentState{
			Module:     p.fragment,
			EntryPoint: p.fragmentEntry,
			Targets:    k.colorTargets(),
		}
	}

	pipe, err := a.dev.CreateRenderPipeline(desc)
	if err != nil {
		return nil, halErr("CreateRenderPipeline", err)
	}
	p.keys[k] = struct{}{}
	gfx.Logger().Debug("unified: pipeline created",
		slog.String("program", p.name),
		slog.String("topology", k.topology.String()),
		slog.Bool("depth", desc.DepthStencil != nil))
	return pipe, nil
}
