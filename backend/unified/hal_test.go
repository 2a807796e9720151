package unified

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// recorder collects the calls made through the wrapped noop device.
type recorder struct {
	calls      []string
	pipelines  []*hal.RenderPipelineDescriptor
	bindGroups int
	destroyed  map[string]int
	writes     []bufferWrite
	submitErr  error
}

type bufferWrite struct {
	offset uint64
	data   []byte
}

func (r *recorder) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (r *recorder) has(call string) bool {
	return slices.Contains(r.calls, call)
}

func (r *recorder) reset() {
	r.calls = nil
}

type recordingDevice struct {
	hal.Device
	rec *recorder
}

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.rec.pipelines = append(d.rec.pipelines, desc)
	return d.Device.CreateRenderPipeline(desc)
}

func (d *recordingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.rec.destroyed["pipeline"]++
	d.Device.DestroyRenderPipeline(p)
}

func (d *recordingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.rec.bindGroups++
	return d.Device.CreateBindGroup(desc)
}

func (d *recordingDevice) DestroyBuffer(b hal.Buffer) {
	d.rec.destroyed["buffer"]++
	d.Device.DestroyBuffer(b)
}

func (d *recordingDevice) DestroyTexture(t hal.Texture) {
	d.rec.destroyed["texture"]++
	d.Device.DestroyTexture(t)
}

func (d *recordingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &recordingEncoder{CommandEncoder: enc, rec: d.rec}, nil
}

type recordingEncoder struct {
	hal.CommandEncoder
	rec *recorder
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.rec.record("BeginRenderPass(%d)", len(desc.ColorAttachments))
	return &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), rec: e.rec}
}

type recordingPass struct {
	hal.RenderPassEncoder
	rec *recorder
}

func (p *recordingPass) End() {
	p.rec.record("End")
	p.RenderPassEncoder.End()
}

func (p *recordingPass) SetPipeline(pipe hal.RenderPipeline) {
	p.rec.record("SetPipeline")
	p.RenderPassEncoder.SetPipeline(pipe)
}

func (p *recordingPass) SetBindGroup(index uint32, g hal.BindGroup, offsets []uint32) {
	p.rec.record("SetBindGroup(%d)", index)
	p.RenderPassEncoder.SetBindGroup(index, g, offsets)
}

func (p *recordingPass) SetVertexBuffer(slot uint32, b hal.Buffer, offset uint64) {
	p.rec.record("SetVertexBuffer(%d,%d)", slot, offset)
	p.RenderPassEncoder.SetVertexBuffer(slot, b, offset)
}

func (p *recordingPass) SetIndexBuffer(b hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	p.rec.record("SetIndexBuffer(%v)", format)
	p.RenderPassEncoder.SetIndexBuffer(b, format, offset)
}

func (p *recordingPass) SetViewport(x, y, w, h, minDepth, maxDepth float32) {
	p.rec.record("SetViewport(%g,%g,%g,%g)", x, y, w, h)
	p.RenderPassEncoder.SetViewport(x, y, w, h, minDepth, maxDepth)
}

func (p *recordingPass) SetScissorRect(x, y, w, h uint32) {
	p.rec.record("SetScissorRect(%d,%d,%d,%d)", x, y, w, h)
	p.RenderPassEncoder.SetScissorRect(x, y, w, h)
}

func (p *recordingPass) SetStencilReference(ref uint32) {
	p.rec.record("SetStencilReference(%d)", ref)
	p.RenderPassEncoder.SetStencilReference(ref)
}

func (p *recordingPass) Draw(vertices, instances, first, firstInstance uint32) {
	p.rec.record("Draw(%d,%d)", first, vertices)
	p.RenderPassEncoder.Draw(vertices, instances, first, firstInstance)
}

func (p *recordingPass) DrawIndexed(indices, instances, first uint32, baseVertex int32, firstInstance uint32) {
	p.rec.record("DrawIndexed(%d,%d,%d)", first, indices, baseVertex)
	p.RenderPassEncoder.DrawIndexed(indices, instances, first, baseVertex, firstInstance)
}

type recordingQueue struct {
	hal.Queue
	rec *recorder
}

func (q *recordingQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	if q.rec.submitErr != nil {
		return 0, q.rec.submitErr
	}
	q.rec.record("Submit")
	return q.Queue.Submit(cmds)
}

func (q *recordingQueue) WriteBuffer(b hal.Buffer, offset uint64, data []byte) error {
	q.rec.writes = append(q.rec.writes, bufferWrite{offset: offset, data: slices.Clone(data)})
	q.rec.record("WriteBuffer(%d)", offset)
	return q.Queue.WriteBuffer(b, offset, data)
}

// newNoopConfig opens a noop HAL device wrapped in recorders, with an
// 800x600 back buffer.
func newNoopConfig(t *testing.T) (*Config, *recorder) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})

	back, err := openDev.Device.CreateTexture(&hal.TextureDescriptor{
		Label:         "back_buffer",
		Size:          hal.Extent3D{Width: 800, Height: 600, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	view, err := openDev.Device.CreateTextureView(back, &hal.TextureViewDescriptor{})
	if err != nil {
		t.Fatalf("CreateTextureView failed: %v", err)
	}

	rec := &recorder{destroyed: make(map[string]int)}
	return &Config{
		Device:           &recordingDevice{Device: openDev.Device, rec: rec},
		Queue:            &recordingQueue{Queue: openDev.Queue, rec: rec},
		BackBuffer:       view,
		BackBufferFormat: gputypes.TextureFormatBGRA8Unorm,
		Width:            800,
		Height:           600,
	}, rec
}
