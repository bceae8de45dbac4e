//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/lumenforge/salon/gpucore"
)

// recordedCommand is one entry in an encoder's command list. Exactly one
// of the fields is set.
type recordedCommand struct {
	dispatch   *gpucore.ComputePass
	blit       *blitCommand
	copyBuffer *copyBufferCommand
	copyTex    *copyTextureCommand
}

type blitCommand struct {
	pass   gpucore.RenderPass
	target gpucore.TextureViewID
}

type copyBufferCommand struct {
	src, dst gpucore.BufferID
	size     uint64
}

type copyTextureCommand struct {
	src, dst gpucore.TextureID
}

// encoder implements gpucore.Encoder. Recording is append-only; nothing
// executes until Submit, matching §5's "single command encoder, one
// submit" ordering rule.
type encoder struct {
	device *Device
	label  string
	cmds   []recordedCommand
}

var _ gpucore.Encoder = (*encoder)(nil)

func (e *encoder) Dispatch(pass gpucore.ComputePass) {
	p := pass
	e.cmds = append(e.cmds, recordedCommand{dispatch: &p})
}

func (e *encoder) Blit(pass gpucore.RenderPass, target gpucore.TextureViewID) {
	e.cmds = append(e.cmds, recordedCommand{blit: &blitCommand{pass: pass, target: target}})
}

func (e *encoder) CopyBufferToBuffer(src, dst gpucore.BufferID, size uint64) {
	e.cmds = append(e.cmds, recordedCommand{copyBuffer: &copyBufferCommand{src: src, dst: dst, size: size}})
}

func (e *encoder) CopyTextureToTexture(src, dst gpucore.TextureID) {
	e.cmds = append(e.cmds, recordedCommand{copyTex: &copyTextureCommand{src: src, dst: dst}})
}

// Submit executes every recorded command, in order, against the device.
// This is where the software device actually "runs" a shader: it looks up
// the KernelFunc registered at pipeline-creation time and calls it with
// the device itself as the Resources resolver.
func (e *encoder) Submit() {
	for _, c := range e.cmds {
		switch {
		case c.dispatch != nil:
			e.runDispatch(*c.dispatch)
		case c.blit != nil:
			e.runBlit(*c.blit)
		case c.copyBuffer != nil:
			e.device.CopyBufferToBuffer(c.copyBuffer.src, c.copyBuffer.dst, c.copyBuffer.size)
		case c.copyTex != nil:
			e.device.CopyTextureToTexture(c.copyTex.src, c.copyTex.dst)
		}
	}
	e.cmds = nil
	slogger().Debug("gpu: encoder submitted", "label", e.label)
}

func (e *encoder) runDispatch(pass gpucore.ComputePass) {
	if pass.Pipeline == 0 {
		panic("gpu: dispatch with nil pipeline")
	}
	if pass.BindGroup == 0 {
		panic("gpu: dispatch with nil bind group")
	}
	if pass.Workgroup.X == 0 || pass.Workgroup.Y == 0 {
		panic(fmt.Sprintf("gpu: dispatch with zero workgroup count %+v", pass.Workgroup))
	}
	entry, ok := e.device.computePipeline(pass.Pipeline)
	if !ok {
		panic("gpu: unknown compute pipeline")
	}
	bind, ok := e.device.bindGroup(pass.BindGroup)
	if !ok {
		panic("gpu: unknown bind group")
	}
	entry.kernel(e.device, bind, pass.Workgroup)
}

func (e *encoder) runBlit(b blitCommand) {
	if b.pass.Pipeline == 0 || b.pass.BindGroup == 0 {
		panic("gpu: blit with nil pipeline or bind group")
	}
	entry, ok := e.device.renderPipeline(b.pass.Pipeline)
	if !ok {
		panic("gpu: unknown render pipeline")
	}
	bind, ok := e.device.bindGroup(b.pass.BindGroup)
	if !ok {
		panic("gpu: unknown bind group")
	}
	target := e.device.Texture(b.target)
	wg := gpucore.WorkgroupCount{X: 1, Y: 1, Z: 1}
	if target != nil {
		wg = gpucore.WorkgroupCount{X: uint32(target.Width()), Y: uint32(target.Height()), Z: 1}
	}
	entry.kernel(e.device, bind, wg)
}
