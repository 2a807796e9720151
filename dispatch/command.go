// Package dispatch drives a gfx.Device from several goroutines.
//
// Bind and draw operations are encoded as Command values and pushed onto a
// Queue. A dedicated render goroutine executes them strictly in submission
// order; commands are never reordered, merged or cancelled individually.
// Close is the only cancellation: it drops every command still pending.
//
// # Example
//
//	q := dispatch.New(dev, 64)
//	defer q.Close()
//
//	q.Submit(dispatch.Bind{Context: &ctx})
//	q.Submit(dispatch.Draw{Primitive: gfx.TriangleList, Count: 6})
//	if err := q.Do(context.Background(), dispatch.EndFrame{}); err != nil {
//	    log.Print(err)
//	}
package dispatch

import "github.com/gogpu/gfx"

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdBind        CommandType = iota // Bind a context
	CmdRebind                         // Re-apply the retained context
	CmdDraw                           // Non-indexed draw
	CmdDrawIndexed                    // Indexed draw
	CmdEndFrame                       // Submit or present the frame
	CmdRecover                        // Recover a lost device
	CmdFunc                           // Arbitrary function on the render goroutine
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdBind:        "Bind",
	CmdRebind:      "Rebind",
	CmdDraw:        "Draw",
	CmdDrawIndexed: "DrawIndexed",
	CmdEndFrame:    "EndFrame",
	CmdRecover:     "Recover",
	CmdFunc:        "Func",
}

// String returns the command type name.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType

	exec(dev *gfx.Device) error
}

// Bind binds Context. The queue copies the context at submission, so the
// caller may reuse it immediately.
type Bind struct {
	Context *gfx.Context
	Force   bool
}

// Rebind re-applies the retained context in full.
type Rebind struct{}

// Draw issues a non-indexed draw.
type Draw struct {
	Primitive gfx.Primitive
	First     uint32
	Count     uint32
}

// DrawIndexed issues an indexed draw.
type DrawIndexed struct {
	Primitive  gfx.Primitive
	First      uint32
	Count      uint32
	BaseVertex int32
}

// EndFrame submits or presents the frame.
type EndFrame struct{}

// Recover recovers a lost device.
type Recover struct{}

// Func runs on the render goroutine with exclusive access to the device.
type Func func(dev *gfx.Device) error

func (Bind) Type() CommandType        { return CmdBind }
func (Rebind) Type() CommandType      { return CmdRebind }
func (Draw) Type() CommandType        { return CmdDraw }
func (DrawIndexed) Type() CommandType { return CmdDrawIndexed }
func (EndFrame) Type() CommandType    { return CmdEndFrame }
func (Recover) Type() CommandType     { return CmdRecover }
func (Func) Type() CommandType        { return CmdFunc }

// Exec runs cmd on the calling goroutine, which must own dev.
func Exec(dev *gfx.Device, cmd Command) error {
	return cmd.exec(dev)
}

func (c Bind) exec(dev *gfx.Device) error   { return dev.Bind(c.Context, c.Force) }
func (Rebind) exec(dev *gfx.Device) error   { return dev.Rebind() }
func (c Draw) exec(dev *gfx.Device) error   { return dev.Draw(c.Primitive, c.First, c.Count) }
func (EndFrame) exec(dev *gfx.Device) error { return dev.EndFrame() }
func (Recover) exec(dev *gfx.Device) error  { return dev.Recover() }
func (f Func) exec(dev *gfx.Device) error   { return f(dev) }

func (c DrawIndexed) exec(dev *gfx.Device) error {
	return dev.DrawIndexed(c.Primitive, c.First, c.Count, c.BaseVertex)
}
