// Package input implements the NES controller ports.
package input

import "github.com/golang/glog"

// Button is one bit of the controller mask. Serialization through 0x4016
// reads out LSB-first in this order.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller is one 8-bit shift register with a strobe latch. While strobe
// is high the register continuously reloads from the live button mask; on
// the falling edge it freezes and each read shifts out the next bit.
type Controller struct {
	buttons uint8 // live mask, written by the UI thread

	strobe  bool
	latched uint8 // frozen snapshot after strobe fall
	index   uint8 // next bit to read
}

// New creates a controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// SetButton updates one button in the live mask.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons replaces the whole live mask at once.
func (c *Controller) SetButtons(mask uint8) {
	c.buttons = mask
}

// IsPressed reports whether the button is held in the live mask.
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles the strobe register. Only bit 0 matters.
func (c *Controller) Write(value uint8) {
	wasStrobe := c.strobe
	c.strobe = value&1 != 0

	if wasStrobe && !c.strobe {
		// Falling edge: freeze the shift register
		c.latched = c.buttons
		c.index = 0
	}
}

// Read shifts out the next button bit. With strobe high it always returns
// the live A state; after all eight bits have been read it returns 1, as
// the hardware does.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.buttons & 1
	}
	if c.index < 8 {
		bit := (c.latched >> c.index) & 1
		c.index++
		return bit
	}
	return 1
}

// Reset clears all controller state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.latched = 0
	c.strobe = false
	c.index = 0
}

// Ports is the pair of controllers wired to 0x4016/0x4017.
type Ports struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewPorts creates both controller ports.
func NewPorts() *Ports {
	return &Ports{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset clears both controllers.
func (p *Ports) Reset() {
	p.Controller1.Reset()
	p.Controller2.Reset()
}

// SetButtons updates the live mask for a port (0 or 1).
func (p *Ports) SetButtons(port int, mask uint8) {
	switch port {
	case 0:
		p.Controller1.SetButtons(mask)
	case 1:
		p.Controller2.SetButtons(mask)
	default:
		glog.Warningf("ignoring buttons for unknown controller port %d", port)
	}
}

// Read serves CPU reads of the controller ports.
func (p *Ports) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return p.Controller1.Read()
	case 0x4017:
		// Bit 6 rides along on port 2 reads (open bus on the real deck).
		return p.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write serves CPU writes. The strobe line feeds both controllers.
func (p *Ports) Write(address uint16, value uint8) {
	if address == 0x4016 {
		p.Controller1.Write(value)
		p.Controller2.Write(value)
	}
}
