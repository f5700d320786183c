// Package bus wires the NES components together and schedules frames.
package bus

import (
	"github.com/golang/glog"

	"famigo/internal/cartridge"
	"famigo/internal/cpu"
	"famigo/internal/input"
	"famigo/internal/memory"
	"famigo/internal/ppu"
)

// CyclesPerFrame is the NTSC CPU cycle budget per video frame
// (89342 PPU dots / 3, rounded up).
const CyclesPerFrame = 29781

// Bus owns the machine: CPU, PPU, memory maps, controllers, and cartridge.
// It drives the fixed 1:3 CPU:PPU clock ratio and exposes the frame-level
// entry points the presenter uses.
type Bus struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	Memory *memory.Memory
	Input  *input.Ports

	cart *cartridge.Cartridge

	// Cycles consumed toward the current frame; the excess of the last
	// instruction carries into the next frame.
	frameCycles uint64

	// Cumulative CPU cycles including DMA stalls, for DMA parity.
	cpuCycles uint64

	// Stall cycles owed to an OAM DMA transfer.
	dmaStall uint64
}

// New builds the machine without a cartridge. LoadCartridge must be called
// before running frames.
func New() *Bus {
	b := &Bus{
		PPU:   ppu.New(),
		Input: input.NewPorts(),
	}
	b.Memory = memory.New(b.PPU, b.Input, nil)
	b.CPU = cpu.New(b.Memory)

	b.PPU.SetNMICallback(b.CPU.TriggerNMI)
	b.Memory.SetDMACallback(b.triggerOAMDMA)

	return b
}

// LoadCartridge wires a parsed cartridge into both memory maps and resets
// the machine.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	b.Memory.SetCartridge(cart)
	b.PPU.SetMemory(memory.NewPPUMemory(cart, mirrorMode(cart.MirrorMode())))

	glog.V(1).Infof("cartridge wired: mapper=%d mirror=%d", cart.MapperID(), cart.MirrorMode())

	b.Reset()
}

// Reset restores the whole machine to power-on state and re-reads the reset
// vector.
func (b *Bus) Reset() {
	b.Input.Reset()
	b.PPU.Reset()
	b.CPU.Reset()

	b.frameCycles = 0
	b.dmaStall = 0
	b.cpuCycles = b.CPU.Cycles()
}

// Step runs one CPU step (or drains a pending DMA stall) and ticks the PPU
// three times per CPU cycle. Returns the CPU cycles consumed.
func (b *Bus) Step() uint64 {
	var cycles uint64
	if b.dmaStall > 0 {
		cycles = b.dmaStall
		b.dmaStall = 0
	} else {
		cycles = b.CPU.Step()
	}

	for i := uint64(0); i < cycles*3; i++ {
		b.PPU.Tick()
	}
	b.cpuCycles += cycles

	return cycles
}

// RunFrame advances one video frame and returns the completed 256x240
// indexed-color framebuffer. The cycle budget's remainder is preserved so
// long instructions straddling the frame boundary stay accounted for.
func (b *Bus) RunFrame() []uint8 {
	for b.frameCycles < CyclesPerFrame {
		b.frameCycles += b.Step()
	}
	b.frameCycles -= CyclesPerFrame

	return b.PPU.Framebuffer()
}

// SetButtons updates the live button mask for a controller port (0 or 1).
// Mask layout: A=0x01, B=0x02, Select=0x04, Start=0x08, Up=0x10, Down=0x20,
// Left=0x40, Right=0x80.
func (b *Bus) SetButtons(port int, mask uint8) {
	b.Input.SetButtons(port, mask)
}

// FrameCount returns the number of completed frames.
func (b *Bus) FrameCount() uint64 {
	return b.PPU.Frame()
}

// CPUCycles returns cumulative CPU cycles including DMA stalls.
func (b *Bus) CPUCycles() uint64 {
	return b.cpuCycles
}

// triggerOAMDMA copies a 256-byte page into OAM and schedules the CPU
// stall: 513 cycles, 514 when the transfer begins on an odd CPU cycle.
func (b *Bus) triggerOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		b.PPU.DMAWrite(b.Memory.Read(base + i))
	}

	b.dmaStall = 513
	if b.cpuCycles%2 == 1 {
		b.dmaStall = 514
	}
}

func mirrorMode(mode cartridge.MirrorMode) memory.MirrorMode {
	switch mode {
	case cartridge.MirrorVertical:
		return memory.MirrorVertical
	case cartridge.MirrorFourScreen:
		return memory.MirrorFourScreen
	default:
		return memory.MirrorHorizontal
	}
}
