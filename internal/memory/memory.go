// Package memory implements the CPU and PPU memory maps for the NES.
package memory

// Memory is the address-decoding surface seen by the CPU.
type Memory struct {
	// Internal RAM (2KB, mirrored through 0x0000-0x1FFF)
	ram [0x800]uint8

	ppu   PPUInterface
	input InputInterface
	cart  CartridgeInterface

	// Invoked on writes to 0x4014 with the source page.
	dmaCallback func(uint8)
}

// PPUInterface is the PPU register file as seen from the CPU bus.
type PPUInterface interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// InputInterface is the controller port pair at 0x4016/0x4017.
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface is the cartridge as seen from both buses.
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// New creates the CPU memory map. The cartridge may be nil until a ROM is
// loaded; reads from its ranges then return 0.
func New(ppu PPUInterface, input InputInterface, cart CartridgeInterface) *Memory {
	return &Memory{
		ppu:   ppu,
		input: input,
		cart:  cart,
	}
}

// SetDMACallback registers the handler for writes to 0x4014.
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// SetCartridge attaches or replaces the cartridge.
func (m *Memory) SetCartridge(cart CartridgeInterface) {
	m.cart = cart
}

// Read decodes a CPU address. Every address decodes to something; unmapped
// ranges read 0.
func (m *Memory) Read(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.ram[address&0x07FF]

	case address < 0x4000:
		// PPU registers, mirrored every 8 bytes
		return m.ppu.ReadRegister(0x2000 + (address & 0x0007))

	case address == 0x4016 || address == 0x4017:
		if m.input != nil {
			return m.input.Read(address)
		}
		return 0

	case address < 0x4020:
		// APU and test-mode registers: no APU in this machine, read 0
		return 0

	case address < 0x6000:
		// Expansion area, unmapped
		return 0

	case address < 0x8000:
		// PRG RAM window
		if m.cart != nil {
			return m.cart.ReadPRG(address)
		}
		return 0

	default:
		if m.cart != nil {
			return m.cart.ReadPRG(address)
		}
		return 0
	}
}

// Write decodes a CPU address for a store.
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppu.WriteRegister(0x2000+(address&0x0007), value)

	case address == 0x4014:
		if m.dmaCallback != nil {
			m.dmaCallback(value)
		}

	case address == 0x4016:
		if m.input != nil {
			m.input.Write(address, value)
		}

	case address < 0x4020:
		// APU register strip and 0x4017 frame counter: ignored stubs

	case address < 0x6000:
		// Expansion area, writes ignored

	default:
		if m.cart != nil {
			m.cart.WritePRG(address, value)
		}
	}
}

// Read16 reads a little-endian word. There is no page-wrap quirk here; that
// bug lives only in the CPU's indirect JMP.
func (m *Memory) Read16(address uint16) uint16 {
	lo := uint16(m.Read(address))
	hi := uint16(m.Read(address + 1))
	return hi<<8 | lo
}
