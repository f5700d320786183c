// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

// AddressingMode selects how an instruction's operand address is resolved.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

const (
	stackBase = 0x0100

	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	zeroPageMask = 0xFF
	pageMask     = 0xFF00

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// Instruction is one entry of the 256-entry dispatch table. PageCycles is
// charged on top of Cycles when the addressing mode crosses a page.
type Instruction struct {
	Name       string
	Mode       AddressingMode
	Cycles     uint8
	PageCycles uint8
}

// MemoryInterface is the bus as seen by the CPU.
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU is the 6502 interpreter. The unused status bit reads as set and the B
// bit appears only in pushed copies, never in the live flags.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16

	// Status flags
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (set/clear only; no decimal arithmetic)
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface

	cycles uint64

	instructions [256]Instruction

	nmiPending bool
	irqPending bool
}

// New creates a CPU attached to the given memory. Reset must be called
// before stepping.
func New(memory MemoryInterface) *CPU {
	cpu := &CPU{
		memory: memory,
		SP:     0xFD,
	}
	cpu.initInstructions()
	return cpu
}

// Reset restores power-on register state and loads PC from the reset vector.
func (cpu *CPU) Reset() {
	cpu.A = 0
	cpu.X = 0
	cpu.Y = 0
	cpu.SP = 0xFD

	// Status 0x24: interrupt disable plus the always-set unused bit
	cpu.C = false
	cpu.Z = false
	cpu.I = true
	cpu.D = false
	cpu.V = false
	cpu.N = false

	cpu.PC = cpu.read16(resetVector)

	cpu.nmiPending = false
	cpu.irqPending = false

	// The reset sequence occupies 7 cycles
	cpu.cycles = 7
}

// TriggerNMI requests a non-maskable interrupt before the next instruction.
func (cpu *CPU) TriggerNMI() {
	cpu.nmiPending = true
}

// TriggerIRQ requests a maskable interrupt.
func (cpu *CPU) TriggerIRQ() {
	cpu.irqPending = true
}

// Step services a pending interrupt or executes one instruction, returning
// the cycles consumed.
func (cpu *CPU) Step() uint64 {
	if cpu.nmiPending {
		cpu.nmiPending = false
		cpu.interrupt(nmiVector)
		cpu.cycles += 7
		return 7
	}
	if cpu.irqPending && !cpu.I {
		cpu.irqPending = false
		cpu.interrupt(irqVector)
		cpu.cycles += 7
		return 7
	}

	opcode := cpu.memory.Read(cpu.PC)
	instruction := cpu.instructions[opcode]

	address, pageCrossed := cpu.operandAddress(instruction.Mode)

	extraCycles := cpu.execute(opcode, address, pageCrossed)
	if pageCrossed {
		extraCycles += instruction.PageCycles
	}

	totalCycles := uint64(instruction.Cycles) + uint64(extraCycles)
	cpu.cycles += totalCycles
	return totalCycles
}

// Cycles returns the cumulative cycle total since reset.
func (cpu *CPU) Cycles() uint64 {
	return cpu.cycles
}

// operandAddress resolves the addressing mode, advancing PC past the whole
// instruction. The second return reports a page crossing for modes where
// that can cost an extra cycle.
func (cpu *CPU) operandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		cpu.PC += 1
		return 0, false

	case Immediate:
		address := cpu.PC + 1
		cpu.PC += 2
		return address, false

	case ZeroPage:
		address := uint16(cpu.memory.Read(cpu.PC + 1))
		cpu.PC += 2
		return address, false

	case ZeroPageX:
		base := cpu.memory.Read(cpu.PC + 1)
		cpu.PC += 2
		return uint16((base + cpu.X) & zeroPageMask), false

	case ZeroPageY:
		base := cpu.memory.Read(cpu.PC + 1)
		cpu.PC += 2
		return uint16((base + cpu.Y) & zeroPageMask), false

	case Relative:
		offset := int8(cpu.memory.Read(cpu.PC + 1))
		next := cpu.PC + 2
		target := uint16(int32(next) + int32(offset))
		// Crossing is judged against the branch opcode's own page
		crossed := (cpu.PC & pageMask) != (target & pageMask)
		cpu.PC = next
		return target, crossed

	case Absolute:
		address := cpu.readOperand16()
		cpu.PC += 3
		return address, false

	case AbsoluteX:
		base := cpu.readOperand16()
		cpu.PC += 3
		address := base + uint16(cpu.X)
		return address, (base & pageMask) != (address & pageMask)

	case AbsoluteY:
		base := cpu.readOperand16()
		cpu.PC += 3
		address := base + uint16(cpu.Y)
		return address, (base & pageMask) != (address & pageMask)

	case Indirect:
		// JMP only. If the pointer's low byte is 0xFF the high byte of the
		// target is fetched from the start of the same page.
		ptr := cpu.readOperand16()
		cpu.PC += 3
		var address uint16
		if ptr&zeroPageMask == zeroPageMask {
			lo := uint16(cpu.memory.Read(ptr))
			hi := uint16(cpu.memory.Read(ptr & pageMask))
			address = hi<<8 | lo
		} else {
			address = cpu.read16(ptr)
		}
		return address, false

	case IndexedIndirect:
		base := cpu.memory.Read(cpu.PC + 1)
		cpu.PC += 2
		ptr := (base + cpu.X) & zeroPageMask
		lo := uint16(cpu.memory.Read(uint16(ptr)))
		hi := uint16(cpu.memory.Read(uint16((ptr + 1) & zeroPageMask)))
		return hi<<8 | lo, false

	case IndirectIndexed:
		ptr := uint16(cpu.memory.Read(cpu.PC + 1))
		cpu.PC += 2
		lo := uint16(cpu.memory.Read(ptr))
		hi := uint16(cpu.memory.Read((ptr + 1) & zeroPageMask))
		base := hi<<8 | lo
		address := base + uint16(cpu.Y)
		return address, (base & pageMask) != (address & pageMask)

	default:
		return 0, false
	}
}

// readOperand16 reads the two operand bytes following the opcode.
func (cpu *CPU) readOperand16() uint16 {
	lo := uint16(cpu.memory.Read(cpu.PC + 1))
	hi := uint16(cpu.memory.Read(cpu.PC + 2))
	return hi<<8 | lo
}

func (cpu *CPU) read16(address uint16) uint16 {
	lo := uint16(cpu.memory.Read(address))
	hi := uint16(cpu.memory.Read(address + 1))
	return hi<<8 | lo
}

// Stack operations

func (cpu *CPU) push(value uint8) {
	cpu.memory.Write(stackBase+uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pop() uint8 {
	cpu.SP++
	return cpu.memory.Read(stackBase + uint16(cpu.SP))
}

func (cpu *CPU) pushWord(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value & 0xFF))
}

func (cpu *CPU) popWord() uint16 {
	lo := uint16(cpu.pop())
	hi := uint16(cpu.pop())
	return hi<<8 | lo
}

// setZN sets Zero and Negative from a result byte.
func (cpu *CPU) setZN(value uint8) {
	cpu.Z = value == 0
	cpu.N = value&nFlagMask != 0
}

// StatusByte assembles the live status register: unused bit set, B clear.
func (cpu *CPU) StatusByte() uint8 {
	status := uint8(unusedMask)
	if cpu.N {
		status |= nFlagMask
	}
	if cpu.V {
		status |= vFlagMask
	}
	if cpu.D {
		status |= dFlagMask
	}
	if cpu.I {
		status |= iFlagMask
	}
	if cpu.Z {
		status |= zFlagMask
	}
	if cpu.C {
		status |= cFlagMask
	}
	return status
}

// SetStatusByte loads the flags from a popped status byte. Bits 4 and 5
// have no storage in the live register.
func (cpu *CPU) SetStatusByte(status uint8) {
	cpu.N = status&nFlagMask != 0
	cpu.V = status&vFlagMask != 0
	cpu.D = status&dFlagMask != 0
	cpu.I = status&iFlagMask != 0
	cpu.Z = status&zFlagMask != 0
	cpu.C = status&cFlagMask != 0
}

// interrupt performs the common NMI/IRQ entry sequence.
func (cpu *CPU) interrupt(vector uint16) {
	cpu.pushWord(cpu.PC)
	cpu.push(cpu.StatusByte())
	cpu.I = true
	cpu.PC = cpu.read16(vector)
}
