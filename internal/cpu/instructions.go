package cpu

// Instruction operations. Each returns any extra cycles beyond the table
// base (branches are the only operations that charge their own extras).

// Loads and stores

func (cpu *CPU) lda(address uint16) uint8 {
	cpu.A = cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) ldx(address uint16) uint8 {
	cpu.X = cpu.memory.Read(address)
	cpu.setZN(cpu.X)
	return 0
}

func (cpu *CPU) ldy(address uint16) uint8 {
	cpu.Y = cpu.memory.Read(address)
	cpu.setZN(cpu.Y)
	return 0
}

func (cpu *CPU) sta(address uint16) uint8 {
	cpu.memory.Write(address, cpu.A)
	return 0
}

func (cpu *CPU) stx(address uint16) uint8 {
	cpu.memory.Write(address, cpu.X)
	return 0
}

func (cpu *CPU) sty(address uint16) uint8 {
	cpu.memory.Write(address, cpu.Y)
	return 0
}

// Arithmetic

func (cpu *CPU) adc(address uint16) uint8 {
	cpu.addWithCarry(cpu.memory.Read(address))
	return 0
}

// sbc is ADC of the operand's one's complement.
func (cpu *CPU) sbc(address uint16) uint8 {
	cpu.addWithCarry(cpu.memory.Read(address) ^ 0xFF)
	return 0
}

func (cpu *CPU) addWithCarry(value uint8) {
	carry := uint16(0)
	if cpu.C {
		carry = 1
	}
	result := uint16(cpu.A) + uint16(value) + carry

	// Overflow when both operands agree in sign and the result disagrees
	cpu.V = (cpu.A^value)&0x80 == 0 && (cpu.A^uint8(result))&0x80 != 0
	cpu.C = result > 0xFF
	cpu.A = uint8(result)
	cpu.setZN(cpu.A)
}

// Logic

func (cpu *CPU) and(address uint16) uint8 {
	cpu.A &= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) ora(address uint16) uint8 {
	cpu.A |= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

func (cpu *CPU) eor(address uint16) uint8 {
	cpu.A ^= cpu.memory.Read(address)
	cpu.setZN(cpu.A)
	return 0
}

// bit sets N and V from the operand's top bits and Z from A AND M, leaving
// A untouched.
func (cpu *CPU) bit(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.N = value&nFlagMask != 0
	cpu.V = value&vFlagMask != 0
	cpu.Z = cpu.A&value == 0
	return 0
}

// Shifts and rotates, memory forms. The accumulator forms live in execute.

func (cpu *CPU) asl(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.C = value&0x80 != 0
	value <<= 1
	cpu.memory.Write(address, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) lsr(address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.C = value&0x01 != 0
	value >>= 1
	cpu.memory.Write(address, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) rol(address uint16) uint8 {
	value := cpu.memory.Read(address)
	oldCarry := cpu.C
	cpu.C = value&0x80 != 0
	value <<= 1
	if oldCarry {
		value |= 0x01
	}
	cpu.memory.Write(address, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) ror(address uint16) uint8 {
	value := cpu.memory.Read(address)
	oldCarry := cpu.C
	cpu.C = value&0x01 != 0
	value >>= 1
	if oldCarry {
		value |= 0x80
	}
	cpu.memory.Write(address, value)
	cpu.setZN(value)
	return 0
}

// Compares

func (cpu *CPU) compare(register uint8, address uint16) uint8 {
	value := cpu.memory.Read(address)
	cpu.C = register >= value
	cpu.setZN(register - value)
	return 0
}

// Increments and decrements

func (cpu *CPU) inc(address uint16) uint8 {
	value := cpu.memory.Read(address) + 1
	cpu.memory.Write(address, value)
	cpu.setZN(value)
	return 0
}

func (cpu *CPU) dec(address uint16) uint8 {
	value := cpu.memory.Read(address) - 1
	cpu.memory.Write(address, value)
	cpu.setZN(value)
	return 0
}

// Control flow

func (cpu *CPU) jmp(address uint16) uint8 {
	cpu.PC = address
	return 0
}

func (cpu *CPU) jsr(address uint16) uint8 {
	cpu.pushWord(cpu.PC - 1)
	cpu.PC = address
	return 0
}

func (cpu *CPU) rts(address uint16) uint8 {
	cpu.PC = cpu.popWord() + 1
	return 0
}

func (cpu *CPU) rti(address uint16) uint8 {
	cpu.SetStatusByte(cpu.pop())
	cpu.PC = cpu.popWord()
	return 0
}

// brk pushes the address past the padding byte, then the status with B set,
// and enters through the IRQ vector.
func (cpu *CPU) brk(address uint16) uint8 {
	cpu.PC++
	cpu.pushWord(cpu.PC)
	cpu.push(cpu.StatusByte() | bFlagMask)
	cpu.I = true
	cpu.PC = cpu.read16(irqVector)
	return 0
}

// branch takes the branch when the condition holds: +1 cycle, +2 when the
// target is on a different page than the branch opcode itself.
func (cpu *CPU) branch(condition bool, address uint16, pageCrossed bool) uint8 {
	if !condition {
		return 0
	}
	cpu.PC = address
	if pageCrossed {
		return 2
	}
	return 1
}

// execute dispatches on opcode and returns extra cycles charged by the
// operation itself.
func (cpu *CPU) execute(opcode uint8, address uint16, pageCrossed bool) uint8 {
	switch opcode {
	// Loads and stores
	case 0xA9, 0xA5, 0xB5, 0xAD, 0xBD, 0xB9, 0xA1, 0xB1: // LDA
		return cpu.lda(address)
	case 0xA2, 0xA6, 0xB6, 0xAE, 0xBE: // LDX
		return cpu.ldx(address)
	case 0xA0, 0xA4, 0xB4, 0xAC, 0xBC: // LDY
		return cpu.ldy(address)
	case 0x85, 0x95, 0x8D, 0x9D, 0x99, 0x81, 0x91: // STA
		return cpu.sta(address)
	case 0x86, 0x96, 0x8E: // STX
		return cpu.stx(address)
	case 0x84, 0x94, 0x8C: // STY
		return cpu.sty(address)

	// Arithmetic
	case 0x69, 0x65, 0x75, 0x6D, 0x7D, 0x79, 0x61, 0x71: // ADC
		return cpu.adc(address)
	case 0xE9, 0xE5, 0xF5, 0xED, 0xFD, 0xF9, 0xE1, 0xF1: // SBC
		return cpu.sbc(address)

	// Logic
	case 0x29, 0x25, 0x35, 0x2D, 0x3D, 0x39, 0x21, 0x31: // AND
		return cpu.and(address)
	case 0x09, 0x05, 0x15, 0x0D, 0x1D, 0x19, 0x01, 0x11: // ORA
		return cpu.ora(address)
	case 0x49, 0x45, 0x55, 0x4D, 0x5D, 0x59, 0x41, 0x51: // EOR
		return cpu.eor(address)
	case 0x24, 0x2C: // BIT
		return cpu.bit(address)

	// Shifts and rotates
	case 0x0A: // ASL A
		cpu.C = cpu.A&0x80 != 0
		cpu.A <<= 1
		cpu.setZN(cpu.A)
		return 0
	case 0x06, 0x16, 0x0E, 0x1E: // ASL
		return cpu.asl(address)
	case 0x4A: // LSR A
		cpu.C = cpu.A&0x01 != 0
		cpu.A >>= 1
		cpu.setZN(cpu.A)
		return 0
	case 0x46, 0x56, 0x4E, 0x5E: // LSR
		return cpu.lsr(address)
	case 0x2A: // ROL A
		oldCarry := cpu.C
		cpu.C = cpu.A&0x80 != 0
		cpu.A <<= 1
		if oldCarry {
			cpu.A |= 0x01
		}
		cpu.setZN(cpu.A)
		return 0
	case 0x26, 0x36, 0x2E, 0x3E: // ROL
		return cpu.rol(address)
	case 0x6A: // ROR A
		oldCarry := cpu.C
		cpu.C = cpu.A&0x01 != 0
		cpu.A >>= 1
		if oldCarry {
			cpu.A |= 0x80
		}
		cpu.setZN(cpu.A)
		return 0
	case 0x66, 0x76, 0x6E, 0x7E: // ROR
		return cpu.ror(address)

	// Compares
	case 0xC9, 0xC5, 0xD5, 0xCD, 0xDD, 0xD9, 0xC1, 0xD1: // CMP
		return cpu.compare(cpu.A, address)
	case 0xE0, 0xE4, 0xEC: // CPX
		return cpu.compare(cpu.X, address)
	case 0xC0, 0xC4, 0xCC: // CPY
		return cpu.compare(cpu.Y, address)

	// Increments and decrements
	case 0xE6, 0xF6, 0xEE, 0xFE: // INC
		return cpu.inc(address)
	case 0xC6, 0xD6, 0xCE, 0xDE: // DEC
		return cpu.dec(address)
	case 0xE8: // INX
		cpu.X++
		cpu.setZN(cpu.X)
		return 0
	case 0xCA: // DEX
		cpu.X--
		cpu.setZN(cpu.X)
		return 0
	case 0xC8: // INY
		cpu.Y++
		cpu.setZN(cpu.Y)
		return 0
	case 0x88: // DEY
		cpu.Y--
		cpu.setZN(cpu.Y)
		return 0

	// Transfers
	case 0xAA: // TAX
		cpu.X = cpu.A
		cpu.setZN(cpu.X)
		return 0
	case 0x8A: // TXA
		cpu.A = cpu.X
		cpu.setZN(cpu.A)
		return 0
	case 0xA8: // TAY
		cpu.Y = cpu.A
		cpu.setZN(cpu.Y)
		return 0
	case 0x98: // TYA
		cpu.A = cpu.Y
		cpu.setZN(cpu.A)
		return 0
	case 0xBA: // TSX
		cpu.X = cpu.SP
		cpu.setZN(cpu.X)
		return 0
	case 0x9A: // TXS, no flags
		cpu.SP = cpu.X
		return 0

	// Stack
	case 0x48: // PHA
		cpu.push(cpu.A)
		return 0
	case 0x68: // PLA
		cpu.A = cpu.pop()
		cpu.setZN(cpu.A)
		return 0
	case 0x08: // PHP, pushed copy carries B
		cpu.push(cpu.StatusByte() | bFlagMask)
		return 0
	case 0x28: // PLP
		cpu.SetStatusByte(cpu.pop())
		return 0

	// Flags
	case 0x18: // CLC
		cpu.C = false
		return 0
	case 0x38: // SEC
		cpu.C = true
		return 0
	case 0x58: // CLI
		cpu.I = false
		return 0
	case 0x78: // SEI
		cpu.I = true
		return 0
	case 0xB8: // CLV
		cpu.V = false
		return 0
	case 0xD8: // CLD
		cpu.D = false
		return 0
	case 0xF8: // SED
		cpu.D = true
		return 0

	// Control flow
	case 0x4C, 0x6C: // JMP
		return cpu.jmp(address)
	case 0x20: // JSR
		return cpu.jsr(address)
	case 0x60: // RTS
		return cpu.rts(address)
	case 0x40: // RTI
		return cpu.rti(address)
	case 0x00: // BRK
		return cpu.brk(address)

	// Branches
	case 0x90: // BCC
		return cpu.branch(!cpu.C, address, pageCrossed)
	case 0xB0: // BCS
		return cpu.branch(cpu.C, address, pageCrossed)
	case 0xD0: // BNE
		return cpu.branch(!cpu.Z, address, pageCrossed)
	case 0xF0: // BEQ
		return cpu.branch(cpu.Z, address, pageCrossed)
	case 0x10: // BPL
		return cpu.branch(!cpu.N, address, pageCrossed)
	case 0x30: // BMI
		return cpu.branch(cpu.N, address, pageCrossed)
	case 0x50: // BVC
		return cpu.branch(!cpu.V, address, pageCrossed)
	case 0x70: // BVS
		return cpu.branch(cpu.V, address, pageCrossed)

	default:
		// NOP, official or otherwise. Undefined opcodes fall through to the
		// table's 2-cycle NOP entry so data after a branch never wedges.
		return 0
	}
}
