package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatMemory is a bare 64KB array for exercising the CPU in isolation.
type flatMemory struct {
	data [0x10000]uint8
}

func (m *flatMemory) Read(address uint16) uint8         { return m.data[address] }
func (m *flatMemory) Write(address uint16, value uint8) { m.data[address] = value }

// newTestCPU wires a CPU to flat memory with the reset vector at origin and
// resets it.
func newTestCPU(origin uint16, program ...uint8) (*CPU, *flatMemory) {
	mem := &flatMemory{}
	copy(mem.data[origin:], program)
	mem.data[0xFFFC] = uint8(origin & 0xFF)
	mem.data[0xFFFD] = uint8(origin >> 8)

	cpu := New(mem)
	cpu.Reset()
	return cpu, mem
}

func TestReset_ShouldLoadVectorAndInitialState(t *testing.T) {
	cpu, _ := newTestCPU(0x8000)

	assert.Equal(t, uint16(0x8000), cpu.PC)
	assert.Equal(t, uint8(0xFD), cpu.SP)
	assert.Equal(t, uint8(0x24), cpu.StatusByte())
	assert.Equal(t, uint64(7), cpu.Cycles())
	assert.Equal(t, uint8(0), cpu.A)
	assert.Equal(t, uint8(0), cpu.X)
	assert.Equal(t, uint8(0), cpu.Y)
}

func TestStep_LDAImmediate_ShouldLoadAccumulator(t *testing.T) {
	cpu, _ := newTestCPU(0x8000, 0xA9, 0x42)

	cycles := cpu.Step()

	assert.Equal(t, uint8(0x42), cpu.A)
	assert.False(t, cpu.Z)
	assert.False(t, cpu.N)
	assert.Equal(t, uint64(2), cycles)
	assert.Equal(t, uint16(0x8002), cpu.PC)
}

func TestStep_LDAImmediate_ZeroAndNegativeFlags(t *testing.T) {
	cpu, _ := newTestCPU(0x8000, 0xA9, 0x00, 0xA9, 0x80)

	cpu.Step()
	assert.True(t, cpu.Z)
	assert.False(t, cpu.N)

	cpu.Step()
	assert.False(t, cpu.Z)
	assert.True(t, cpu.N)
}

func TestStep_ZeroPageStoreAndLoad_ShouldRoundTrip(t *testing.T) {
	// LDA #$37; STA $10; LDA $10
	cpu, mem := newTestCPU(0x8000, 0xA9, 0x37, 0x85, 0x10, 0xA5, 0x10)

	total := cpu.Step() + cpu.Step() + cpu.Step()

	assert.Equal(t, uint8(0x37), cpu.A)
	assert.Equal(t, uint8(0x37), mem.data[0x10])
	assert.Equal(t, uint64(8), total, "2+3+3 cycles")
}

func TestStep_UndefinedOpcode_ShouldActAsTwoCycleNOP(t *testing.T) {
	for _, opcode := range []uint8{0x02, 0x1A, 0x80, 0xFF, 0xDB} {
		cpu, _ := newTestCPU(0x8000, opcode)
		before := *cpu

		cycles := cpu.Step()

		assert.Equal(t, uint64(2), cycles, "opcode %02X", opcode)
		assert.Equal(t, uint16(0x8001), cpu.PC, "opcode %02X", opcode)
		assert.Equal(t, before.A, cpu.A, "opcode %02X", opcode)
		assert.Equal(t, before.StatusByte(), cpu.StatusByte(), "opcode %02X", opcode)
	}
}

func TestPushPop_ShouldRoundTripAndRestoreSP(t *testing.T) {
	cpu, mem := newTestCPU(0x8000)

	for _, b := range []uint8{0x00, 0x01, 0x7F, 0x80, 0xFF} {
		sp := cpu.SP
		cpu.push(b)
		assert.Equal(t, b, mem.data[0x0100+uint16(sp)])
		assert.Equal(t, b, cpu.pop())
		assert.Equal(t, sp, cpu.SP)
	}
}

func TestPushWord_ShouldStoreHighByteFirst(t *testing.T) {
	cpu, mem := newTestCPU(0x8000)

	cpu.pushWord(0x1234)
	assert.Equal(t, uint8(0x12), mem.data[0x01FD])
	assert.Equal(t, uint8(0x34), mem.data[0x01FC])
	assert.Equal(t, uint16(0x1234), cpu.popWord())
}

func TestPHP_ShouldPushStatusWithBAndUnusedSet(t *testing.T) {
	cpu, mem := newTestCPU(0x8000, 0x38, 0x08) // SEC; PHP

	cpu.Step()
	cpu.Step()

	pushed := mem.data[0x0100+uint16(cpu.SP)+1]
	assert.Equal(t, uint8(0x35), pushed, "C, I, B and unused set")
}

func TestPLP_ShouldNotRetainBBit(t *testing.T) {
	cpu, _ := newTestCPU(0x8000, 0x28) // PLP
	cpu.push(0xFF)

	cpu.Step()

	// Everything set except B, which has no storage in the live register
	assert.Equal(t, uint8(0xEF), cpu.StatusByte())
	assert.True(t, cpu.C)
	assert.True(t, cpu.D)
}

func TestJSRAndRTS_ShouldReturnToCallSite(t *testing.T) {
	// JSR $9000 ... at $9000: RTS
	cpu, mem := newTestCPU(0x8000, 0x20, 0x00, 0x90)
	mem.data[0x9000] = 0x60

	cycles := cpu.Step()
	assert.Equal(t, uint16(0x9000), cpu.PC)
	assert.Equal(t, uint64(6), cycles)

	cycles = cpu.Step()
	assert.Equal(t, uint16(0x8003), cpu.PC, "RTS pops PC-1 and adds 1")
	assert.Equal(t, uint64(6), cycles)
	assert.Equal(t, uint8(0xFD), cpu.SP)
}

func TestBRK_ShouldEnterIRQVectorWithBSet(t *testing.T) {
	cpu, mem := newTestCPU(0x8000, 0x00)
	mem.data[0xFFFE] = 0x00
	mem.data[0xFFFF] = 0x90

	cycles := cpu.Step()

	assert.Equal(t, uint64(7), cycles)
	assert.Equal(t, uint16(0x9000), cpu.PC)
	assert.True(t, cpu.I)
	// Pushed PC+1 past the padding byte, then status with B set
	assert.Equal(t, uint8(0x80), mem.data[0x01FD])
	assert.Equal(t, uint8(0x02), mem.data[0x01FC])
	assert.Equal(t, uint8(0x24)|0x10, mem.data[0x01FB])
}

func TestRTI_ShouldRestoreStatusAndPC(t *testing.T) {
	cpu, _ := newTestCPU(0x8000, 0x40)
	cpu.pushWord(0x1234)
	cpu.push(0xF3) // N, V, Z, C plus B and unused noise

	cycles := cpu.Step()

	assert.Equal(t, uint64(6), cycles)
	assert.Equal(t, uint16(0x1234), cpu.PC)
	assert.True(t, cpu.N)
	assert.True(t, cpu.V)
	assert.True(t, cpu.Z)
	assert.True(t, cpu.C)
	assert.Equal(t, uint8(0xE3), cpu.StatusByte(), "B dropped, unused forced")
}

func TestTriggerNMI_ShouldPreemptNextStep(t *testing.T) {
	cpu, mem := newTestCPU(0x8000, 0xA9, 0x42)
	mem.data[0xFFFA] = 0x00
	mem.data[0xFFFB] = 0xA0

	mem.data[0xA000] = 0xEA

	cpu.TriggerNMI()
	cycles := cpu.Step()

	assert.Equal(t, uint64(7), cycles)
	assert.Equal(t, uint16(0xA000), cpu.PC)
	assert.True(t, cpu.I)
	// Interrupt entry pushes status with B clear
	assert.Equal(t, uint8(0x24), mem.data[0x01FB])

	// The flag was consumed; the next step executes the handler normally.
	cycles = cpu.Step()
	assert.Equal(t, uint64(2), cycles)
}

func TestTriggerIRQ_ShouldHonorInterruptDisable(t *testing.T) {
	cpu, mem := newTestCPU(0x8000, 0xA9, 0x42, 0xA9, 0x43)
	mem.data[0xFFFE] = 0x00
	mem.data[0xFFFF] = 0xB0

	// Reset leaves I set, so the IRQ stays pending
	cpu.TriggerIRQ()
	cycles := cpu.Step()
	assert.Equal(t, uint64(2), cycles)
	assert.Equal(t, uint16(0x8002), cpu.PC)

	cpu.I = false
	cycles = cpu.Step()
	assert.Equal(t, uint64(7), cycles)
	assert.Equal(t, uint16(0xB000), cpu.PC)
}

func TestNMI_ShouldTakePriorityOverIRQ(t *testing.T) {
	cpu, mem := newTestCPU(0x8000, 0xEA)
	mem.data[0xFFFA] = 0x00
	mem.data[0xFFFB] = 0xA0
	mem.data[0xFFFE] = 0x00
	mem.data[0xFFFF] = 0xB0
	mem.data[0xA000] = 0xEA

	cpu.I = false
	cpu.TriggerNMI()
	cpu.TriggerIRQ()

	cpu.Step()
	require.Equal(t, uint16(0xA000), cpu.PC, "NMI first")

	// I was set by the NMI entry, so the pending IRQ waits
	cycles := cpu.Step()
	assert.Equal(t, uint64(2), cycles)
}

func TestStatusByte_UnusedBitAlwaysReads(t *testing.T) {
	cpu, _ := newTestCPU(0x8000)

	cpu.SetStatusByte(0x00)
	assert.Equal(t, uint8(0x20), cpu.StatusByte())

	cpu.SetStatusByte(0xFF)
	assert.Equal(t, uint8(0xEF), cpu.StatusByte(), "everything but B")
}

func TestStep_RegistersStayWithinWidth(t *testing.T) {
	// INX wrapping 0xFF->0x00 and DEX wrapping 0x00->0xFF stay 8-bit
	cpu, _ := newTestCPU(0x8000, 0xE8, 0xCA, 0xCA)
	cpu.X = 0xFF

	cpu.Step()
	assert.Equal(t, uint8(0x00), cpu.X)
	assert.True(t, cpu.Z)

	cpu.Step()
	assert.Equal(t, uint8(0xFF), cpu.X)
	assert.True(t, cpu.N)
}
