// Package debug provides an interactive terminal monitor for stepping the
// machine instruction by instruction.
package debug

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"famigo/internal/bus"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	pcStyle     = lipgloss.NewStyle().Reverse(true)
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

type model struct {
	bus    *bus.Bus
	prevPC uint16
	steps  uint64
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case " ", "j":
			m.prevPC = m.bus.CPU.PC
			m.bus.Step()
			m.steps++

		case "f":
			m.prevPC = m.bus.CPU.PC
			m.bus.RunFrame()

		case "r":
			m.bus.Reset()
			m.prevPC = 0
			m.steps = 0
		}
	}
	return m, nil
}

// renderRow renders 16 bytes of memory as one line, highlighting PC.
func (m model) renderRow(start uint16) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%04X | ", start)
	for i := uint16(0); i < 16; i++ {
		addr := start + i
		value := m.bus.Memory.Read(addr)
		if addr == m.bus.CPU.PC {
			sb.WriteString(pcStyle.Render(fmt.Sprintf("%02X", value)))
			sb.WriteByte(' ')
		} else {
			fmt.Fprintf(&sb, "%02X ", value)
		}
	}
	return sb.String()
}

func (m model) memoryPanel() string {
	rows := []string{headerStyle.Render("memory")}

	// Zero page head, the stack page around SP, and the code around PC
	for _, base := range []uint16{0x0000, 0x0010} {
		rows = append(rows, m.renderRow(base))
	}
	rows = append(rows, m.renderRow(0x0100+uint16(m.bus.CPU.SP&0xF0)))

	pcRow := m.bus.CPU.PC &^ 0x000F
	for i := 0; i < 4; i++ {
		rows = append(rows, m.renderRow(pcRow+uint16(i*16)))
	}
	return strings.Join(rows, "\n")
}

func (m model) registerPanel() string {
	cpu := m.bus.CPU

	flags := ""
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"N", cpu.N}, {"V", cpu.V}, {"D", cpu.D},
		{"I", cpu.I}, {"Z", cpu.Z}, {"C", cpu.C},
	} {
		if f.set {
			flags += f.name + " "
		} else {
			flags += "- "
		}
	}

	return strings.Join([]string{
		headerStyle.Render("cpu"),
		fmt.Sprintf("PC: %04X (prev %04X)", cpu.PC, m.prevPC),
		fmt.Sprintf(" A: %02X   X: %02X   Y: %02X", cpu.A, cpu.X, cpu.Y),
		fmt.Sprintf("SP: %02X   P: %02X", cpu.SP, cpu.StatusByte()),
		"N V D I Z C",
		flags,
		"",
		fmt.Sprintf("cycles: %d", cpu.Cycles()),
		fmt.Sprintf("frames: %d  steps: %d", m.bus.FrameCount(), m.steps),
	}, "\n")
}

func (m model) View() string {
	opcode := m.bus.Memory.Read(m.bus.CPU.PC)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.memoryPanel(),
			"   ",
			m.registerPanel(),
		),
		"",
		spew.Sdump(m.bus.CPU.Disassemble(opcode)),
		helpStyle.Render("space/j step · f frame · r reset · q quit"),
	)
}

// Run starts the interactive monitor over the given machine and blocks
// until the user quits.
func Run(b *bus.Bus) error {
	_, err := tea.NewProgram(model{bus: b}).Run()
	return err
}
