// Package picker is the interactive address picker behind --interactive.
package picker

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/appmigrate/appmigrate/internal/console"
	"github.com/appmigrate/appmigrate/migration"
)

var (
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	migStyle       = lipgloss.NewStyle().Bold(true)
	actionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true).MarginTop(1)
)

// Model lists the address mapping and reads a "|" separated id list.
type Model struct {
	rows      [][]string
	kinds     []migration.AddressKind
	input     textinput.Model
	ids       []int
	err       string
	done      bool
	cancelled bool
}

// New returns a picker model over addrs.
func New(addrs []migration.Address) Model {
	input := textinput.New()
	input.Placeholder = "1|3"
	input.Prompt = "ids> "
	input.Focus()

	kinds := make([]migration.AddressKind, len(addrs))
	for i, a := range addrs {
		kinds[i] = a.Kind
	}
	return Model{rows: console.ListRows(addrs), kinds: kinds, input: input}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			ids, err := migration.ParseIDs(m.input.Value())
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.ids = ids
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = ""
	return m, cmd
}

func (m Model) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Select migrations or actions by id"))
	b.WriteString("\n\n")
	for i, row := range m.rows {
		line := fmt.Sprintf("%4s  %s", row[0], row[1])
		if row[2] != "" {
			line += mutedStyle.Render(" [" + row[2] + "]")
		}
		line += mutedStyle.Render("  " + row[3])
		if m.kinds[i] == migration.KindMigration {
			b.WriteString(migStyle.Render(line))
		} else {
			b.WriteString(actionStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.err))
	}
	b.WriteString(statusBarStyle.Render("enter: confirm • esc: cancel"))
	return b.String()
}

// IDs returns the chosen ids once the user confirmed.
func (m Model) IDs() []int {
	return m.ids
}

// Cancelled reports whether the user left without choosing.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Terminal runs the picker as a bubbletea program.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

var _ console.Picker = Terminal{}

// Pick implements console.Picker. It returns no ids when the user cancels.
func (t Terminal) Pick(ctx context.Context, addrs []migration.Address) ([]int, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(New(addrs), opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}
	// A cancelled picker selects nothing.
	return final.(Model).IDs(), nil
}
