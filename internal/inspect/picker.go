package inspect

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerMutedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	pickerErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

const (
	noChoice = -1
	quit     = -2
)

type pickerModel struct {
	entries []Entry
	cursor  int
	chosen  int
}

func newPicker(entries []Entry, cursor int) pickerModel {
	return pickerModel{entries: entries, cursor: cursor, chosen: noChoice}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.chosen = quit
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.entries)-1, 0)
		case "enter":
			if len(m.entries) > 0 {
				m.chosen = m.cursor
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Run record: select a source"))
	b.WriteByte('\n')

	if len(m.entries) == 0 {
		b.WriteString(pickerItemStyle.Render(pickerMutedStyle.Render("(no sources)")) + "\n")
	}
	for i, e := range m.entries {
		label := entryLabel(e)
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString(pickerItemStyle.Render(label) + "\n")
		}
	}

	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit"))
	return b.String()
}

func entryLabel(e Entry) string {
	label := fmt.Sprintf("%s (%d seen)", e.Source.Name, len(e.SeenIDs))
	switch {
	case !e.Configured:
		label += pickerMutedStyle.Render("  not configured")
	case !e.Source.Active:
		label += pickerMutedStyle.Render("  inactive")
	}
	if e.Error != nil {
		label += pickerErrorStyle.Render("  error")
	}
	return label
}

// RunSourcePicker shows an interactive source selector starting at cursor.
// Returns the index of the chosen entry, or -1 if the user quit.
func RunSourcePicker(entries []Entry, cursor int) (int, error) {
	p := tea.NewProgram(newPicker(entries, cursor))
	result, err := p.Run()
	if err != nil {
		return noChoice, err
	}

	final := result.(pickerModel)
	if final.chosen == quit {
		return noChoice, nil
	}
	return final.chosen, nil
}
