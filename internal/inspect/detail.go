package inspect

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")) // bright blue

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	newErrorStyle = errorStyle.
			Bold(true)

	seenIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

type detailModel struct {
	entry    Entry
	viewport viewport.Model
	width    int
	height   int
	ready    bool
	wantQuit bool
}

func (m detailModel) Init() tea.Cmd {
	return nil
}

func (m detailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Title (2 lines) + border top/bottom (2) + status bar (1).
		w, h := max(m.width-4, 20), max(m.height-5, 5)
		if !m.ready {
			m.viewport = viewport.New(w, h)
			m.ready = true
		} else {
			m.viewport.Width = w
			m.viewport.Height = h
		}
		m.viewport.SetContent(renderEntry(m.entry, w))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.wantQuit = true
			return m, tea.Quit
		case "esc", "backspace", "b":
			return m, tea.Quit
		case "o":
			if url := entryURL(m.entry); url != "" {
				openURL(url)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m detailModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	title := detailTitleStyle.Render(m.entry.Source.Name)
	content := borderStyle.Width(m.width - 2).Render(m.viewport.View())
	status := fmt.Sprintf(" %d seen  %3.f%%    o open page  esc back  ↑/↓ scroll  q quit",
		len(m.entry.SeenIDs), m.viewport.ScrollPercent()*100)
	return title + "\n" + content + "\n" + statusBarStyle.Width(m.width).Render(status)
}

func entryURL(e Entry) string {
	if u := e.Source.Metadata.CareersLandingPage; u != "" {
		return u
	}
	return e.Source.DisplayURL()
}

// renderEntry renders the detail body for e, wrapping long text at width.
func renderEntry(e Entry, width int) string {
	var b strings.Builder
	src := e.Source
	md := src.Metadata

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}
	divider := func(label string) string {
		fill := strings.Repeat("─", max(width-len([]rune(label)), 3))
		return dividerStyle.Render(label + fill)
	}

	state := "active"
	switch {
	case !e.Configured:
		state = "not in config"
	case !src.Active:
		state = "inactive"
	}
	addField("State", state)
	addField("Page", src.DisplayURL())
	for _, p := range src.Pages {
		addField("Page ("+p.Kind+")", p.URL)
	}
	addField("Reader", src.ReaderName)
	addField("No-jobs phrase", src.NoJobsPhrase)
	addField("Terms", strings.Join(src.RelevantTerms, ", "))
	addField("Location", md.Location)
	addField("Tags", strings.Join(md.Tags, ", "))
	addField("What", md.What)
	addField("Landing page", md.CareersLandingPage)
	addField("Referral", md.Referral)
	addField("Applications", md.ApplicationHistory)
	if md.Notes != "" {
		b.WriteByte('\n')
		b.WriteString(detailValueStyle.Render(wordWrap(md.Notes, width)) + "\n")
	}

	if e.Error != nil {
		b.WriteByte('\n')
		b.WriteString(divider("── Last error ") + "\n\n")
		if e.Error.IsNewThisRun {
			b.WriteString(newErrorStyle.Render("NEW") + " ")
		}
		b.WriteString(errorStyle.Render(wordWrap(e.Error.Message, width)) + "\n")
	}

	b.WriteByte('\n')
	b.WriteString(divider(fmt.Sprintf("── Seen (%d) ", len(e.SeenIDs))) + "\n\n")
	if len(e.SeenIDs) == 0 {
		b.WriteString(dividerStyle.Render("  (none yet)") + "\n")
	}
	for _, id := range e.SeenIDs {
		b.WriteString(seenIDStyle.Render("  "+id) + "\n")
	}

	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunDetail shows one entry full screen. Returns wantQuit=true if the user
// pressed q/ctrl+c, false if they pressed esc to return to the picker.
func RunDetail(e Entry) (bool, error) {
	p := tea.NewProgram(detailModel{entry: e}, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(detailModel).wantQuit, nil
}

// Browse alternates between the source picker and the detail view until the
// user quits.
func Browse(entries []Entry) error {
	cursor := 0
	for {
		idx, err := RunSourcePicker(entries, cursor)
		if err != nil || idx < 0 {
			return err
		}
		cursor = idx

		wantQuit, err := RunDetail(entries[idx])
		if err != nil || wantQuit {
			return err
		}
	}
}
