//go:build !gui

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/folio/internal/reader"
)

type palette struct {
	page     lipgloss.Style
	heading1 lipgloss.Style
	heading2 lipgloss.Style
	bold     lipgloss.Style
	status   lipgloss.Style
	selected lipgloss.Style
}

func newPalette(theme reader.Theme) palette {
	fg, bg, accent, muted := lipgloss.Color("#222222"), lipgloss.Color("#FAF7F0"), lipgloss.Color("#8B4513"), lipgloss.Color("#888888")
	if theme == reader.Dark {
		fg, bg, accent, muted = lipgloss.Color("#E5E7EB"), lipgloss.Color("#111827"), lipgloss.Color("#F59E0B"), lipgloss.Color("#6B7280")
	}
	return palette{
		page:     lipgloss.NewStyle().Foreground(fg).Background(bg).Padding(1, 2),
		heading1: lipgloss.NewStyle().Foreground(accent).Background(bg).Bold(true).Underline(true),
		heading2: lipgloss.NewStyle().Foreground(accent).Background(bg).Bold(true),
		bold:     lipgloss.NewStyle().Foreground(fg).Background(bg).Bold(true),
		status:   lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		selected: lipgloss.NewStyle().Foreground(accent).Bold(true),
	}
}

type keyMap struct {
	Prev    key.Binding
	Next    key.Binding
	Back    key.Binding
	Forward key.Binding
	First   key.Binding
	Last    key.Binding
	Bigger  key.Binding
	Smaller key.Binding
	Theme   key.Binding
	Outline key.Binding
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Prev:    key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←/h", "previous page")),
		Next:    key.NewBinding(key.WithKeys("right", "l", "pgdown", " "), key.WithHelp("→/l", "next page")),
		Back:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "back 5%")),
		Forward: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "forward 5%")),
		First:   key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first page")),
		Last:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last page")),
		Bigger:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "larger font")),
		Smaller: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "smaller font")),
		Theme:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "dark/light")),
		Outline: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "contents")),
		Up:      key.NewBinding(key.WithKeys("up", "k")),
		Down:    key.NewBinding(key.WithKeys("down", "j")),
		Select:  key.NewBinding(key.WithKeys("enter")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:    key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Outline, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.First, k.Last},
		{k.Back, k.Forward, k.Outline},
		{k.Bigger, k.Smaller, k.Theme},
		{k.Help, k.Quit},
	}
}

type model struct {
	*reader.Session
	keys     keyMap
	help     help.Model
	bar      progress.Model
	outline  []reader.Heading
	showTOC  bool
	cursor   int
	quitting bool
	width    int
	height   int
}

func newModel(s *reader.Session) model {
	return model{
		Session: s,
		keys:    newKeyMap(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		outline: s.Outline(),
		width:   80,
		height:  24,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.showTOC {
			return m.updateOutline(msg), nil
		}

		switch {
		case key.Matches(msg, m.keys.Prev):
			m.Prev()
		case key.Matches(msg, m.keys.Next):
			m.Next()
		case key.Matches(msg, m.keys.Back):
			m.SetProgress(m.Progress - 5)
		case key.Matches(msg, m.keys.Forward):
			m.SetProgress(m.Progress + 5)
		case key.Matches(msg, m.keys.First):
			m.First()
		case key.Matches(msg, m.keys.Last):
			m.Last()
		case key.Matches(msg, m.keys.Bigger):
			m.IncreaseFont()
		case key.Matches(msg, m.keys.Smaller):
			m.DecreaseFont()
		case key.Matches(msg, m.keys.Theme):
			m.ToggleTheme()
		case key.Matches(msg, m.keys.Outline):
			if len(m.outline) > 0 {
				m.showTOC = true
				m.cursor = m.currentHeading()
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = max(10, msg.Width-4)
		return m, nil
	}

	return m, nil
}

func (m model) updateOutline(msg tea.KeyMsg) model {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.outline)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		m.GoTo(m.outline[m.cursor].Page)
		m.showTOC = false
	case key.Matches(msg, m.keys.Outline):
		m.showTOC = false
	}
	return m
}

// currentHeading returns the index of the last heading at or before the
// current page.
func (m model) currentHeading() int {
	idx := 0
	for i, h := range m.outline {
		if h.Page <= m.Current {
			idx = i
		}
	}
	return idx
}

// textWidth maps the font size to a column width: a larger font shows fewer
// characters per line.
func textWidth(termWidth, fontSize int) int {
	cols := 80 * reader.DefaultFontSize / fontSize
	return max(20, min(cols, termWidth-4))
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	pal := newPalette(m.Theme)
	status := pal.status.Render(fmt.Sprintf("%s | Page %d/%d | %.0f%% | Font %d | %s",
		m.Book.Title, m.Current, m.Total(), m.Progress, m.FontSize, m.Theme))
	bar := m.bar.ViewAs(m.Progress / 100)
	controls := m.help.View(m.keys)

	var body string
	if m.showTOC {
		body = m.viewOutline(pal)
	} else {
		body = m.viewPage(pal)
	}

	// Reserve lines for status, progress bar and controls
	avail := max(1, m.height-3-lipgloss.Height(controls))
	body = lipgloss.Place(m.width, avail, lipgloss.Center, lipgloss.Top, body)

	return lipgloss.JoinVertical(lipgloss.Left, status, body, " "+bar, controls)
}

func (m model) viewPage(pal palette) string {
	width := textWidth(m.width, m.FontSize)
	var lines []string
	for _, b := range m.Blocks() {
		switch b.Kind {
		case reader.Heading1:
			lines = append(lines, pal.heading1.Render(b.Text), "")
		case reader.Heading2:
			lines = append(lines, pal.heading2.Render(b.Text))
		case reader.Bold:
			lines = append(lines, pal.bold.Render(b.Text))
		case reader.Break:
			lines = append(lines, "")
		default:
			lines = append(lines, b.Text)
		}
	}
	return pal.page.Width(width + 4).Render(strings.Join(lines, "\n"))
}

func (m model) viewOutline(pal palette) string {
	var sb strings.Builder
	sb.WriteString(pal.heading2.Render("Contents"))
	sb.WriteString("\n\n")
	for i, h := range m.outline {
		line := fmt.Sprintf("%s%s  %d", strings.Repeat("  ", h.Level), h.Title, h.Page)
		if i == m.cursor {
			line = pal.selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return pal.page.Width(textWidth(m.width, reader.DefaultFontSize) + 4).Render(sb.String())
}

// readBook opens the terminal reader and blocks until the user quits.
func readBook(a *app, s *reader.Session) error {
	p := tea.NewProgram(newModel(s), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("reader failed: %w", err)
	}
	return nil
}
