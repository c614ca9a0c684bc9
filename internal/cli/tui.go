package cli

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/version"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// versionListModel is the bubbletea model for interactive rollback target
// selection.
type versionListModel struct {
	entries  []versionEntry
	cursor   int
	selected int // 0 until a version is chosen
	height   int
	offset   int
}

func newVersionListModel(entries []versionEntry) versionListModel {
	cursor := 0
	for i, e := range entries {
		if e.active {
			cursor = i
		}
	}
	return versionListModel{entries: entries, cursor: cursor, height: 15}
}

func (m versionListModel) Init() tea.Cmd {
	return nil
}

func (m versionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.selected = m.entries[m.cursor].number
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m versionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select version to activate"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.entries) {
		end = len(m.entries)
	}

	for i := m.offset; i < end; i++ {
		entry := m.entries[i]

		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		marker := "  "
		if entry.active {
			marker = StyleSuccess.Render(iconActive) + " "
		}

		b.WriteString(cursor + marker + style.Render(entry.label))
		b.WriteString("\n")
	}
	return b.String()
}

// pickVersion opens the interactive version picker and returns the chosen
// version number, or 0 when the user cancelled.
func pickVersion(root string) (int, error) {
	if !isTerminal() {
		return 0, errors.New(errors.ErrCodeInvalidVersion,
			"no version given and stdout is not a terminal; pass the version number explicitly")
	}

	versions, err := version.List(root)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, errors.New(errors.ErrCodeVersionNotFound, "no versions built yet in %s", root)
	}

	active, err := version.Current(root)
	if err != nil {
		return 0, err
	}

	model := newVersionListModel(versionEntries(root, versions, active))
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return 0, err
	}
	if m, ok := final.(versionListModel); ok {
		return m.selected, nil
	}
	return 0, nil
}
