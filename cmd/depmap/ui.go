// # cmd/depmap/ui.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	parseErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list        list.Model
	cycles      [][]string
	lastUpdate  time.Time
	runID       string
	fileCount   int
	edgeCount   int
	parseErrors int
	duration    time.Duration
}

type updateMsg struct {
	cycles      [][]string
	fileCount   int
	edgeCount   int
	parseErrors int
	runID       string
	duration    time.Duration
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.cycles = msg.cycles
		m.fileCount = msg.fileCount
		m.edgeCount = msg.edgeCount
		m.parseErrors = msg.parseErrors
		m.runID = msg.runID
		m.duration = msg.duration
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, c := range m.cycles {
			items = append(items, item{
				title: "Circular Import",
				desc:  strings.Join(c, " -> "),
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Run %s at %v | %d files | %d edges | %v",
		shortRunID(m.runID), m.lastUpdate.Format("15:04:05"), m.fileCount, m.edgeCount,
		m.duration.Round(time.Millisecond)))

	var summary string
	if len(m.cycles) == 0 {
		summary = successStyle.Render("✅ No circular imports")
	} else {
		summary = cycleStyle.Render(fmt.Sprintf("⚠️  %d Cycles", len(m.cycles)))
	}
	if m.parseErrors > 0 {
		summary += " | " + parseErrorStyle.Render(fmt.Sprintf("%d Parse Errors", m.parseErrors))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Import Cycle Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Detected Cycles"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

func shortRunID(id string) string {
	if id == "" {
		return "pending"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
