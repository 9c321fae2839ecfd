// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Browses leads, tasks and posts with the live connectivity mode of each module
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/models"
	"github.com/duoproservices/portal/viz"
)

// Tab is the module shown in the table.
type Tab int

const (
	TabLeads Tab = iota
	TabTasks
	TabPosts
)

var tabNames = []string{"Leads", "Tasks", "Posts"}

// Loader is the part of a module controller the TUI reads from.
type Loader[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Mode() connectivity.Mode
}

// loadTimeout bounds one reload of all three modules.
const loadTimeout = 30 * time.Second

// Model is the main bubbletea model
type Model struct {
	leads Loader[models.Lead]
	tasks Loader[models.Task]
	posts Loader[models.SocialPost]

	tab         Tab
	selectedRow int

	leadRows []models.Lead
	taskRows []models.Task
	postRows []models.SocialPost
	stats    viz.LeadStats
	modes    [3]connectivity.Mode

	loading bool
	err     error

	// UI state
	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(leads Loader[models.Lead], tasks Loader[models.Task], posts Loader[models.SocialPost]) Model {
	return Model{
		leads:   leads,
		tasks:   tasks,
		posts:   posts,
		tab:     TabLeads,
		loading: true,
		width:   100,
		height:  24,
	}
}

// loadedMsg carries the result of a reload.
type loadedMsg struct {
	leads []models.Lead
	tasks []models.Task
	posts []models.SocialPost
	modes [3]connectivity.Mode
	err   error
}

func (m Model) load() tea.Cmd {
	leads, tasks, posts := m.leads, m.tasks, m.posts
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var msg loadedMsg
		var err error
		if msg.leads, err = leads.Load(ctx); err != nil {
			msg.err = err
		}
		if msg.tasks, err = tasks.Load(ctx); err != nil && msg.err == nil {
			msg.err = err
		}
		if msg.posts, err = posts.Load(ctx); err != nil && msg.err == nil {
			msg.err = err
		}
		msg.modes = [3]connectivity.Mode{leads.Mode(), tasks.Mode(), posts.Mode()}
		return msg
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		m.leadRows = msg.leads
		m.taskRows = msg.tasks
		m.postRows = msg.posts
		m.modes = msg.modes
		m.stats = viz.ComputeLeadStats(msg.leads)
		if m.selectedRow >= m.rowCount() {
			m.selectedRow = 0
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	return m.renderListView()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, m.load()
	case "tab":
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.selectedRow = 0
	case "shift+tab":
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		m.selectedRow = 0
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	}
	return m, nil
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabTasks:
		return len(m.taskRows)
	case TabPosts:
		return len(m.postRows)
	}
	return len(m.leadRows)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	onlineBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("42")).
			Padding(0, 1)

	offlineBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Padding(0, 1)

	unknownBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
