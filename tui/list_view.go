package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/duoproservices/portal/connectivity"
)

func (m Model) renderListView() string {
	var s strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("DUOPRO PORTAL"), "  ", m.renderBadge())
	s.WriteString(header)
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.tab == TabLeads {
		s.WriteString(m.renderStats())
		s.WriteString("\n\n")
	}

	switch {
	case m.loading:
		s.WriteString("Loading...")
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	default:
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	s.WriteString(m.renderHelp())
	return s.String()
}

func (m Model) renderBadge() string {
	switch mode := m.modes[m.tab]; mode {
	case connectivity.Online:
		return onlineBadge.Render("ONLINE")
	case connectivity.Offline:
		return offlineBadge.Render("OFFLINE · local data")
	default:
		return unknownBadge.Render(strings.ToUpper(mode.String()))
	}
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStats() string {
	st := m.stats
	return statsStyle.Render(fmt.Sprintf(
		"Total %d · New %d · Contacted %d · Quote %d · Negotiating %d · Won %d · Lost %d · Conversion %d%% · Pipeline $%.0f",
		st.Total, st.New, st.Contacted, st.QuoteSent, st.Negotiating, st.Won, st.Lost, st.ConversionRate, st.EstimatedPipeline))
}

func (m Model) renderTable() string {
	var (
		columns []table.Column
		rows    []table.Row
	)

	switch m.tab {
	case TabLeads:
		columns = []table.Column{
			{Title: "Name", Width: 24},
			{Title: "Company", Width: 20},
			{Title: "Status", Width: 12},
			{Title: "Via", Width: 10},
			{Title: "Value", Width: 10},
		}
		for _, l := range m.leadRows {
			rows = append(rows, table.Row{l.Name, l.Company, string(l.Status), string(l.ContactMethod), fmt.Sprintf("$%.0f", l.EstimatedValue)})
		}
	case TabTasks:
		columns = []table.Column{
			{Title: "Title", Width: 34},
			{Title: "Status", Width: 12},
			{Title: "Priority", Width: 9},
			{Title: "Assigned", Width: 14},
			{Title: "Due", Width: 10},
		}
		for _, t := range m.taskRows {
			rows = append(rows, table.Row{t.Title, string(t.Status), string(t.Priority), t.AssignedTo, t.DueDate})
		}
	case TabPosts:
		columns = []table.Column{
			{Title: "Date", Width: 10},
			{Title: "Time", Width: 5},
			{Title: "Platform", Width: 10},
			{Title: "Status", Width: 10},
			{Title: "Content", Width: 40},
		}
		for _, p := range m.postRows {
			rows = append(rows, table.Row{p.Date, p.Time, string(p.Platform), string(p.Status), p.Content})
		}
	}

	height := m.height - 12
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"r: Reload",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}
