package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"starter-server/apiclient"
	"starter-server/entities"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const autoRefresh = 30 * time.Second

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(26)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// dashboardSource is the part of the API client the dashboard reads.
type dashboardSource interface {
	DashboardStats(ctx context.Context) (*entities.DashboardStats, error)
	ListNotifications(ctx context.Context, unreadOnly bool, opts apiclient.ListOptions) (*apiclient.Page[entities.Notification], error)
}

type dashboardModel struct {
	source   dashboardSource
	stats    *entities.DashboardStats
	unread   []entities.Notification
	loading  bool
	err      error
	updated  time.Time
	quitting bool
}

type dashboardLoadedMsg struct {
	stats  *entities.DashboardStats
	unread []entities.Notification
	at     time.Time
}
type refreshTickMsg struct{}
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func newDashboardModel(source dashboardSource) dashboardModel {
	return dashboardModel{source: source, loading: true}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.load(), tickRefresh())
}

func tickRefresh() tea.Cmd {
	return tea.Tick(autoRefresh, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func (m dashboardModel) load() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		stats, err := source.DashboardStats(ctx)
		if err != nil {
			return errMsg{err}
		}
		page, err := source.ListNotifications(ctx, true, apiclient.ListOptions{Limit: 5})
		if err != nil {
			return errMsg{err}
		}
		return dashboardLoadedMsg{stats: stats, unread: page.Items, at: time.Now()}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				return m, m.load()
			}
		}

	case refreshTickMsg:
		if m.loading {
			return m, tickRefresh()
		}
		m.loading = true
		return m, tea.Batch(m.load(), tickRefresh())

	case dashboardLoadedMsg:
		m.loading = false
		m.err = nil
		m.stats = msg.stats
		m.unread = msg.unread
		m.updated = msg.at

	case errMsg:
		m.loading = false
		m.err = msg.err
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Starter Admin Dashboard"))
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("✗ "+m.err.Error()) + "\n\n")
	}

	switch {
	case m.stats == nil && m.loading:
		s.WriteString("Loading...\n")
	case m.stats != nil:
		s.WriteString(renderStats(m.stats))
		s.WriteString("\n\n")
		s.WriteString(headerStyle.Render(fmt.Sprintf("Unread notifications (%d)", m.stats.UnreadNotifications)))
		s.WriteString("\n")
		if len(m.unread) == 0 {
			s.WriteString(cellStyle.Render("Nothing new") + "\n")
		}
		for _, n := range m.unread {
			s.WriteString(cellStyle.Render(fmt.Sprintf("[%s] %s", n.Type, n.Title)) + "\n")
		}
	}

	status := "r refresh • q quit"
	if !m.updated.IsZero() {
		status = "updated " + m.updated.Format("15:04:05") + " • " + status
	}
	if m.loading && m.stats != nil {
		status = "refreshing... • " + status
	}
	s.WriteString("\n" + helpStyle.Render(status) + "\n")
	return s.String()
}

func renderStats(stats *entities.DashboardStats) string {
	lines := []struct {
		label string
		value string
	}{
		{"Users (active / total)", fmt.Sprintf("%d / %d", stats.ActiveUsers, stats.TotalUsers)},
		{"Customers (active / total)", fmt.Sprintf("%d / %d", stats.ActiveCustomers, stats.TotalCustomers)},
		{"Monthly recurring revenue", formatCents(stats.MonthlyRecurringRevenueCents)},
		{"Open invoices", formatCents(stats.OpenInvoicesCents)},
		{"API requests (30d)", fmt.Sprintf("%d", stats.APIRequests30d)},
		{"Unread notifications", fmt.Sprintf("%d", stats.UnreadNotifications)},
	}
	rows := make([]string, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, labelStyle.Render(l.label)+valueStyle.Render(l.value))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// DashboardCmd runs the interactive dashboard.
func (h *AdminCommandHandler) DashboardCmd(cmd *cobra.Command, _ []string) error {
	if err := h.requireToken(); err != nil {
		return err
	}
	p := tea.NewProgram(newDashboardModel(h.client), tea.WithContext(cmd.Context()))
	_, err := p.Run()
	return err
}
