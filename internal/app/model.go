// Package app contains the root Bubble Tea model for the dashboard.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/augment-usage-tui/internal/models"
	"github.com/j-veylop/augment-usage-tui/internal/services"
	"github.com/j-veylop/augment-usage-tui/internal/ui/components"
	"github.com/j-veylop/augment-usage-tui/internal/ui/styles"
)

const (
	historyMaxPoints = 120
	chartHeight      = 8
)

type (
	// refreshDoneMsg reports the outcome of a manual refresh.
	refreshDoneMsg bool

	// historyMsg carries freshly loaded chart data.
	historyMsg []models.UsagePoint

	// historyTickMsg periodically reloads the chart.
	historyTickMsg time.Time
)

// Model is the root TUI model. It mirrors the core's snapshots and redraws
// on service events.
type Model struct {
	manager *services.Manager
	events  chan services.ServiceEvent

	usage         models.UsageData
	user          *models.UserInfo
	authenticated bool
	lastError     string
	refreshing    bool

	history   []models.UsagePoint
	timeRange models.TimeRange

	spinner  spinner.Model
	width    int
	height   int
	quitting bool
}

// NewModel creates the root model seeded from the manager's current state.
func NewModel(manager *services.Manager) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		manager:       manager,
		usage:         manager.Usage(),
		user:          manager.User(),
		authenticated: manager.Auth().IsAuthenticated(),
		lastError:     manager.LastError(),
		timeRange:     models.RangeDay,
		spinner:       sp,
		width:         80,
		height:        24,
	}
}

// Init subscribes to service events and starts the spinner.
func (m *Model) Init() tea.Cmd {
	ch, waitCmd := m.manager.Subscribe()
	m.events = ch

	return tea.Batch(
		waitCmd,
		m.spinner.Tick,
		m.loadHistory(),
		historyTick(),
	)
}

// Update handles input, service events, and internal messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case services.ServiceEvent:
		m.applyEvent(msg)
		return m, services.WaitForEvent(m.events)

	case refreshDoneMsg:
		m.refreshing = false
		m.lastError = m.manager.LastError()
		return m, m.loadHistory()

	case historyMsg:
		m.history = msg
		return m, nil

	case historyTickMsg:
		return m, tea.Batch(m.loadHistory(), historyTick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "r":
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		done := m.manager.RefreshNow()
		return m, func() tea.Msg {
			return refreshDoneMsg(<-done)
		}

	case "e":
		m.manager.SetEnabled(!m.manager.Scheduler().IsEnabled())
		return m, nil

	case "h":
		m.timeRange = (m.timeRange + 1) % 4
		return m, m.loadHistory()

	case "+", "=":
		m.adjustInterval(10)
		return m, nil

	case "-":
		m.adjustInterval(-10)
		return m, nil
	}

	return m, nil
}

func (m *Model) adjustInterval(deltaSeconds int) {
	current := int(m.manager.Scheduler().Interval() / time.Second)
	m.manager.SetInterval(current + deltaSeconds)
}

func (m *Model) applyEvent(event services.ServiceEvent) {
	switch event := event.(type) {
	case services.UsageUpdatedEvent:
		m.usage = event.Usage
		m.lastError = m.manager.LastError()

	case services.UserUpdatedEvent:
		user := event.User
		m.user = &user

	case services.AuthChangedEvent:
		m.authenticated = event.Authenticated

	case services.ErrorEvent:
		m.lastError = event.Message
	}
}

// loadHistory fetches chart data off the update loop.
func (m *Model) loadHistory() tea.Cmd {
	timeRange := m.timeRange
	return func() tea.Msg {
		points, err := m.manager.History(timeRange, historyMaxPoints)
		if err != nil {
			return historyMsg(nil)
		}
		return historyMsg(points)
	}
}

func historyTick() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return historyTickMsg(t)
	})
}

// View renders the dashboard.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Augment Usage"))
	b.WriteString("\n")

	if !m.authenticated {
		b.WriteString(styles.ErrorStyle.Render("Not authenticated"))
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Paste your _session cookie into the cookie file to sign in."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderUsage())
	}

	b.WriteString("\n")
	b.WriteString(styles.SubTitleStyle.Render(fmt.Sprintf("History (%s)", m.timeRange)))
	b.WriteString("\n")
	b.WriteString(components.RenderUsageChart(m.history, m.width-8, chartHeight, "usage %"))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("r refresh • e toggle auto • h range • +/- interval • q quit"))

	return styles.DocStyle.Render(b.String())
}

func (m *Model) renderUsage() string {
	var b strings.Builder

	percent := m.usage.UsagePercentage()
	b.WriteString(components.UsageBar(percent, "Credits", m.width-8))
	b.WriteString("\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Used", fmt.Sprintf("%d / %d", m.usage.TotalUsage, m.usage.UsageLimit)},
		{"Remaining", fmt.Sprintf("%d", m.usage.RemainingUsage())},
		{"Daily", fmt.Sprintf("%d", m.usage.DailyUsage)},
		{"Monthly", fmt.Sprintf("%d", m.usage.MonthlyUsage)},
	}
	if m.usage.SubscriptionType != "" {
		rows = append(rows, struct{ label, value string }{"Plan", m.usage.SubscriptionType})
	}
	if m.usage.RenewalDate != "" {
		rows = append(rows, struct{ label, value string }{"Renews", m.usage.RenewalDate})
	}
	if m.user != nil && m.user.Email != "" {
		rows = append(rows, struct{ label, value string }{"Account", m.user.Email})
	}

	for _, row := range rows {
		b.WriteString(styles.LabelStyle.Width(12).Render(row.label))
		b.WriteString(styles.ValueStyle.Render(row.value))
		b.WriteString("\n")
	}

	if m.usage.Source == models.SourceFallback && !m.usage.Confident {
		b.WriteString(styles.HelpStyle.Render("(response shape not recognized, values may be incomplete)"))
		b.WriteString("\n")
	}

	return b.String()
}

// renderStatusLine builds the single-line footer with last refresh, auto
// state, and any error, truncated to the window width.
func (m *Model) renderStatusLine() string {
	var parts []string

	if m.refreshing {
		parts = append(parts, m.spinner.View()+" refreshing")
	} else if m.usage.LastUpdate != nil {
		parts = append(parts, "updated "+m.usage.LastUpdate.Format("15:04:05"))
	} else {
		parts = append(parts, "no data")
	}

	if m.manager.Scheduler().IsEnabled() {
		parts = append(parts, fmt.Sprintf("auto %s", m.manager.Scheduler().Interval()))
	} else {
		parts = append(parts, "auto off")
	}

	if m.manager.Auth().IsStale() && m.authenticated {
		parts = append(parts, "cookie stale")
	}

	if m.lastError != "" {
		parts = append(parts, styles.ErrorStyle.Render(m.lastError))
	}

	line := strings.Join(parts, "  •  ")
	return styles.StatusBarStyle.Render(ansi.Truncate(line, m.width-6, "…"))
}
