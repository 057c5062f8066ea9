// Package services provides service orchestration for the TUI.
package services

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/augment-usage-tui/internal/api"
	"github.com/j-veylop/augment-usage-tui/internal/auth"
	"github.com/j-veylop/augment-usage-tui/internal/config"
	"github.com/j-veylop/augment-usage-tui/internal/db"
	"github.com/j-veylop/augment-usage-tui/internal/logger"
	"github.com/j-veylop/augment-usage-tui/internal/models"
	"github.com/j-veylop/augment-usage-tui/internal/services/refresh"
)

type (
	// UsageUpdatedEvent is emitted when a usage snapshot was fetched.
	UsageUpdatedEvent struct {
		Usage models.UsageData
	}

	// UserUpdatedEvent is emitted when a user snapshot was fetched.
	UserUpdatedEvent struct {
		User models.UserInfo
	}

	// AuthChangedEvent is emitted when the credential is set or cleared.
	AuthChangedEvent struct {
		Authenticated bool
	}

	// ErrorEvent is emitted when a refresh cycle recorded a failure.
	ErrorEvent struct {
		Message string
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UsageUpdatedEvent) isServiceEvent() {}
func (UserUpdatedEvent) isServiceEvent()  {}
func (AuthChangedEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()        {}

// Manager wires the credential store, API client, and refresh scheduler
// together and routes their notifications to TUI subscribers.
type Manager struct {
	mu          sync.RWMutex
	store       *auth.Store
	watcher     *auth.Watcher
	client      *api.Client
	scheduler   *refresh.Scheduler
	database    *db.DB
	subscribers []chan<- ServiceEvent
	removeFns   []func()

	notifications bool
	prevPercent   int
	prevKnown     bool
}

// NewManager constructs all services and starts the refresh scheduler.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		notifications: cfg.Notifications,
	}

	m.store = auth.NewStore()
	m.client = api.NewClient(m.store, cfg)
	m.scheduler = refresh.New(m.store, m.client, cfg.RefreshInterval)

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// History grows with every refresh; trim snapshots past retention
	if removed, err := m.database.Prune(config.HistoryRetention); err != nil {
		logger.Warn("failed to prune usage history", "error", err)
	} else if removed > 0 {
		logger.Info("pruned usage history", "removed", removed)
	}

	m.watcher, err = auth.NewWatcher(m.store, cfg.CookiePath)
	if err != nil {
		_ = m.database.Close()
		return nil, fmt.Errorf("failed to watch cookie file: %w", err)
	}

	m.removeFns = append(m.removeFns,
		m.store.OnAuthChange(m.handleAuthChange),
		m.scheduler.OnUsageChange(m.handleUsageChange),
		m.scheduler.OnUserChange(m.handleUserChange),
		m.scheduler.OnError(m.handleError),
	)

	m.scheduler.SetEnabled(cfg.Enabled)

	return m, nil
}

func (m *Manager) handleAuthChange(authenticated bool) {
	m.broadcast(AuthChangedEvent{Authenticated: authenticated})
}

func (m *Manager) handleUsageChange(usage models.UsageData) {
	if err := m.database.RecordUsage(usage); err != nil {
		logger.Error("failed to record usage history", "error", err)
	}

	m.checkNotifications(usage)
	m.broadcast(UsageUpdatedEvent{Usage: usage})
}

func (m *Manager) handleUserChange(user models.UserInfo) {
	m.broadcast(UserUpdatedEvent{User: user})
}

func (m *Manager) handleError(message string) {
	m.broadcast(ErrorEvent{Message: message})
}

// checkNotifications raises a desktop notification when usage crosses the
// warning or near-limit threshold upwards.
func (m *Manager) checkNotifications(usage models.UsageData) {
	m.mu.Lock()
	prev, known := m.prevPercent, m.prevKnown
	percent := usage.UsagePercentage()
	m.prevPercent, m.prevKnown = percent, true
	m.mu.Unlock()

	if !m.notifications || !known {
		return
	}

	switch {
	case percent >= 90 && prev < 90:
		title := "Augment usage near limit"
		body := fmt.Sprintf("%d%% of your credits are used (%d remaining)", percent, usage.RemainingUsage())
		_ = beeep.Notify(title, body, "")

	case percent >= 75 && prev < 75:
		title := "Augment usage warning"
		body := fmt.Sprintf("%d%% of your credits are used", percent)
		_ = beeep.Notify(title, body, "")
	}
}

// broadcast sends an event to all subscribers without blocking.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// SetCredential feeds a raw cookie string into the store.
func (m *Manager) SetCredential(raw string) error {
	return m.store.Set(raw)
}

// ClearCredential logs the account out.
func (m *Manager) ClearCredential() {
	m.store.Clear()
}

// RefreshNow triggers a manual refresh cycle.
func (m *Manager) RefreshNow() <-chan bool {
	return m.scheduler.RefreshNow()
}

// SetInterval forwards a new refresh period to the scheduler.
func (m *Manager) SetInterval(seconds int) {
	m.scheduler.SetInterval(seconds)
}

// SetEnabled starts or stops periodic refresh.
func (m *Manager) SetEnabled(enabled bool) {
	m.scheduler.SetEnabled(enabled)
}

// Usage returns the latest usage snapshot.
func (m *Manager) Usage() models.UsageData {
	return m.scheduler.Usage()
}

// User returns the latest user snapshot, or nil.
func (m *Manager) User() *models.UserInfo {
	return m.scheduler.User()
}

// LastError returns the most recent refresh failure message, or "".
func (m *Manager) LastError() string {
	return m.scheduler.LastError()
}

// Auth returns the credential store.
func (m *Manager) Auth() *auth.Store {
	return m.store
}

// Scheduler returns the refresh scheduler.
func (m *Manager) Scheduler() *refresh.Scheduler {
	return m.scheduler
}

// Client returns the API client.
func (m *Manager) Client() *api.Client {
	return m.client
}

// History returns recent usage points for charting.
func (m *Manager) History(timeRange models.TimeRange, maxPoints int) ([]models.UsagePoint, error) {
	return m.database.RecentSeries(timeRange, maxPoints)
}

// Close shuts down the scheduler, watcher, and database.
func (m *Manager) Close() error {
	m.scheduler.Dispose()

	m.mu.Lock()
	removeFns := m.removeFns
	m.removeFns = nil
	subscribers := m.subscribers
	m.subscribers = nil
	m.mu.Unlock()

	for _, remove := range removeFns {
		remove()
	}
	for _, sub := range subscribers {
		close(sub)
	}

	var errs []error
	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
