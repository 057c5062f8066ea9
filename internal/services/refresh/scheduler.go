// Package refresh drives periodic and on-demand usage refresh cycles with
// single-flight semantics, and fans results out to listeners.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/j-veylop/augment-usage-tui/internal/config"
	"github.com/j-veylop/augment-usage-tui/internal/logger"
	"github.com/j-veylop/augment-usage-tui/internal/models"
)

// Fetcher performs the API calls a refresh cycle needs.
type Fetcher interface {
	FetchUsage(ctx context.Context) (*models.UsageData, error)
	FetchUser(ctx context.Context) (*models.UserInfo, error)
}

// AuthSource reports whether a credential is present.
type AuthSource interface {
	IsAuthenticated() bool
}

// UsageListener receives the new usage snapshot after a successful fetch.
type UsageListener func(models.UsageData)

// UserListener receives the new user snapshot after a successful fetch.
type UserListener func(models.UserInfo)

// ErrorListener receives the failure message of a refresh cycle in which a
// fetch failed.
type ErrorListener func(string)

// Scheduler owns the current snapshots and the single-flight guard. It is
// the only writer of both; reads are lock-free.
type Scheduler struct {
	client Fetcher
	auth   AuthSource

	usage     atomic.Pointer[models.UsageData]
	user      atomic.Pointer[models.UserInfo]
	lastError atomic.Pointer[string]

	refreshing atomic.Bool
	enabled    atomic.Bool
	disposed   atomic.Bool
	intervalMs atomic.Int64

	mu             sync.Mutex
	stopTicker     chan struct{}
	usageListeners map[int]UsageListener
	userListeners  map[int]UserListener
	errorListeners map[int]ErrorListener
	nextID         int
}

// New creates a scheduler with the given initial interval. The periodic
// timer does not run until SetEnabled(true).
func New(auth AuthSource, client Fetcher, interval time.Duration) *Scheduler {
	s := &Scheduler{
		client:         client,
		auth:           auth,
		usageListeners: make(map[int]UsageListener),
		userListeners:  make(map[int]UserListener),
		errorListeners: make(map[int]ErrorListener),
	}
	if interval < config.MinRefreshInterval || interval > config.MaxRefreshInterval {
		interval = config.MinRefreshInterval
	}
	s.intervalMs.Store(interval.Milliseconds())
	s.usage.Store(&models.UsageData{})
	return s
}

// Usage returns the latest usage snapshot, a zero-valued one if never
// fetched.
func (s *Scheduler) Usage() models.UsageData {
	return *s.usage.Load()
}

// User returns the latest user snapshot, or nil if never fetched.
func (s *Scheduler) User() *models.UserInfo {
	return s.user.Load()
}

// LastError returns the message of the most recent failed fetch, or "".
func (s *Scheduler) LastError() string {
	if p := s.lastError.Load(); p != nil {
		return *p
	}
	return ""
}

// IsRefreshing reports whether a fetch is currently in flight.
func (s *Scheduler) IsRefreshing() bool {
	return s.refreshing.Load()
}

// IsEnabled reports whether the periodic timer is running.
func (s *Scheduler) IsEnabled() bool {
	return s.enabled.Load()
}

// Interval returns the current refresh period.
func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.intervalMs.Load()) * time.Millisecond
}

// RefreshNow triggers a refresh cycle. The returned channel resolves false
// immediately when the scheduler is disabled, unauthenticated, or a fetch
// is already in flight; otherwise it resolves true iff the usage fetch
// succeeded. The user fetch runs in the same cycle but does not affect the
// result.
func (s *Scheduler) RefreshNow() <-chan bool {
	result := make(chan bool, 1)

	if !s.enabled.Load() || !s.auth.IsAuthenticated() {
		result <- false
		return result
	}

	if !s.refreshing.CompareAndSwap(false, true) {
		logger.Debug("refresh already in progress, skipping")
		result <- false
		return result
	}

	go func() {
		var ok bool
		func() {
			defer s.refreshing.Store(false)
			ok = s.performRefresh()
		}()
		result <- ok
	}()

	return result
}

// SetInterval changes the refresh period. Out-of-range values are logged
// and ignored; the prior interval is retained. On acceptance the periodic
// timer is rescheduled, firing immediately and then at the new period.
func (s *Scheduler) SetInterval(seconds int) {
	interval := time.Duration(seconds) * time.Second
	if interval < config.MinRefreshInterval || interval > config.MaxRefreshInterval {
		logger.Warn("rejected refresh interval", "seconds", seconds)
		return
	}

	s.intervalMs.Store(interval.Milliseconds())
	logger.Info("refresh interval set", "interval", interval)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled.Load() {
		s.stopTickerLocked()
		s.startTickerLocked()
	}
}

// SetEnabled starts or stops the periodic timer. Disabling leaves the
// current snapshots and credential untouched and never interrupts an
// in-flight fetch.
func (s *Scheduler) SetEnabled(enabled bool) {
	if s.disposed.Load() {
		return
	}
	s.enabled.Store(enabled)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
	if enabled {
		s.startTickerLocked()
	}
	logger.Info("scheduler enabled", "enabled", enabled)
}

// OnUsageChange registers a listener for new usage snapshots. The returned
// function removes it.
func (s *Scheduler) OnUsageChange(fn UsageListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.usageListeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.usageListeners, id)
		s.mu.Unlock()
	}
}

// OnUserChange registers a listener for new user snapshots. The returned
// function removes it.
func (s *Scheduler) OnUserChange(fn UserListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.userListeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.userListeners, id)
		s.mu.Unlock()
	}
}

// OnError registers a listener for refresh failure messages. The returned
// function removes it.
func (s *Scheduler) OnError(fn ErrorListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.errorListeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.errorListeners, id)
		s.mu.Unlock()
	}
}

// Dispose stops the periodic timer and clears all listeners. Idempotent.
func (s *Scheduler) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.enabled.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
	s.usageListeners = make(map[int]UsageListener)
	s.userListeners = make(map[int]UserListener)
	s.errorListeners = make(map[int]ErrorListener)
}

// startTickerLocked launches the periodic goroutine. The first tick fires
// immediately, subsequent ticks at the fixed period. Caller holds s.mu.
func (s *Scheduler) startTickerLocked() {
	stop := make(chan struct{})
	s.stopTicker = stop
	interval := time.Duration(s.intervalMs.Load()) * time.Millisecond

	go func() {
		s.tick()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-stop:
				return
			}
		}
	}()
}

// stopTickerLocked cancels the periodic goroutine if running. Caller holds
// s.mu.
func (s *Scheduler) stopTickerLocked() {
	if s.stopTicker != nil {
		close(s.stopTicker)
		s.stopTicker = nil
	}
}

// tick is the silent periodic equivalent of RefreshNow: skipped entirely
// when disabled, unauthenticated, or a fetch is in flight. Ticks never
// queue.
func (s *Scheduler) tick() {
	if !s.enabled.Load() || !s.auth.IsAuthenticated() || s.refreshing.Load() {
		return
	}
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}
	defer s.refreshing.Store(false)
	s.performRefresh()
}

// performRefresh runs the usage and user fetches independently: one
// failing does not skip the other, and a failure leaves the previous
// snapshot in place. Returns whether the usage fetch succeeded.
func (s *Scheduler) performRefresh() bool {
	ctx := context.Background()
	var failure string

	usage, err := s.client.FetchUsage(ctx)
	if err != nil {
		failure = err.Error()
		logger.Warn("usage fetch failed", "error", err)
	} else {
		s.usage.Store(usage)
		logger.Debug("usage updated", "used", usage.TotalUsage, "limit", usage.UsageLimit)
	}

	user, userErr := s.client.FetchUser(ctx)
	if userErr != nil {
		if failure == "" {
			failure = userErr.Error()
		}
		logger.Warn("user fetch failed", "error", userErr)
	} else {
		s.user.Store(user)
		logger.Debug("user info updated", "email", user.Email)
	}

	if failure == "" {
		s.lastError.Store(nil)
	} else {
		s.lastError.Store(&failure)
	}

	// Listener dispatch is asynchronous relative to the fetch but
	// sequential within one event.
	go s.notify(usage, err == nil, user, userErr == nil, failure)

	return err == nil
}

// notify invokes the registered listeners over a snapshot of the listener
// set, recovering panics so one listener cannot block the rest.
func (s *Scheduler) notify(usage *models.UsageData, usageOK bool, user *models.UserInfo, userOK bool, failure string) {
	s.mu.Lock()
	usageFns := make([]UsageListener, 0, len(s.usageListeners))
	for _, fn := range s.usageListeners {
		usageFns = append(usageFns, fn)
	}
	userFns := make([]UserListener, 0, len(s.userListeners))
	for _, fn := range s.userListeners {
		userFns = append(userFns, fn)
	}
	errorFns := make([]ErrorListener, 0, len(s.errorListeners))
	for _, fn := range s.errorListeners {
		errorFns = append(errorFns, fn)
	}
	s.mu.Unlock()

	if usageOK {
		for _, fn := range usageFns {
			invokeUsage(fn, *usage)
		}
	}
	if userOK {
		for _, fn := range userFns {
			invokeUser(fn, *user)
		}
	}
	if failure != "" {
		for _, fn := range errorFns {
			invokeError(fn, failure)
		}
	}
}

func invokeUsage(fn UsageListener, usage models.UsageData) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("usage listener panicked", "panic", r)
		}
	}()
	fn(usage)
}

func invokeUser(fn UserListener, user models.UserInfo) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("user listener panicked", "panic", r)
		}
	}()
	fn(user)
}

func invokeError(fn ErrorListener, message string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("error listener panicked", "panic", r)
		}
	}()
	fn(message)
}
