package services

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/augment-usage-tui/internal/config"
	"github.com/j-veylop/augment-usage-tui/internal/db"
	"github.com/j-veylop/augment-usage-tui/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		APIBaseURL:      config.APIBaseURL,
		WebBaseURL:      config.WebBaseURL,
		DatabasePath:    filepath.Join(dir, "usage.db"),
		CookiePath:      filepath.Join(dir, "cookie"),
		RefreshInterval: 30 * time.Second,
		Enabled:         false,
	}
}

func recordAt(t *testing.T, database *db.DB, ts time.Time) {
	t.Helper()
	usage := models.UsageData{TotalUsage: 1, UsageLimit: 10, LastUpdate: &ts}
	if err := database.RecordUsage(usage); err != nil {
		t.Fatalf("failed to record usage: %v", err)
	}
}

func TestNewManager_PrunesOldHistory(t *testing.T) {
	cfg := testConfig(t)

	// Seed the database with one snapshot past retention and one recent
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	now := time.Now().UTC()
	recordAt(t, database, now.Add(-config.HistoryRetention-24*time.Hour))
	recordAt(t, database, now.Add(-time.Hour))
	if err := database.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Close(); err != nil {
			t.Errorf("failed to close manager: %v", err)
		}
	})

	count, err := m.database.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("snapshots after startup = %d, want only the recent one", count)
	}
}

func TestManager_SubscribeReceivesAuthChange(t *testing.T) {
	cfg := testConfig(t)
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	ch, _ := m.Subscribe()

	if err := m.SetCredential("_session=" + strings.Repeat("a", 100)); err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}

	select {
	case event := <-ch:
		auth, ok := event.(AuthChangedEvent)
		if !ok || !auth.Authenticated {
			t.Errorf("event = %+v, want authenticated AuthChangedEvent", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received after SetCredential")
	}
}
