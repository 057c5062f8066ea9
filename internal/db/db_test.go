package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/augment-usage-tui/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return database
}

func snapshotAt(t *testing.T, db *DB, ts time.Time, used, limit int) {
	t.Helper()
	usage := models.UsageData{
		TotalUsage: used,
		UsageLimit: limit,
		LastUpdate: &ts,
	}
	if err := db.RecordUsage(usage); err != nil {
		t.Fatalf("failed to record usage: %v", err)
	}
}

func TestRecordAndQuery(t *testing.T) {
	database := newTestDB(t)

	now := time.Now().UTC()
	snapshotAt(t, database, now.Add(-2*time.Hour), 100, 1000)
	snapshotAt(t, database, now.Add(-1*time.Hour), 200, 1000)
	snapshotAt(t, database, now.Add(-10*time.Minute), 250, 1000)

	count, err := database.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}

	points, err := database.RecentSeries(models.RangeDay, 0)
	if err != nil {
		t.Fatalf("RecentSeries failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("points = %d, want 3", len(points))
	}

	// Oldest first
	if points[0].TotalUsage != 100 || points[2].TotalUsage != 250 {
		t.Errorf("points out of order: %+v", points)
	}
	if points[2].Percent != 25.0 {
		t.Errorf("percent = %v, want 25", points[2].Percent)
	}
}

func TestRecentSeries_RangeFilter(t *testing.T) {
	database := newTestDB(t)

	now := time.Now().UTC()
	snapshotAt(t, database, now.Add(-3*time.Hour), 1, 10)
	snapshotAt(t, database, now.Add(-30*time.Minute), 2, 10)

	points, err := database.RecentSeries(models.RangeHour, 0)
	if err != nil {
		t.Fatalf("RecentSeries failed: %v", err)
	}
	if len(points) != 1 || points[0].TotalUsage != 2 {
		t.Errorf("points = %+v, want only the recent one", points)
	}
}

func TestPrune(t *testing.T) {
	database := newTestDB(t)

	now := time.Now().UTC()
	snapshotAt(t, database, now.Add(-40*24*time.Hour), 1, 10)
	snapshotAt(t, database, now.Add(-time.Hour), 2, 10)

	removed, err := database.Prune(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	count, err := database.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count after prune = %d, want 1", count)
	}
}

func TestDownsample(t *testing.T) {
	points := make([]models.UsagePoint, 100)
	for i := range points {
		points[i] = models.UsagePoint{TotalUsage: i}
	}

	out := downsample(points, 10)
	if len(out) != 10 {
		t.Fatalf("downsampled length = %d, want 10", len(out))
	}
	if out[0].TotalUsage != 0 {
		t.Errorf("first point = %d, want 0", out[0].TotalUsage)
	}
	// Most recent point always retained
	if out[len(out)-1].TotalUsage != 99 {
		t.Errorf("last point = %d, want 99", out[len(out)-1].TotalUsage)
	}

	// Short input passes through untouched
	if got := downsample(points[:5], 10); len(got) != 5 {
		t.Errorf("short input downsampled to %d points", len(got))
	}
}

func TestDownsample_SinglePoint(t *testing.T) {
	points := []models.UsagePoint{
		{TotalUsage: 1},
		{TotalUsage: 2},
		{TotalUsage: 3},
	}

	out := downsample(points, 1)
	if len(out) != 1 {
		t.Fatalf("downsampled length = %d, want 1", len(out))
	}
	if out[0].TotalUsage != 3 {
		t.Errorf("kept point = %d, want the most recent (3)", out[0].TotalUsage)
	}
}

func TestNullableSubscriptionFields(t *testing.T) {
	database := newTestDB(t)

	now := time.Now().UTC()
	usage := models.UsageData{
		TotalUsage:       5,
		UsageLimit:       10,
		LastUpdate:       &now,
		SubscriptionType: "pro",
	}
	if err := database.RecordUsage(usage); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}

	var plan *string
	var renewal *string
	err := database.QueryRow(
		"SELECT subscription_type, renewal_date FROM usage_snapshots").Scan(&plan, &renewal)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if plan == nil || *plan != "pro" {
		t.Errorf("plan = %v, want pro", plan)
	}
	if renewal != nil {
		t.Errorf("renewal = %v, want NULL", *renewal)
	}
}
