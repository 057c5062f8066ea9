package db

import (
	"context"
	"fmt"
	"time"

	"github.com/j-veylop/augment-usage-tui/internal/models"
)

// RecordUsage persists one successful usage snapshot.
func (db *DB) RecordUsage(usage models.UsageData) error {
	ts := time.Now().UTC()
	if usage.LastUpdate != nil {
		ts = usage.LastUpdate.UTC()
	}

	query := `
	INSERT INTO usage_snapshots
		(timestamp, total_usage, usage_limit, daily_usage, monthly_usage, subscription_type, renewal_date)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := db.ExecContext(context.Background(), query,
		ts.Format(time.RFC3339),
		usage.TotalUsage,
		usage.UsageLimit,
		usage.DailyUsage,
		usage.MonthlyUsage,
		nullable(usage.SubscriptionType),
		nullable(usage.RenewalDate),
	)
	if err != nil {
		return fmt.Errorf("failed to record usage snapshot: %w", err)
	}
	return nil
}

// RecentSeries returns usage points within the given range, oldest first,
// downsampled to at most maxPoints entries.
func (db *DB) RecentSeries(timeRange models.TimeRange, maxPoints int) ([]models.UsagePoint, error) {
	since := time.Now().UTC().Add(-timeRange.Duration())

	query := `
	SELECT timestamp, total_usage, usage_limit
	FROM usage_snapshots
	WHERE timestamp >= ?
	ORDER BY timestamp ASC`

	rows, err := db.QueryContext(context.Background(), query, since.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query usage series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []models.UsagePoint
	for rows.Next() {
		var tsStr string
		var point models.UsagePoint
		if err := rows.Scan(&tsStr, &point.TotalUsage, &point.UsageLimit); err != nil {
			return nil, fmt.Errorf("failed to scan usage point: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, tsStr); err == nil {
			point.Timestamp = ts
		}
		if point.UsageLimit > 0 {
			point.Percent = float64(point.TotalUsage) / float64(point.UsageLimit) * 100
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read usage series: %w", err)
	}

	return downsample(points, maxPoints), nil
}

// Count returns the number of stored snapshots.
func (db *DB) Count() (int, error) {
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM usage_snapshots").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

// Prune deletes snapshots older than the retention window and returns how
// many were removed.
func (db *DB) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	result, err := db.ExecContext(context.Background(),
		"DELETE FROM usage_snapshots WHERE timestamp < ?", cutoff.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}

// downsample keeps an evenly spaced subset of points, always retaining the
// most recent one.
func downsample(points []models.UsagePoint, maxPoints int) []models.UsagePoint {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return points
	}
	if maxPoints == 1 {
		return points[len(points)-1:]
	}

	step := float64(len(points)-1) / float64(maxPoints-1)
	out := make([]models.UsagePoint, 0, maxPoints)
	for i := 0; i < maxPoints; i++ {
		out = append(out, points[int(float64(i)*step)])
	}
	out[len(out)-1] = points[len(points)-1]
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
