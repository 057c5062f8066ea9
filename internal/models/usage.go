// Package models defines the data structures shared across services and UI.
package models

import "time"

// UsageSource identifies which response shape a usage snapshot was decoded from.
type UsageSource int

const (
	// SourceUnknown means the snapshot was never fetched (zero value).
	SourceUnknown UsageSource = iota
	// SourceCredits means the credits API shape (usageUnitsUsedThisBillingCycle).
	SourceCredits
	// SourceSubscription means the subscription API shape (creditsRenewingEachBillingCycle).
	SourceSubscription
	// SourceFallback means the generic key-scan fallback.
	SourceFallback
)

// UsageData is an immutable point-in-time record of account usage.
// A new value is created on every successful fetch; holders replace the
// whole record rather than mutating fields.
type UsageData struct {
	TotalUsage       int
	UsageLimit       int
	DailyUsage       int
	MonthlyUsage     int
	LastUpdate       *time.Time
	SubscriptionType string
	RenewalDate      string

	// Source records which extraction rule produced the values.
	// Confident is false when the fallback rule fired without matching a
	// single numeric key, so a zero snapshot can be told apart from a body
	// the decoder did not recognize.
	Source    UsageSource
	Confident bool
}

// UsagePercentage returns floor(100*used/limit), or 0 when there is no limit.
func (u UsageData) UsagePercentage() int {
	if u.UsageLimit <= 0 {
		return 0
	}
	return u.TotalUsage * 100 / u.UsageLimit
}

// RemainingUsage returns the unused portion of the limit, never negative.
func (u UsageData) RemainingUsage() int {
	return max(0, u.UsageLimit-u.TotalUsage)
}

// IsNearLimit reports whether usage is at or above 90% of the limit.
func (u UsageData) IsNearLimit() bool {
	return u.UsagePercentage() >= 90
}

// IsAtWarningLevel reports whether usage is at or above 75% of the limit.
func (u UsageData) IsAtWarningLevel() bool {
	return u.UsagePercentage() >= 75
}
