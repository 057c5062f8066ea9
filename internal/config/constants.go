package config

import "time"

// Vendor API configuration.
const (
	APIBaseURL = "https://app.augmentcode.com/api"
	WebBaseURL = "https://app.augmentcode.com"

	EndpointCredits = "/credits"
	EndpointUser    = "/user"

	HTTPUserAgent = "augment-usage-tui/1.0"
)

// Business constants. The values come from the vendor's observed behavior
// rather than any documented contract, so they live here as named constants
// instead of literals at the call sites.
const (
	// HTTPTimeout bounds every API call; there is no in-flight cancellation.
	HTTPTimeout = 30 * time.Second

	// StaleAfter is how long a session cookie is trusted after it was set.
	StaleAfter = 20 * time.Hour

	// MinRefreshInterval and MaxRefreshInterval bound SetInterval input.
	MinRefreshInterval = 5 * time.Second
	MaxRefreshInterval = 3600 * time.Second

	// HistoryRetention is how long usage snapshots are kept before startup
	// pruning removes them.
	HistoryRetention = 90 * 24 * time.Hour
)
