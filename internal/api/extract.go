package api

import (
	"encoding/json"

	"github.com/j-veylop/augment-usage-tui/internal/logger"
	"github.com/j-veylop/augment-usage-tui/internal/models"
)

// Key lists tried in order for the generic fallback shape. A key only
// counts when it exists and holds a scalar of the expected kind; type
// mismatches are skipped, not errors.
var (
	usedKeys    = []string{"totalUsage", "usage", "credits_used", "used"}
	limitKeys   = []string{"usageLimit", "limit", "credits_limit", "total"}
	dailyKeys   = []string{"dailyUsage", "daily", "today"}
	monthlyKeys = []string{"monthlyUsage", "monthly", "month"}

	subscriptionKeys = []string{"subscriptionType", "plan", "subscription"}
	renewalKeys      = []string{"renewalDate", "renewal", "expires"}

	emailKeys = []string{"email", "user_email", "userEmail"}
	nameKeys  = []string{"name", "username", "user_name", "displayName"}
	planKeys  = []string{"plan", "subscription", "subscriptionType"}
)

// parseUsageResponse decodes one of the three response shapes the credits
// endpoint has been observed to return. The first rule whose primary key is
// present wins; there is no fallthrough after that.
func parseUsageResponse(body []byte) (*models.UsageData, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		logger.Error("failed to parse usage response", "error", err)
		return nil, &StatusError{Code: 0, Message: "failed to parse usage response"}
	}

	usage := &models.UsageData{Confident: true}

	switch {
	case hasKey(obj, "usageUnitsUsedThisBillingCycle"):
		used := extractInt(obj, "usageUnitsUsedThisBillingCycle")
		available := extractInt(obj, "usageUnitsAvailable")
		usage.TotalUsage = used
		usage.UsageLimit = used + available
		usage.DailyUsage = used
		usage.MonthlyUsage = used
		usage.Source = models.SourceCredits

	case hasKey(obj, "creditsRenewingEachBillingCycle"):
		included := extractInt(obj, "creditsIncludedThisBillingCycle")
		renewing := extractInt(obj, "creditsRenewingEachBillingCycle")
		usage.TotalUsage = included - renewing
		usage.UsageLimit = included
		usage.DailyUsage = 0
		usage.MonthlyUsage = usage.TotalUsage
		usage.Source = models.SourceSubscription

	default:
		var matched bool
		usage.TotalUsage, matched = firstInt(obj, usedKeys, matched)
		usage.UsageLimit, matched = firstInt(obj, limitKeys, matched)
		usage.DailyUsage, matched = firstInt(obj, dailyKeys, matched)
		usage.MonthlyUsage, matched = firstInt(obj, monthlyKeys, matched)
		usage.Source = models.SourceFallback
		// With no recognized numeric key the zero snapshot could just as
		// well mean an unrelated body; flag it so callers can tell.
		usage.Confident = matched
	}

	usage.SubscriptionType = firstString(obj, subscriptionKeys)
	usage.RenewalDate = firstString(obj, renewalKeys)

	return usage, nil
}

// parseUserResponse decodes account details using first-matching-key
// extraction.
func parseUserResponse(body []byte) (*models.UserInfo, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		logger.Error("failed to parse user response", "error", err)
		return nil, &StatusError{Code: 0, Message: "failed to parse user response"}
	}

	return &models.UserInfo{
		Email: firstString(obj, emailKeys),
		Name:  firstString(obj, nameKeys),
		Plan:  firstString(obj, planKeys),
	}, nil
}

func hasKey(obj map[string]any, key string) bool {
	_, ok := obj[key]
	return ok
}

// extractInt returns the key's value as an int, or 0 when the key is absent
// or not numeric. JSON numbers decode as float64.
func extractInt(obj map[string]any, key string) int {
	if v, ok := obj[key].(float64); ok {
		return int(v)
	}
	return 0
}

// firstInt returns the first present-and-numeric value among keys, carrying
// forward whether any key in any list has matched so far.
func firstInt(obj map[string]any, keys []string, matchedSoFar bool) (int, bool) {
	for _, key := range keys {
		if v, ok := obj[key].(float64); ok {
			return int(v), true
		}
	}
	return 0, matchedSoFar
}

// firstString returns the first present-and-string value among keys, or "".
func firstString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok {
			return v
		}
	}
	return ""
}
