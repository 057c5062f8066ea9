// Package auth owns the session credential: validation, staleness tracking,
// and change notification.
package auth

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// sessionMarker is the cookie name the vendor's web app authenticates with.
	sessionMarker = "_session="

	// minCookieLength rejects obviously truncated paste jobs.
	minCookieLength = 50
)

var (
	sessionPattern    = regexp.MustCompile(`_session=([^;\s]+)`)
	jwtPattern        = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ValidationError describes why a credential was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid credential: %s", e.Reason)
}

// Clean trims a raw cookie string and collapses internal whitespace and
// newlines to single spaces.
func Clean(raw string) string {
	return whitespacePattern.ReplaceAllString(strings.TrimSpace(raw), " ")
}

// Normalize cleans and validates a raw cookie string, returning the value in
// storable form. A bare JWT-shaped token is accepted and gets the session
// marker prefixed so the stored value is always usable as a Cookie header.
// The empty string is not valid input here; callers treat blank as a clear.
func Normalize(raw string) (string, error) {
	cleaned := Clean(raw)
	if cleaned == "" {
		return "", &ValidationError{Reason: "cookie is empty"}
	}

	if len(cleaned) < minCookieLength {
		return "", &ValidationError{Reason: fmt.Sprintf("cookie too short (%d chars, need at least %d)", len(cleaned), minCookieLength)}
	}

	if m := sessionPattern.FindStringSubmatch(cleaned); m != nil {
		if m[1] == "" {
			return "", &ValidationError{Reason: "session marker present but value is empty"}
		}
		return cleaned, nil
	}

	if jwtPattern.MatchString(cleaned) {
		return sessionMarker + cleaned, nil
	}

	return "", &ValidationError{Reason: "no session marker found and value is not a JWT-shaped token"}
}

// ExtractSessionValue pulls the session value out of a full cookie string.
// Returns "" when no marker is present.
func ExtractSessionValue(cookie string) string {
	if m := sessionPattern.FindStringSubmatch(cookie); m != nil {
		return m[1]
	}
	return ""
}

// SanitizeForLogging masks the session value so credentials never land in
// logs verbatim.
func SanitizeForLogging(cookie string) string {
	if cookie == "" {
		return "[empty]"
	}
	value := ExtractSessionValue(cookie)
	if len(value) > 20 {
		return fmt.Sprintf("_session=%s...%s", value[:10], value[len(value)-10:])
	}
	return "[invalid format]"
}
