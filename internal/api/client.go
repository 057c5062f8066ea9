// Package api implements the authenticated client for the Augment web API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/j-veylop/augment-usage-tui/internal/config"
	"github.com/j-veylop/augment-usage-tui/internal/logger"
	"github.com/j-veylop/augment-usage-tui/internal/models"
)

// ErrNoCredential is returned when a call is attempted without a stored
// session cookie.
var ErrNoCredential = errors.New("no authentication cookie available")

// StatusError is a non-2xx response mapped to a user-facing message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// CredentialSource supplies the cookie attached to every request.
type CredentialSource interface {
	Get() (string, bool)
}

// Client performs the two supported authenticated GET calls. It holds no
// snapshot state; each call is a pure function of (credential, endpoint).
type Client struct {
	baseURL    string
	webURL     string
	creds      CredentialSource
	httpClient *http.Client
}

// NewClient creates a client against the configured base URL.
func NewClient(creds CredentialSource, cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.APIBaseURL,
		webURL:     cfg.WebBaseURL,
		creds:      creds,
		httpClient: &http.Client{Timeout: config.HTTPTimeout},
	}
}

// FetchUsage retrieves and decodes the usage/credits snapshot.
func (c *Client) FetchUsage(ctx context.Context) (*models.UsageData, error) {
	body, err := c.get(ctx, config.EndpointCredits)
	if err != nil {
		return nil, err
	}

	usage, err := parseUsageResponse(body)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	usage.LastUpdate = &now
	return usage, nil
}

// FetchUser retrieves and decodes the account details.
func (c *Client) FetchUser(ctx context.Context) (*models.UserInfo, error) {
	body, err := c.get(ctx, config.EndpointUser)
	if err != nil {
		return nil, err
	}
	return parseUserResponse(body)
}

// TestConnection probes the user endpoint purely for connectivity. Any 200
// counts as success, even with an empty body; decoding is not attempted.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.get(ctx, config.EndpointUser)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusOK {
		return nil
	}
	return err
}

// get performs an authenticated GET and maps the status code to an outcome.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	cookie, ok := c.creds.Get()
	if !ok {
		return nil, ErrNoCredential
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", config.HTTPUserAgent)
	req.Header.Set("Referer", c.webURL)
	req.Header.Set("Origin", c.webURL)
	req.Header.Set("Cookie", cookie)

	logger.Debug("API request", "url", url)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	logger.Debug("API response", "code", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("network error: %w", err)
		}
		if len(body) == 0 {
			return nil, &StatusError{Code: resp.StatusCode, Message: "empty response body"}
		}
		return body, nil

	case resp.StatusCode == http.StatusUnauthorized:
		logger.Warn("authentication failed, cookie may be expired")
		return nil, &StatusError{Code: resp.StatusCode, Message: "authentication required: session cookie expired"}

	case resp.StatusCode == http.StatusForbidden:
		return nil, &StatusError{Code: resp.StatusCode, Message: "access forbidden"}

	case resp.StatusCode == http.StatusNotFound:
		return nil, &StatusError{Code: resp.StatusCode, Message: "API endpoint not found"}

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &StatusError{Code: resp.StatusCode, Message: "rate limited, retry later"}

	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return nil, &StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("server error (%d), retry later", resp.StatusCode)}

	default:
		return nil, &StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("unexpected response code %d", resp.StatusCode)}
	}
}
