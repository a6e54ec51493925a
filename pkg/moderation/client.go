package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clipway/pkg/config"
)

// ErrServiceUnavailable marks a transport-level classification failure. It is
// a distinct outcome from a failed report: a moderation-service outage must
// never be treated as a content violation.
var ErrServiceUnavailable = errors.New("moderation service unavailable")

// DefaultModels is the fixed set of category models requested for every
// classification.
var DefaultModels = []string{"nudity", "weapon", "drugs", "gore", "gambling", "self-harm", "violence"}

type Client struct {
	endpoint   string
	apiUser    string
	apiSecret  string
	models     []string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		endpoint:  cfg.ModerationEndpoint,
		apiUser:   cfg.ModerationAPIUser,
		apiSecret: cfg.ModerationAPISecret,
		models:    DefaultModels,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Enabled reports whether classification credentials are configured. When
// false the gate runs in degraded mode and callers store EmptyReport.
func (c *Client) Enabled() bool {
	return c.apiUser != "" && c.apiSecret != ""
}

// Classify submits one synchronous classification request for a public media
// URL and evaluates the returned per-frame scores.
func (c *Client) Classify(ctx context.Context, streamURL string) (*Report, error) {
	query := url.Values{}
	query.Set("stream_url", streamURL)
	query.Set("models", strings.Join(c.models, ","))
	query.Set("api_user", c.apiUser)
	query.Set("api_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classification request failed: %w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classification response: %w", ErrServiceUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("classification returned status %d: %w", resp.StatusCode, ErrServiceUnavailable)
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed classification response: %w", ErrServiceUnavailable)
	}
	if parsed.Status != "" && parsed.Status != "success" {
		return nil, fmt.Errorf("classification reported status %q: %w", parsed.Status, ErrServiceUnavailable)
	}

	violations := evaluate(&parsed, c.models)
	return &Report{
		Passed:     len(violations) == 0,
		Violations: violations,
		Raw:        json.RawMessage(body),
	}, nil
}
