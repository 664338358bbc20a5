// Package boundary checks whether a coordinate falls on plausible national
// landmass: a cheap bounding-box pre-filter, then the land authority.
package boundary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mapguri/facility-flow/internal/service"
)

// National envelope for South Korea including Jeju and the eastern islets.
// Anything outside short-circuits to false without touching the authority.
const (
	MinLat = 33.0
	MaxLat = 38.7
	MinLng = 124.5
	MaxLng = 131.0
)

// InEnvelope is the stage-one bounding-box test.
func InEnvelope(lat, lng float64) bool {
	return lat >= MinLat && lat <= MaxLat && lng >= MinLng && lng <= MaxLng
}

// Validator combines the envelope pre-filter with an authority lookup. Only
// coordinates inside the envelope incur the authority cost.
type Validator struct {
	authority service.LandChecker
}

// NewValidator creates a boundary validator backed by the given authority.
func NewValidator(authority service.LandChecker) *Validator {
	return &Validator{authority: authority}
}

// IsOnLand reports whether the coordinate is a plausible land point.
func (v *Validator) IsOnLand(ctx context.Context, lat, lng float64) (bool, error) {
	if !InEnvelope(lat, lng) {
		return false, nil
	}
	return v.authority.IsOnLand(ctx, lat, lng)
}

// AuthorityClient queries the external land-boundary service. Authority
// failures degrade to "not on land" rather than aborting the row; the
// classification engine routes such rows to review, not rejection.
type AuthorityClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type authorityResponse struct {
	OnLand bool `json:"on_land"`
}

// NewAuthorityClient creates a land-authority client.
func NewAuthorityClient(baseURL, apiKey string) *AuthorityClient {
	return &AuthorityClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// IsOnLand performs the precise point-in-polygon authority query.
func (c *AuthorityClient) IsOnLand(ctx context.Context, lat, lng float64) (bool, error) {
	u, err := url.Parse(c.baseURL + "/land/contains")
	if err != nil {
		return false, fmt.Errorf("invalid land authority base URL: %w", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create land authority request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		slog.Warn("Land authority request failed", "error", err)
		return false, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("Land authority returned non-OK status",
			"status", resp.StatusCode,
			"body", string(body))
		return false, nil
	}

	var parsed authorityResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		slog.Warn("Failed to decode land authority response", "error", err)
		return false, nil
	}

	return parsed.OnLand, nil
}
