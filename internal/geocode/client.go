// Package geocode resolves free-text addresses to coordinates through an
// external geocoding provider, paced to stay inside the provider's quota.
package geocode

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

	"golang.org/x/time/rate"

	"github.com/mapguri/facility-flow/internal/model"
)

// Waiter paces outbound requests. *rate.Limiter satisfies it; tests inject a
// no-op implementation so they run without real delays.
type Waiter interface {
	Wait(ctx context.Context) error
}

// DefaultInterval is the minimum spacing between provider calls.
const DefaultInterval = 100 * time.Millisecond

// Client calls the geocoding provider. Provider and network failures are
// degraded to a nil result rather than surfaced: the classification engine
// has fallback rules for missing geocodes, and retrying here would burn quota.
type Client struct {
	httpClient *http.Client
	pacer      Waiter
	baseURL    string
	apiKey     string
}

// Provider response shape: documents-style address search.
type searchResponse struct {
	Documents []document `json:"documents"`
}

type document struct {
	AddressName string `json:"address_name"`
	Y           string `json:"y"` // latitude
	X           string `json:"x"` // longitude
}

// NewClient creates a geocoding client with the default fixed-interval pacer.
func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithPacer(baseURL, apiKey, rate.NewLimiter(rate.Every(DefaultInterval), 1))
}

// NewClientWithPacer creates a geocoding client with an injected pacer.
func NewClientWithPacer(baseURL, apiKey string, pacer Waiter) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		pacer:   pacer,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// Geocode resolves one address. Returns (nil, nil) for an empty address, no
// match, or any provider failure. The only error returned is context
// cancellation, which must stop the run.
func (c *Client) Geocode(ctx context.Context, address string) (*model.GeocodeResult, error) {
	if address == "" {
		return nil, nil
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + "/v2/local/search/address.json")
	if err != nil {
		slog.Warn("Invalid geocoder base URL", "error", err)
		return nil, nil
	}
	q := u.Query()
	q.Set("query", address)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Geocode request failed", "error", err)
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("Geocoder returned non-OK status",
			"status", resp.StatusCode,
			"body", string(body))
		return nil, nil
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		slog.Warn("Failed to decode geocoder response", "error", err)
		return nil, nil
	}

	if len(parsed.Documents) == 0 {
		return nil, nil
	}

	doc := parsed.Documents[0]
	lat, latErr := strconv.ParseFloat(doc.Y, 64)
	lng, lngErr := strconv.ParseFloat(doc.X, 64)
	if latErr != nil || lngErr != nil {
		slog.Warn("Geocoder returned unparseable coordinates",
			"y", doc.Y, "x", doc.X)
		return nil, nil
	}

	return &model.GeocodeResult{
		MatchedAddress: doc.AddressName,
		Lat:            lat,
		Lng:            lng,
	}, nil
}
