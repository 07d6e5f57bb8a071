// Package collector fetches metric samples from indicator sources.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kpiwatch/kpiwatch/internal/monitor"
)

// maxResponseBytes bounds how much of a metric response is read. Metric
// payloads are tiny; anything larger is a misconfigured source.
const maxResponseBytes = 1 << 20

// metricResponse is the wire format metric sources reply with. Baseline is
// optional; sources without history omit it.
type metricResponse struct {
	Current  float64  `json:"current"`
	Baseline *float64 `json:"baseline,omitempty"`
}

// HTTPCollector collects samples by querying the indicator's source URL.
// The collection window is passed as a window_minutes query parameter so
// the source can aggregate over the requested period.
type HTTPCollector struct {
	client *http.Client
}

// NewHTTPCollector returns an HTTPCollector using the given client.
// A nil client falls back to a default with a conservative timeout;
// per-run deadlines are still enforced through the request context.
func NewHTTPCollector(client *http.Client) *HTTPCollector {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPCollector{client: client}
}

// Collect fetches the current value and optional baseline from sourceRef.
func (c *HTTPCollector) Collect(ctx context.Context, sourceRef string, windowMinutes int) (monitor.Sample, error) {
	reqURL, err := buildURL(sourceRef, windowMinutes)
	if err != nil {
		return monitor.Sample{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return monitor.Sample{}, fmt.Errorf("building metric request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return monitor.Sample{}, fmt.Errorf("fetching metric from %s: %w", sourceRef, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return monitor.Sample{}, fmt.Errorf("metric source %s returned status %d", sourceRef, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return monitor.Sample{}, fmt.Errorf("reading metric response from %s: %w", sourceRef, err)
	}

	var payload metricResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return monitor.Sample{}, fmt.Errorf("decoding metric response from %s: %w", sourceRef, err)
	}

	return monitor.Sample{Current: payload.Current, Baseline: payload.Baseline}, nil
}

func buildURL(sourceRef string, windowMinutes int) (string, error) {
	parsed, err := url.Parse(sourceRef)
	if err != nil {
		return "", fmt.Errorf("invalid source reference %q: %w", sourceRef, err)
	}
	if windowMinutes > 0 {
		query := parsed.Query()
		query.Set("window_minutes", strconv.Itoa(windowMinutes))
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}
