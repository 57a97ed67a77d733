// Package reportapi turns query descriptors into report links, either by
// calling the report backend or by formatting a download link locally.
package reportapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/observability"
)

// ErrEmptyLink is returned when the backend answers 200 without a link.
var ErrEmptyLink = errors.New("report backend returned no link")

// Client implements report.Generator against the report backend.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a report backend client posting to url.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Generate posts the descriptor and returns the link from the response.
func (c *Client) Generate(ctx context.Context, q domain.QueryDescriptor) (string, error) {
	body, err := json.Marshal(newRequest(q))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ReportAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("report request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("report API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Link == "" {
		return "", ErrEmptyLink
	}

	c.logger.Debug("report link generated", "council", q.Council, "types", len(q.RequestTypes))
	return out.Link, nil
}

// Report backend payload types.

type request struct {
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	NCList       []string `json:"ncList"`
	RequestTypes []string `json:"requestTypes"`
}

type response struct {
	Link string `json:"link"`
}

// newRequest maps a descriptor to the backend payload. The backend reads an
// empty ncList as every council.
func newRequest(q domain.QueryDescriptor) request {
	ncs := []string{}
	if q.Council != domain.AllCouncils {
		ncs = append(ncs, q.Council)
	}
	return request{
		StartDate:    q.StartDate.Format(domain.DateLayout),
		EndDate:      q.EndDate.Format(domain.DateLayout),
		NCList:       ncs,
		RequestTypes: q.RequestTypes,
	}
}
