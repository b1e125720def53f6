// Package folio provides a Go client for the folio-server API.
package folio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"folio/internal/httpapi"
)

// Report is the render-ready analytics bundle returned by the server.
type Report = httpapi.ReportResponse

// Run is one logged report run.
type Run = httpapi.RunJSON

// ReportRequest selects what GetReport asks the server for. The zero value
// requests the server's default ticker list and lookback window.
type ReportRequest struct {
	Tickers   []string
	Start     time.Time
	End       time.Time
	Rebalance bool
}

// Client talks to a folio-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (r ReportRequest) query() url.Values {
	q := url.Values{}
	if len(r.Tickers) > 0 {
		q.Set("tickers", strings.Join(r.Tickers, ","))
	}
	if !r.Start.IsZero() {
		q.Set("start", r.Start.Format("2006-01-02"))
	}
	if !r.End.IsZero() {
		q.Set("end", r.End.Format("2006-01-02"))
	}
	if r.Rebalance {
		q.Set("rebalance", "true")
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("GET %s: %s (status %d)", path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// GetReport runs a report on the server and returns the result.
func (c *Client) GetReport(ctx context.Context, req ReportRequest) (*Report, error) {
	var rep Report
	if err := c.get(ctx, "/api/report", req.query(), &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// GetChart fetches one rendered report chart as PNG bytes. Kind is one of
// "price", "cumreturn", "portfolio", or "weights".
func (c *Client) GetChart(ctx context.Context, kind string, req ReportRequest) ([]byte, error) {
	u := c.baseURL + "/api/report/chart/" + url.PathEscape(kind)
	if q := req.query(); len(q) > 0 {
		u += "?" + q.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET chart %s: status %d", kind, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// GetRuns lists recent report runs, newest first.
func (c *Client) GetRuns(ctx context.Context, limit int) ([]Run, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp httpapi.RunsResponse
	if err := c.get(ctx, "/api/runs", q, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}
