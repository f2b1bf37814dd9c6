// Package analyticsapi fetches spending, income and forecast data from a
// remote analytics HTTP API.
package analyticsapi

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

	"github.com/theirongolddev/fcast/internal/model"
)

const (
	requestTimeout = 15 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
)

var (
	// ErrUnauthorized indicates the token is missing, expired or invalid.
	ErrUnauthorized = errors.New("analyticsapi: unauthorized")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("analyticsapi: rate limited")
)

// Client talks to the analytics API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for baseURL. Returns nil if baseURL is empty.
func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
		http:    &http.Client{},
	}
}

// FetchAll fetches spending, income and forecast data.
// Partial data is returned even if some requests fail.
func (c *Client) FetchAll(ctx context.Context, f Filters) *Snapshot {
	snap := &Snapshot{FetchedAt: time.Now()}

	spending, err := c.FetchSpendingTrends(ctx, f)
	if err != nil {
		snap.Error = err
		if errors.Is(err, ErrUnauthorized) {
			return snap
		}
	}
	snap.Spending = spending

	income, incomeErr := c.FetchIncome(ctx, f)
	if incomeErr == nil {
		snap.Income = income
	}
	forecast, forecastErr := c.FetchForecast(ctx, f)
	if forecastErr == nil {
		snap.Forecast = forecast
	}

	if snap.Error == nil {
		if incomeErr != nil {
			snap.Error = incomeErr
		} else if forecastErr != nil {
			snap.Error = forecastErr
		}
	}
	return snap
}

// FetchSpendingTrends returns categorized spend rows.
func (c *Client) FetchSpendingTrends(ctx context.Context, f Filters) ([]SpendingTrend, error) {
	var out []SpendingTrend
	if err := c.getJSON(ctx, "/analytics/spending-trends", f.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchIncome returns income sources.
func (c *Client) FetchIncome(ctx context.Context, f Filters) ([]IncomeSource, error) {
	var out []IncomeSource
	if err := c.getJSON(ctx, "/analytics/income", f.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchForecast returns forecast points.
func (c *Client) FetchForecast(ctx context.Context, f Filters) ([]ForecastPoint, error) {
	var out []ForecastPoint
	if err := c.getJSON(ctx, "/forecasts", f.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f Filters) query() url.Values {
	q := url.Values{}
	if !f.Since.IsZero() {
		q.Set("startDate", f.Since.Format(model.DateLayout))
	}
	if !f.Until.IsZero() {
		q.Set("endDate", f.Until.Format(model.DateLayout))
	}
	if len(f.Categories) > 0 {
		q.Set("categories", strings.Join(f.Categories, ","))
	}
	return q
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	body, err := c.get(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("analyticsapi: parsing %s: %w", path, err)
	}
	return nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("analyticsapi: creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fcast/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyticsapi: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analyticsapi: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("analyticsapi: reading response: %w", err)
	}
	return body, nil
}

// Records converts spending rows to engine records.
func (s *Snapshot) Records() []model.SpendingRecord {
	out := make([]model.SpendingRecord, len(s.Spending))
	for i, t := range s.Spending {
		out[i] = model.SpendingRecord{
			Date:          t.Date,
			Category:      t.Category,
			Amount:        t.Amount,
			IsAnomaly:     t.IsAnomaly,
			AnomalyReason: t.AnomalyReason,
		}
	}
	return out
}

// IncomeSources converts income rows to engine income sources.
func (s *Snapshot) IncomeSources() []model.IncomeSource {
	out := make([]model.IncomeSource, len(s.Income))
	for i, in := range s.Income {
		out[i] = model.IncomeSource{
			Name:       in.Name,
			Amount:     in.Amount,
			Percentage: in.Percentage,
			GrowthRate: in.GrowthRate,
			Stability:  in.Stability,
		}
	}
	return out
}

// Points converts forecast rows, skipping rows with unparseable dates.
func (s *Snapshot) Points() ([]model.ForecastDataPoint, int) {
	out := make([]model.ForecastDataPoint, 0, len(s.Forecast))
	skipped := 0
	for _, p := range s.Forecast {
		d, err := model.ParseDate(p.Date)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, model.ForecastDataPoint{
			Date:            d,
			Actual:          p.Actual,
			Predicted:       p.Predicted,
			ConfidenceLower: p.ConfidenceLower,
			ConfidenceUpper: p.ConfidenceUpper,
		})
	}
	return out, skipped
}
