// Package horizon provides a client for the Horizon ledger API
package horizon

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

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/interfaces"
	"github.com/dandalion98/s-portfolio/internal/models"
)

const (
	DefaultBaseURL   = "https://horizon.stellar.org"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultPageLimit = 200

	// dayResolutionMS is the only aggregation resolution the valuation
	// layer uses (one bucket per day).
	dayResolutionMS = 86400000
)

// Client implements the LedgerClient interface against a Horizon server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	pageLimit  int
}

var _ interfaces.LedgerClient = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithPageLimit sets the page size for paginated endpoints
func WithPageLimit(limit int) ClientOption {
	return func(c *Client) {
		c.pageLimit = limit
	}
}

// NewClient creates a new Horizon client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:    common.NewSilentLogger(),
		pageLimit: DefaultPageLimit,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a Horizon API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("horizon API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", reqURL).Msg("Horizon API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// effectsPage is one page of the effects endpoint.
type effectsPage struct {
	Embedded struct {
		Records []models.RawEffect `json:"records"`
	} `json:"_embedded"`
}

// ListEffects pages through the account's effects newest-first and stops
// once it reaches sinceEffectID (exclusive) or the end of history.
func (c *Client) ListEffects(ctx context.Context, account string, sinceEffectID string) ([]models.RawEffect, error) {
	path := fmt.Sprintf("/accounts/%s/effects", account)

	var effects []models.RawEffect
	cursor := ""
	for {
		params := url.Values{}
		params.Set("order", "desc")
		params.Set("limit", strconv.Itoa(c.pageLimit))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var page effectsPage
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, err
		}
		if len(page.Embedded.Records) == 0 {
			return effects, nil
		}

		for _, rec := range page.Embedded.Records {
			if sinceEffectID != "" && rec.ID == sinceEffectID {
				return effects, nil
			}
			effects = append(effects, rec)
		}

		if len(page.Embedded.Records) < c.pageLimit {
			return effects, nil
		}
		cursor = page.Embedded.Records[len(page.Embedded.Records)-1].PagingToken
	}
}

// accountResponse is the subset of the account endpoint we consume.
type accountResponse struct {
	Balances []struct {
		Balance     string `json:"balance"`
		AssetType   string `json:"asset_type"`
		AssetCode   string `json:"asset_code"`
		AssetIssuer string `json:"asset_issuer"`
	} `json:"balances"`
}

// GetBalances returns the account's current balances keyed by normalized
// asset id.
func (c *Client) GetBalances(ctx context.Context, account string) (models.Balance, error) {
	path := fmt.Sprintf("/accounts/%s", account)

	var resp accountResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	balance := make(models.Balance, len(resp.Balances))
	for _, b := range resp.Balances {
		amount, err := decimal.NewFromString(b.Balance)
		if err != nil {
			return nil, fmt.Errorf("bad balance %q for account %s: %w", b.Balance, account, err)
		}
		balance[models.AssetID(b.AssetType, b.AssetCode, b.AssetIssuer)] = amount
	}
	return balance, nil
}

// tradeAggPage is one page of the trade_aggregations endpoint. Horizon
// returns the bucket timestamp as string milliseconds.
type tradeAggPage struct {
	Embedded struct {
		Records []struct {
			Timestamp string `json:"timestamp"`
			Close     string `json:"close"`
		} `json:"records"`
	} `json:"_embedded"`
}

// splitTicker breaks a "CODE-ISSUER" asset id into its parts.
func splitTicker(ticker string) (code, issuer string, err error) {
	idx := strings.Index(ticker, "-")
	if idx <= 0 || idx == len(ticker)-1 {
		return "", "", fmt.Errorf("malformed asset ticker %q", ticker)
	}
	return ticker[:idx], ticker[idx+1:], nil
}

// TradeAggregations returns daily close prices for the asset against the
// native asset over [start, end], newest-first.
func (c *Client) TradeAggregations(ctx context.Context, asset string, start, end time.Time) ([]models.TradeAggregation, error) {
	code, issuer, err := splitTicker(asset)
	if err != nil {
		return nil, err
	}

	assetType := "credit_alphanum4"
	if len(code) > 4 {
		assetType = "credit_alphanum12"
	}

	params := url.Values{}
	params.Set("base_asset_type", assetType)
	params.Set("base_asset_code", code)
	params.Set("base_asset_issuer", issuer)
	params.Set("counter_asset_type", "native")
	params.Set("start_time", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("end_time", strconv.FormatInt(end.UnixMilli(), 10))
	params.Set("resolution", strconv.Itoa(dayResolutionMS))
	params.Set("order", "desc")
	params.Set("limit", strconv.Itoa(c.pageLimit))

	var page tradeAggPage
	if err := c.get(ctx, "/trade_aggregations", params, &page); err != nil {
		return nil, err
	}

	records := make([]models.TradeAggregation, 0, len(page.Embedded.Records))
	for _, rec := range page.Embedded.Records {
		ms, err := strconv.ParseInt(rec.Timestamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad aggregation timestamp %q: %w", rec.Timestamp, err)
		}
		closePrice, err := decimal.NewFromString(rec.Close)
		if err != nil {
			return nil, fmt.Errorf("bad aggregation close %q: %w", rec.Close, err)
		}
		records = append(records, models.TradeAggregation{
			Timestamp: time.UnixMilli(ms).UTC(),
			Close:     closePrice,
		})
	}
	return records, nil
}
