package market

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

	"cointrack/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	maxIDsPerCall  = 100
	MaxPerPage     = 250
)

type ChartPoint struct {
	Timestamp time.Time
	PriceUSD  decimal.Decimal
}

// MarketCoin is one row of the market-cap ranked coin listing.
type MarketCoin struct {
	ID                       string          `json:"id"`
	Symbol                   string          `json:"symbol"`
	Name                     string          `json:"name"`
	Image                    string          `json:"image"`
	CurrentPrice             decimal.Decimal `json:"current_price"`
	MarketCap                decimal.Decimal `json:"market_cap"`
	MarketCapRank            int             `json:"market_cap_rank"`
	TotalVolume              decimal.Decimal `json:"total_volume"`
	PriceChangePercentage24h decimal.Decimal `json:"price_change_percentage_24h"`
}

// Client talks to the public CoinGecko REST API. Calls share a rate limiter.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Logger
}

// NewClient builds a client allowing rps requests per second; rps <= 0
// disables limiting.
func NewClient(baseURL, apiKey string, rps float64, log *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
	}
}

// SimplePrices returns the USD price of each id CoinGecko knows about.
// Unknown ids are absent from the result.
func (c *Client) SimplePrices(ctx context.Context, ids []string) (models.Prices, error) {
	out := models.Prices{}
	for start := 0; start < len(ids); start += maxIDsPerCall {
		end := start + maxIDsPerCall
		if end > len(ids) {
			end = len(ids)
		}
		values := url.Values{}
		values.Set("ids", strings.Join(ids[start:end], ","))
		values.Set("vs_currencies", "usd")

		var payload map[string]struct {
			USD *decimal.Decimal `json:"usd"`
		}
		if err := c.get(ctx, "/simple/price?"+values.Encode(), &payload); err != nil {
			return nil, err
		}
		for id, v := range payload {
			if v.USD == nil {
				continue
			}
			out[id] = *v.USD
		}
	}
	return out, nil
}

// Markets returns the top perPage coins by market cap, priced in USD.
func (c *Client) Markets(ctx context.Context, perPage int) ([]MarketCoin, error) {
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	values := url.Values{}
	values.Set("vs_currency", "usd")
	values.Set("order", "market_cap_desc")
	values.Set("per_page", strconv.Itoa(perPage))
	values.Set("page", "1")
	values.Set("sparkline", "false")
	values.Set("price_change_percentage", "24h")

	var coins []MarketCoin
	if err := c.get(ctx, "/coins/markets?"+values.Encode(), &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// MarketChart returns the USD price history of id over the last days.
func (c *Client) MarketChart(ctx context.Context, id string, days int) ([]ChartPoint, error) {
	values := url.Values{}
	values.Set("vs_currency", "usd")
	values.Set("days", strconv.Itoa(days))

	var payload struct {
		Prices [][]decimal.Decimal `json:"prices"`
	}
	if err := c.get(ctx, "/coins/"+url.PathEscape(id)+"/market_chart?"+values.Encode(), &payload); err != nil {
		return nil, err
	}
	points := make([]ChartPoint, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		if len(p) != 2 {
			c.log.Warnf("skipping malformed chart point for %s: %v", id, p)
			continue
		}
		points = append(points, ChartPoint{
			Timestamp: time.UnixMilli(p[0].IntPart()).UTC(),
			PriceUSD:  p[1],
		})
	}
	return points, nil
}

func (c *Client) get(ctx context.Context, path string, into any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("coingecko rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create coingecko request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch coingecko %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("coingecko status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode coingecko response: %w", err)
	}
	return nil
}
