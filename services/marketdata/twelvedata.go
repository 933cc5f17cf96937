// Package marketdata fetches quotes and indicator values from Twelve Data.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the production Twelve Data endpoint.
const DefaultBaseURL = "https://api.twelvedata.com"

var (
	// ErrUnknownSymbol is returned when the API does not recognize a symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrNoSMAData is returned when the SMA series comes back empty.
	ErrNoSMAData = errors.New("no SMA data returned")
)

// Client is a Twelve Data API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Twelve Data client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Quote is the subset of the /quote response the service uses.
type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
}

// StockData is the merged per-symbol snapshot consumed by the scanner.
type StockData struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
	SMA200 decimal.Decimal
}

// quoteResponse mirrors the /quote wire format. Prices arrive as strings.
type quoteResponse struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Close  string `json:"close"`
}

// smaResponse mirrors the /sma wire format.
type smaResponse struct {
	Values []struct {
		Datetime string `json:"datetime"`
		SMA      string `json:"sma"`
	} `json:"values"`
}

// apiError is Twelve Data's error envelope, delivered with HTTP 200.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twelve data request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twelve data API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	// Error payloads come back with HTTP 200 and status "error".
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Status == "error" {
		if apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrUnknownSymbol, apiErr.Message)
		}
		return fmt.Errorf("twelve data API error: %s", apiErr.Message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// GetQuote returns the latest close price and resolved company name.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{"symbol": {symbol}}

	var out quoteResponse
	if err := c.get(ctx, "/quote", params, &out); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(out.Close)
	if err != nil {
		return nil, fmt.Errorf("failed to parse close price %q for %s: %w", out.Close, symbol, err)
	}

	return &Quote{Symbol: out.Symbol, Name: out.Name, Price: price}, nil
}

// GetSMA200 returns the most recent 200-day simple moving average.
func (c *Client) GetSMA200(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := url.Values{
		"symbol":      {symbol},
		"interval":    {"1day"},
		"time_period": {"200"},
		"outputsize":  {"1"},
	}

	var out smaResponse
	if err := c.get(ctx, "/sma", params, &out); err != nil {
		return decimal.Zero, err
	}

	if len(out.Values) == 0 {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoSMAData, symbol)
	}

	sma, err := decimal.NewFromString(out.Values[0].SMA)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse sma value %q for %s: %w", out.Values[0].SMA, symbol, err)
	}
	return sma, nil
}

// GetStockData fetches the quote and 200-day SMA for one symbol. The two
// calls are independent reads and run concurrently; the scanner still
// processes symbols strictly one at a time.
func (c *Client) GetStockData(ctx context.Context, symbol string) (*StockData, error) {
	var (
		quote *Quote
		sma   decimal.Decimal
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := c.GetQuote(ctx, symbol)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		v, err := c.GetSMA200(ctx, symbol)
		if err != nil {
			return err
		}
		sma = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &StockData{
		Symbol: quote.Symbol,
		Name:   quote.Name,
		Price:  quote.Price,
		SMA200: sma,
	}, nil
}
