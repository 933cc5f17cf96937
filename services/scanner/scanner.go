// Package scanner implements the periodic SMA crossover scan. Each run walks
// the tracked-stock list strictly sequentially, fetches fresh price and
// 200-day SMA data per symbol, fires one email per downward crossover and
// persists the observed status so the transition is not re-fired on the next
// run. Pacing between symbols keeps the batch inside the market-data
// provider's request budget.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/KarlMeierMattern/stock-signals/models"
	"github.com/KarlMeierMattern/stock-signals/services/marketdata"
	"github.com/KarlMeierMattern/stock-signals/services/notify"
)

// StockStore is the slice of the store the scanner needs.
type StockStore interface {
	ListTrackedStocks() ([]models.TrackedStock, error)
	UpdateScanStatus(id uuid.UUID, status string, name *string) error
	AppendAlert(alert *models.Alert) error
}

// MarketData fetches the per-symbol snapshot.
type MarketData interface {
	GetStockData(ctx context.Context, symbol string) (*marketdata.StockData, error)
}

// PacingPolicy controls how a scan spreads upstream calls over time.
// CallsPerSymbol documents the per-symbol request cost; Delay must be long
// enough that CallsPerSymbol calls every Delay stay under the provider's
// documented rate ceiling.
type PacingPolicy struct {
	Delay          time.Duration
	CallsPerSymbol int
}

// DefaultPacing fits Twelve Data's free tier of 8 requests per minute:
// 2 calls per symbol every 16s is 7.5 calls per minute.
var DefaultPacing = PacingPolicy{Delay: 16 * time.Second, CallsPerSymbol: 2}

// ScanResult reports the outcome for one symbol in one scan.
type ScanResult struct {
	Symbol  string          `json:"symbol"`
	Price   decimal.Decimal `json:"price"`
	SMA200  decimal.Decimal `json:"sma200"`
	Status  string          `json:"status"`
	Alerted bool            `json:"alerted"`
	Error   string          `json:"error,omitempty"`
}

// Summary is the batch response returned by the scan trigger endpoint.
type Summary struct {
	Processed int          `json:"processed"`
	Alerted   int          `json:"alerted"`
	Errors    int          `json:"errors"`
	Results   []ScanResult `json:"results"`
}

// Summarize folds a result batch into the trigger endpoint's counts.
func Summarize(results []ScanResult) Summary {
	summary := Summary{Processed: len(results), Results: results}
	for _, r := range results {
		if r.Alerted {
			summary.Alerted++
		}
		if r.Error != "" {
			summary.Errors++
		}
	}
	return summary
}

// Scanner runs the crossover scan. Runs are expected to be scheduled without
// overlap; the loop holds no lock against a concurrent Scan call.
type Scanner struct {
	store    StockStore
	market   MarketData
	notifier notify.Notifier
	pacing   PacingPolicy
}

func New(store StockStore, market MarketData, notifier notify.Notifier, pacing PacingPolicy) *Scanner {
	if pacing.CallsPerSymbol == 0 {
		pacing.CallsPerSymbol = DefaultPacing.CallsPerSymbol
	}
	return &Scanner{
		store:    store,
		market:   market,
		notifier: notifier,
		pacing:   pacing,
	}
}

// Scan runs one full sequential pass over all tracked stocks and returns one
// result per stock, preserving store order. Per-symbol failures are contained
// in the result's Error field; only a failure to read the tracked-stock list
// is fatal.
func (s *Scanner) Scan(ctx context.Context) ([]ScanResult, error) {
	stocks, err := s.store.ListTrackedStocks()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stocks: %w", err)
	}
	if len(stocks) == 0 {
		return []ScanResult{}, nil
	}

	log.Info().Int("stocks", len(stocks)).Dur("delay", s.pacing.Delay).Msg("Starting SMA scan")

	// Burst 1 means the first symbol proceeds immediately and no wait
	// trails the final symbol.
	limiter := rate.NewLimiter(rate.Every(s.pacing.Delay), 1)

	results := make([]ScanResult, 0, len(stocks))
	for _, stock := range stocks {
		if err := limiter.Wait(ctx); err != nil {
			return results, fmt.Errorf("scan interrupted: %w", err)
		}
		results = append(results, s.scanStock(ctx, stock))
	}

	return results, nil
}

// scanStock processes a single tracked stock. Every failure path returns a
// result instead of an error so one symbol can never abort the batch. The
// stage prefixes on Error distinguish a fetch failure from a notification,
// alert-recording or persist failure.
func (s *Scanner) scanStock(ctx context.Context, stock models.TrackedStock) ScanResult {
	data, err := s.market.GetStockData(ctx, stock.Symbol)
	if err != nil {
		log.Warn().Str("symbol", stock.Symbol).Err(err).Msg("Fetch failed")
		return errorResult(stock.Symbol, fmt.Sprintf("fetch %s: %v", stock.Symbol, err))
	}

	// Equality counts as above: only a strict drop below the SMA is a
	// downward status.
	status := models.StatusAbove
	if data.Price.LessThan(data.SMA200) {
		status = models.StatusBelow
	}

	// One-way edge trigger: alert only on the transition into below. An
	// unset last status counts as not-below, so a stock's very first below
	// reading fires.
	crossedBelow := status == models.StatusBelow &&
		(stock.LastSMAStatus == nil || *stock.LastSMAStatus != models.StatusBelow)

	if crossedBelow {
		percentBelow := data.SMA200.Sub(data.Price).Div(data.SMA200).Mul(decimal.NewFromInt(100))

		name := data.Name
		if name == "" {
			name = stock.Symbol
		}

		signal := notify.Signal{
			Symbol:       data.Symbol,
			Name:         name,
			Price:        data.Price,
			SMA200:       data.SMA200,
			PercentBelow: percentBelow,
		}
		if err := s.notifier.Send(ctx, signal); err != nil {
			// Status is deliberately not persisted so the crossover
			// re-fires on the next scan instead of being lost.
			log.Error().Str("symbol", stock.Symbol).Err(err).Msg("Alert email failed")
			return errorResult(stock.Symbol, fmt.Sprintf("send alert email: %v", err))
		}

		alert := &models.Alert{
			StockID:     stock.ID,
			Symbol:      stock.Symbol,
			Price:       data.Price,
			SMA200:      data.SMA200,
			TriggeredAt: time.Now(),
		}
		if err := s.store.AppendAlert(alert); err != nil {
			log.Error().Str("symbol", stock.Symbol).Err(err).Msg("Alert record failed")
			return errorResult(stock.Symbol, fmt.Sprintf("record alert: %v", err))
		}

		log.Info().
			Str("symbol", stock.Symbol).
			Str("price", data.Price.String()).
			Str("sma200", data.SMA200.String()).
			Str("percent_below", percentBelow.StringFixed(2)).
			Msg("Crossover alert fired")
	}

	result := ScanResult{
		Symbol:  stock.Symbol,
		Price:   data.Price,
		SMA200:  data.SMA200,
		Status:  status,
		Alerted: crossedBelow,
	}

	// Persist unconditionally so the next scan sees this run's status. The
	// refreshed name is preferred; a stock keeps its stored name when the
	// fetcher resolves none.
	name := stock.Name
	if data.Name != "" {
		name = &data.Name
	}
	if err := s.store.UpdateScanStatus(stock.ID, status, name); err != nil {
		// Surfaced on the result rather than masked by the earlier
		// success; the real readings stay in place.
		log.Error().Str("symbol", stock.Symbol).Err(err).Msg("Status persist failed")
		result.Error = fmt.Sprintf("persist status: %v", err)
	}

	return result
}

// errorResult mirrors the failed-symbol shape: zeroed readings, not alerted.
func errorResult(symbol, msg string) ScanResult {
	return ScanResult{
		Symbol: symbol,
		Status: models.StatusAbove,
		Error:  msg,
	}
}
