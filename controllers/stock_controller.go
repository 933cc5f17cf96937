package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/KarlMeierMattern/stock-signals/services/marketdata"
	"github.com/KarlMeierMattern/stock-signals/store"
)

// recentAlertLimit bounds the alerts listing.
const recentAlertLimit = 50

// maxSymbolLength matches the validation applied on insert.
const maxSymbolLength = 10

// QuoteResolver validates that a symbol resolves to a real instrument before
// it is tracked.
type QuoteResolver interface {
	GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error)
}

// StockController handles tracked-stock management requests
type StockController struct {
	store  *store.StockStore
	market QuoteResolver
}

// NewStockController creates a new stock controller
func NewStockController(stockStore *store.StockStore, market QuoteResolver) *StockController {
	return &StockController{
		store:  stockStore,
		market: market,
	}
}

// GetStocks returns all tracked stocks, newest first
// GET /api/v1/stocks
func (sc *StockController) GetStocks(c *gin.Context) {
	stocks, err := sc.store.ListTrackedStocks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stocks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stocks": stocks})
}

// AddStock validates a symbol against the market-data API and tracks it
// POST /api/v1/stocks
func (sc *StockController) AddStock(c *gin.Context) {
	var request struct {
		Symbol string `json:"symbol"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(request.Symbol))
	if symbol == "" || len(symbol) > maxSymbolLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Symbol must be 1-10 characters"})
		return
	}

	exists, err := sc.store.SymbolExists(symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check symbol"})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%s is already in your portfolio", symbol)})
		return
	}

	// Symbol validation via the market-data API: a symbol that does not
	// resolve to a quote is rejected before it reaches the store.
	var name *string
	quote, err := sc.market.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		log.Warn().Str("symbol", symbol).Err(err).Msg("Symbol validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid or unsupported symbol: %s", symbol)})
		return
	}
	if quote.Name != "" {
		name = &quote.Name
	}

	stock, err := sc.store.InsertTrackedStock(symbol, name)
	if err != nil {
		if errors.Is(err, store.ErrSymbolExists) {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%s is already in your portfolio", symbol)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stock"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"stock": stock})
}

// DeleteStock removes a tracked stock by id
// DELETE /api/v1/stocks/:id
func (sc *StockController) DeleteStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stock ID"})
		return
	}

	if err := sc.store.DeleteTrackedStock(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GetAlerts returns the most recent alerts, newest first
// GET /api/v1/alerts
func (sc *StockController) GetAlerts(c *gin.Context) {
	alerts, err := sc.store.RecentAlerts(recentAlertLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
