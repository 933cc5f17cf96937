package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/KarlMeierMattern/stock-signals/config"
	"github.com/KarlMeierMattern/stock-signals/controllers"
	"github.com/KarlMeierMattern/stock-signals/middleware"
	"github.com/KarlMeierMattern/stock-signals/services/marketdata"
	"github.com/KarlMeierMattern/stock-signals/services/notify"
	"github.com/KarlMeierMattern/stock-signals/services/scanner"
	"github.com/KarlMeierMattern/stock-signals/store"
)

// SetupRoutes wires the collaborators and registers all API routes. It
// returns the scanner so the in-process scheduler can share it.
func SetupRoutes(router *gin.Engine, cfg *config.Config, db *gorm.DB) *scanner.Scanner {
	stockStore := store.NewStockStore(db)
	market := marketdata.NewClient(cfg.TwelveDataBaseURL, cfg.TwelveDataAPIKey)
	notifier := notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.AlertFrom, cfg.AlertEmail)
	smaScanner := scanner.New(stockStore, market, notifier, scanner.PacingPolicy{
		Delay:          cfg.ScanDelay,
		CallsPerSymbol: 2,
	})

	stockController := controllers.NewStockController(stockStore, market)
	scanController := controllers.NewScanController(smaScanner)

	// Reject non-trigger verbs with 405 instead of gin's default 404.
	router.HandleMethodNotAllowed = true

	api := router.Group("/api/v1")
	{
		stocks := api.Group("/stocks")
		{
			stocks.GET("", stockController.GetStocks)
			stocks.POST("", stockController.AddStock)
			stocks.DELETE("/:id", stockController.DeleteStock)
		}

		api.GET("/alerts", stockController.GetAlerts)

		scan := api.Group("/scan", middleware.CronAuth(cfg.CronSecret))
		{
			scan.GET("", scanController.RunScan)
			scan.POST("", scanController.RunScan)
		}
	}

	return smaScanner
}
