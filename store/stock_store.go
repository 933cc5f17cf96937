// Package store wraps the database behind the typed contract the scanner and
// controllers consume. Nothing outside this package touches raw rows.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KarlMeierMattern/stock-signals/models"
)

var (
	// ErrSymbolExists is returned when inserting a symbol that is already tracked.
	ErrSymbolExists = errors.New("symbol already tracked")
	// ErrNotFound is returned when a stock id does not exist.
	ErrNotFound = errors.New("stock not found")
)

// StockStore provides CRUD over tracked stocks and append-only alerts.
type StockStore struct {
	db *gorm.DB
}

func NewStockStore(db *gorm.DB) *StockStore {
	return &StockStore{db: db}
}

// ListTrackedStocks returns every tracked stock, newest first.
func (s *StockStore) ListTrackedStocks() ([]models.TrackedStock, error) {
	var stocks []models.TrackedStock
	if err := s.db.Order("created_at DESC").Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tracked stocks: %w", err)
	}
	return stocks, nil
}

// SymbolExists reports whether a symbol is already tracked.
func (s *StockStore) SymbolExists(symbol string) (bool, error) {
	var existing models.TrackedStock
	err := s.db.Select("id").Where("symbol = ?", symbol).First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check symbol %s: %w", symbol, err)
}

// InsertTrackedStock creates a new tracked stock. The symbol must already be
// normalized (trimmed, upper-case) by the caller.
func (s *StockStore) InsertTrackedStock(symbol string, name *string) (*models.TrackedStock, error) {
	exists, err := s.SymbolExists(symbol)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSymbolExists
	}

	stock := models.TrackedStock{Symbol: symbol, Name: name}
	if err := s.db.Create(&stock).Error; err != nil {
		return nil, fmt.Errorf("failed to create stock %s: %w", symbol, err)
	}
	return &stock, nil
}

// DeleteTrackedStock removes a tracked stock by id.
func (s *StockStore) DeleteTrackedStock(id uuid.UUID) error {
	result := s.db.Where("id = ?", id).Delete(&models.TrackedStock{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete stock %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateScanStatus persists the status observed by the latest scan together
// with the opportunistically refreshed display name.
func (s *StockStore) UpdateScanStatus(id uuid.UUID, status string, name *string) error {
	updates := map[string]interface{}{
		"last_sma_status": status,
		"updated_at":      time.Now(),
	}
	if name != nil {
		updates["name"] = *name
	}

	result := s.db.Model(&models.TrackedStock{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update stock %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendAlert inserts one alert row.
func (s *StockStore) AppendAlert(alert *models.Alert) error {
	if err := s.db.Create(alert).Error; err != nil {
		return fmt.Errorf("failed to record alert for %s: %w", alert.Symbol, err)
	}
	return nil
}

// RecentAlerts returns up to limit alerts, newest first.
func (s *StockStore) RecentAlerts(limit int) ([]models.Alert, error) {
	var alerts []models.Alert
	if err := s.db.Order("triggered_at DESC").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	return alerts, nil
}
