package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/KarlMeierMattern/stock-signals/models"
)

func newTestStore(t *testing.T) *StockStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.MigrateStockModels(db))

	return NewStockStore(db)
}

func TestInsertTrackedStock(t *testing.T) {
	s := newTestStore(t)

	name := "Apple Inc"
	stock, err := s.InsertTrackedStock("AAPL", &name)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, stock.ID)
	assert.Equal(t, "AAPL", stock.Symbol)
	require.NotNil(t, stock.Name)
	assert.Equal(t, "Apple Inc", *stock.Name)
	assert.Nil(t, stock.LastSMAStatus)

	exists, err := s.SymbolExists("AAPL")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.SymbolExists("MSFT")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInsertTrackedStock_Duplicate(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertTrackedStock("AAPL", nil)
	require.NoError(t, err)

	_, err = s.InsertTrackedStock("AAPL", nil)
	assert.ErrorIs(t, err, ErrSymbolExists)
}

func TestListTrackedStocks_NewestFirst(t *testing.T) {
	s := newTestStore(t)

	for _, symbol := range []string{"AAPL", "MSFT", "NVDA"} {
		_, err := s.InsertTrackedStock(symbol, nil)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	stocks, err := s.ListTrackedStocks()
	require.NoError(t, err)
	require.Len(t, stocks, 3)
	assert.Equal(t, "NVDA", stocks[0].Symbol)
	assert.Equal(t, "AAPL", stocks[2].Symbol)
}

func TestDeleteTrackedStock(t *testing.T) {
	s := newTestStore(t)

	stock, err := s.InsertTrackedStock("AAPL", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteTrackedStock(stock.ID))

	stocks, err := s.ListTrackedStocks()
	require.NoError(t, err)
	assert.Empty(t, stocks)

	assert.ErrorIs(t, s.DeleteTrackedStock(stock.ID), ErrNotFound)
	assert.ErrorIs(t, s.DeleteTrackedStock(uuid.New()), ErrNotFound)
}

func TestUpdateScanStatus(t *testing.T) {
	s := newTestStore(t)

	stock, err := s.InsertTrackedStock("AAPL", nil)
	require.NoError(t, err)

	name := "Apple Inc"
	require.NoError(t, s.UpdateScanStatus(stock.ID, models.StatusBelow, &name))

	stocks, err := s.ListTrackedStocks()
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	require.NotNil(t, stocks[0].LastSMAStatus)
	assert.Equal(t, models.StatusBelow, *stocks[0].LastSMAStatus)
	require.NotNil(t, stocks[0].Name)
	assert.Equal(t, "Apple Inc", *stocks[0].Name)

	// A nil name leaves the stored one untouched.
	require.NoError(t, s.UpdateScanStatus(stock.ID, models.StatusAbove, nil))
	stocks, err = s.ListTrackedStocks()
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbove, *stocks[0].LastSMAStatus)
	assert.Equal(t, "Apple Inc", *stocks[0].Name)
}

func TestUpdateScanStatus_NotFound(t *testing.T) {
	s := newTestStore(t)
	assert.ErrorIs(t, s.UpdateScanStatus(uuid.New(), models.StatusAbove, nil), ErrNotFound)
}

func TestRecentAlerts(t *testing.T) {
	s := newTestStore(t)

	stock, err := s.InsertTrackedStock("AAPL", nil)
	require.NoError(t, err)

	base := time.Date(2026, 8, 20, 21, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.AppendAlert(&models.Alert{
			StockID:     stock.ID,
			Symbol:      "AAPL",
			Price:       decimal.NewFromInt(int64(90 + i)),
			SMA200:      decimal.NewFromInt(100),
			TriggeredAt: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	alerts, err := s.RecentAlerts(50)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	// Newest first.
	assert.True(t, alerts[0].TriggeredAt.After(alerts[1].TriggeredAt))
	assert.True(t, alerts[1].TriggeredAt.After(alerts[2].TriggeredAt))
	assert.True(t, alerts[0].Price.Equal(decimal.NewFromInt(92)))

	limited, err := s.RecentAlerts(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
