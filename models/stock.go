package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SMA status values recorded on a tracked stock after each successful scan.
const (
	StatusAbove = "above"
	StatusBelow = "below"
)

// TrackedStock is one portfolio entry watched by the scanner.
type TrackedStock struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Symbol string    `gorm:"uniqueIndex;not null;size:10" json:"symbol"`
	Name   *string   `json:"name"`
	// LastSMAStatus is nil until the stock's first successful scan.
	LastSMAStatus *string   `gorm:"size:8" json:"last_sma_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *TrackedStock) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Alert records one fired crossover notification. Rows are append-only; the
// scanner never updates or deletes them.
type Alert struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StockID     uuid.UUID       `gorm:"type:uuid;index" json:"stock_id"`
	Symbol      string          `gorm:"not null;size:10" json:"symbol"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2)" json:"price"`
	SMA200      decimal.Decimal `gorm:"type:decimal(15,2)" json:"sma_200"`
	TriggeredAt time.Time       `gorm:"index" json:"triggered_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.TriggeredAt.IsZero() {
		a.TriggeredAt = time.Now()
	}
	return nil
}

// MigrateStockModels runs database migrations for stock-related models
func MigrateStockModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&TrackedStock{},
		&Alert{},
	)
}
