package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockPrice is a point-in-time price snapshot recorded by the snapshot job.
type StockPrice struct {
	ID        uint            `gorm:"primaryKey"`
	Symbol    string          `gorm:"not null;index:idx_stock_prices_symbol_ts"`
	Price     decimal.Decimal `gorm:"type:numeric(16,4);not null"`
	Timestamp time.Time       `gorm:"not null;index:idx_stock_prices_symbol_ts"`
}
