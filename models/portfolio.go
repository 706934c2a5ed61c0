package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCash is the balance of a freshly registered user and the value add-cash resets to.
var DefaultCash = decimal.NewFromInt(10000)

type User struct {
	ID        uint            `gorm:"primaryKey"`
	Username  string          `gorm:"uniqueIndex;not null"`
	Hash      string          `gorm:"not null"`
	Cash      decimal.Decimal `gorm:"type:numeric(16,4);not null;default:10000"`
	CreatedAt time.Time
}

type Company struct {
	ID     uint   `gorm:"primaryKey"`
	Symbol string `gorm:"uniqueIndex;not null"`
	Name   string `gorm:"not null"`
}

// Holding is a user's current position in one company. A row never holds zero shares.
type Holding struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    uint  `gorm:"not null;uniqueIndex:idx_stocks_user_company"`
	CompanyID uint  `gorm:"not null;uniqueIndex:idx_stocks_user_company"`
	Shares    int64 `gorm:"not null;check:chk_stocks_shares,shares > 0"`

	User    User    `gorm:"constraint:OnDelete:CASCADE"`
	Company Company `gorm:"constraint:OnDelete:RESTRICT"`
}

func (Holding) TableName() string {
	return "stocks"
}

// Transaction is one history entry: positive shares for a buy, negative for a sell.
// Price is always the per-share quote at execution time.
type Transaction struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"not null;index"`
	CompanyID uint            `gorm:"not null"`
	Shares    int64           `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:numeric(16,4);not null"`
	Time      time.Time       `gorm:"not null;index"`

	User    User    `gorm:"constraint:OnDelete:CASCADE"`
	Company Company `gorm:"constraint:OnDelete:RESTRICT"`
}

func (Transaction) TableName() string {
	return "history"
}

// PortfolioEntry is a holding joined with its company.
type PortfolioEntry struct {
	Symbol string
	Name   string
	Shares int64
}

// HistoryEntry is a transaction joined with its company ticker.
type HistoryEntry struct {
	ID     uint
	Symbol string
	Shares int64
	Price  decimal.Decimal
	Time   time.Time
}
