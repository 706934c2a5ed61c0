package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"stock-trader/database"
	"stock-trader/models"
)

const snapshotBatchSize = 100

type PriceRepository struct {
	db *gorm.DB
}

func (r *PriceRepository) Save(ctx context.Context, prices []models.StockPrice) error {
	if err := database.CreateInBatches(r.db.WithContext(ctx), prices, snapshotBatchSize); err != nil {
		return fmt.Errorf("save prices: %w", err)
	}
	return nil
}

// ListBySymbol returns up to limit snapshots for symbol, newest first.
func (r *PriceRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]models.StockPrice, error) {
	prices := make([]models.StockPrice, 0)
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp DESC").
		Limit(limit).
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return prices, nil
}
