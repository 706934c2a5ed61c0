package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock-trader/models"
)

type HistoryRepository struct {
	db *gorm.DB
}

func (r *HistoryRepository) Append(ctx context.Context, tr *models.Transaction) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(tr).Error; err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListByUser returns the user's transactions newest first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID uint) ([]models.HistoryEntry, error) {
	entries := make([]models.HistoryEntry, 0)
	err := r.db.WithContext(ctx).
		Table("history").
		Select("history.id AS id, companies.symbol AS symbol, history.shares AS shares, history.price AS price, history.time AS time").
		Joins("JOIN companies ON companies.id = history.company_id").
		Where("history.user_id = ?", userID).
		Order("history.time DESC, history.id DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
