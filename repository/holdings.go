package repository

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock-trader/models"
	"stock-trader/utils"
)

type HoldingRepository struct {
	db *gorm.DB
}

func (r *HoldingRepository) Find(ctx context.Context, userID, companyID uint) (*models.Holding, error) {
	var holding models.Holding
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&holding).Error
	if err != nil {
		return nil, notFound(err, "find holding")
	}
	return &holding, nil
}

// ListByUser returns the user's holdings joined with their company, ordered by symbol.
func (r *HoldingRepository) ListByUser(ctx context.Context, userID uint) ([]models.PortfolioEntry, error) {
	entries := make([]models.PortfolioEntry, 0)
	err := r.db.WithContext(ctx).
		Table("stocks").
		Select("companies.symbol AS symbol, companies.name AS name, stocks.shares AS shares").
		Joins("JOIN companies ON companies.id = stocks.company_id").
		Where("stocks.user_id = ?", userID).
		Order("companies.symbol").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	return entries, nil
}

// HeldSymbols lists every symbol at least one user holds.
func (r *HoldingRepository) HeldSymbols(ctx context.Context) ([]string, error) {
	symbols := make([]string, 0)
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT companies.symbol
		FROM stocks
		JOIN companies ON companies.id = stocks.company_id
		ORDER BY companies.symbol
	`).Scan(&symbols).Error
	if err != nil {
		return nil, fmt.Errorf("held symbols: %w", err)
	}
	return symbols, nil
}

// Add inserts the holding or increments the existing one in a single upsert.
func (r *HoldingRepository) Add(ctx context.Context, userID, companyID uint, shares int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "HoldingRepository.Add"

	slog.Debug("Add holding start", slog.String("rqID", rqID), slog.String("op", op), slog.Uint64("userID", uint64(userID)), slog.Uint64("companyID", uint64(companyID)), slog.Int64("shares", shares))
	defer func() {
		if err != nil {
			slog.Error("Add holding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	holding := models.Holding{UserID: userID, CompanyID: companyID, Shares: shares}
	err = r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "company_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"shares": gorm.Expr("stocks.shares + excluded.shares")}),
		}).
		Create(&holding).Error
	if err != nil {
		return fmt.Errorf("upsert holding: %w", err)
	}
	return nil
}

// Remove takes shares out of the holding, deleting the row when exactly all shares go.
// Both statements are conditional on the current share count, so a holding never
// goes negative even when sells race.
func (r *HoldingRepository) Remove(ctx context.Context, userID, companyID uint, shares int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "HoldingRepository.Remove"

	slog.Debug("Remove holding start", slog.String("rqID", rqID), slog.String("op", op), slog.Uint64("userID", uint64(userID)), slog.Uint64("companyID", uint64(companyID)), slog.Int64("shares", shares))
	defer func() {
		if err != nil {
			slog.Debug("Remove holding rejected", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	db := r.db.WithContext(ctx)

	res := db.Where("user_id = ? AND company_id = ? AND shares = ?", userID, companyID, shares).
		Delete(&models.Holding{})
	if res.Error != nil {
		return fmt.Errorf("delete holding: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	res = db.Model(&models.Holding{}).
		Where("user_id = ? AND company_id = ? AND shares > ?", userID, companyID, shares).
		Update("shares", gorm.Expr("shares - ?", shares))
	if res.Error != nil {
		return fmt.Errorf("decrement holding: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientShares
	}
	return nil
}
