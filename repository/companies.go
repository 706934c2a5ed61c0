package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock-trader/models"
)

type CompanyRepository struct {
	db *gorm.DB
}

func (r *CompanyRepository) FindBySymbol(ctx context.Context, symbol string) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&company).Error; err != nil {
		return nil, notFound(err, "find company")
	}
	return &company, nil
}

// Ensure returns the company for symbol, inserting it with name the first time the
// symbol is seen.
func (r *CompanyRepository) Ensure(ctx context.Context, symbol, name string) (*models.Company, error) {
	company, err := r.FindBySymbol(ctx, symbol)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// a concurrent insert of the same symbol is not an error, the row is read back below
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "symbol"}}, DoNothing: true}).
		Create(&models.Company{Symbol: symbol, Name: name}).Error
	if err != nil {
		return nil, fmt.Errorf("insert company: %w", err)
	}

	return r.FindBySymbol(ctx, symbol)
}
