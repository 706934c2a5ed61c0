package database_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-trader/database"
	"stock-trader/database/databasetest"
	"stock-trader/models"
)

func TestCreateInBatches(t *testing.T) {
	db := databasetest.New(t)

	now := time.Now().UTC()
	prices := make([]models.StockPrice, 0, 7)
	for i := 0; i < 7; i++ {
		prices = append(prices, models.StockPrice{
			Symbol:    "AAPL",
			Price:     decimal.NewFromInt(int64(100 + i)),
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		})
	}

	require.NoError(t, database.CreateInBatches(db, prices, 3))

	var count int64
	require.NoError(t, db.Model(&models.StockPrice{}).Count(&count).Error)
	assert.Equal(t, int64(7), count)
}

func TestCreateInBatches_InvalidInput(t *testing.T) {
	db := databasetest.New(t)

	assert.ErrorIs(t, database.CreateInBatches(db, []models.StockPrice{}, 0), database.ErrInvalidTransaction)
	assert.ErrorIs(t, database.CreateInBatches(db, models.StockPrice{}, 10), database.ErrInvalidData)
	assert.NoError(t, database.CreateInBatches(db, []models.StockPrice{}, 10))
}
