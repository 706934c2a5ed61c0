package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-trader/database/databasetest"
	"stock-trader/models"
	"stock-trader/repository"
)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	return repository.NewStore(databasetest.New(t))
}

func createUser(t *testing.T, store *repository.Store, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Hash: "hash", Cash: models.DefaultCash}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	createUser(t, store, "alice")

	err := store.Users().Create(ctx, &models.User{Username: "alice", Hash: "other", Cash: models.DefaultCash})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	_, err = store.Users().FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DebitCredit(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	user := createUser(t, store, "alice")

	require.NoError(t, store.Users().Debit(ctx, user.ID, decimal.NewFromInt(1500)))

	got, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(decimal.NewFromInt(8500)), "cash = %s", got.Cash)

	err = store.Users().Debit(ctx, user.ID, decimal.NewFromInt(8501))
	assert.ErrorIs(t, err, repository.ErrInsufficientFunds)

	require.NoError(t, store.Users().Credit(ctx, user.ID, decimal.RequireFromString("0.5")))
	got, err = store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(decimal.RequireFromString("8500.5")), "cash = %s", got.Cash)

	require.NoError(t, store.Users().SetCash(ctx, user.ID, models.DefaultCash))
	got, err = store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(models.DefaultCash))
}

func TestCompanyRepository_Ensure(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Companies().Ensure(ctx, "AAPL", "Apple Inc")
	require.NoError(t, err)
	second, err := store.Companies().Ensure(ctx, "AAPL", "ignored")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Apple Inc", second.Name)
}

func TestHoldingRepository_AddRemove(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	user := createUser(t, store, "alice")
	company, err := store.Companies().Ensure(ctx, "AAPL", "Apple Inc")
	require.NoError(t, err)

	require.NoError(t, store.Holdings().Add(ctx, user.ID, company.ID, 10))
	require.NoError(t, store.Holdings().Add(ctx, user.ID, company.ID, 5))

	holding, err := store.Holdings().Find(ctx, user.ID, company.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), holding.Shares)

	err = store.Holdings().Remove(ctx, user.ID, company.ID, 16)
	assert.ErrorIs(t, err, repository.ErrInsufficientShares)

	require.NoError(t, store.Holdings().Remove(ctx, user.ID, company.ID, 5))
	holding, err = store.Holdings().Find(ctx, user.ID, company.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), holding.Shares)

	require.NoError(t, store.Holdings().Remove(ctx, user.ID, company.ID, 10))
	_, err = store.Holdings().Find(ctx, user.ID, company.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHoldingRepository_ListByUserAndHeldSymbols(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	alice := createUser(t, store, "alice")
	bob := createUser(t, store, "bob")

	msft, err := store.Companies().Ensure(ctx, "MSFT", "Microsoft")
	require.NoError(t, err)
	aapl, err := store.Companies().Ensure(ctx, "AAPL", "Apple Inc")
	require.NoError(t, err)

	require.NoError(t, store.Holdings().Add(ctx, alice.ID, msft.ID, 3))
	require.NoError(t, store.Holdings().Add(ctx, alice.ID, aapl.ID, 7))
	require.NoError(t, store.Holdings().Add(ctx, bob.ID, aapl.ID, 1))

	entries, err := store.Holdings().ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.PortfolioEntry{Symbol: "AAPL", Name: "Apple Inc", Shares: 7}, entries[0])
	assert.Equal(t, models.PortfolioEntry{Symbol: "MSFT", Name: "Microsoft", Shares: 3}, entries[1])

	symbols, err := store.Holdings().HeldSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestHistoryRepository_NewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	user := createUser(t, store, "alice")
	company, err := store.Companies().Ensure(ctx, "AAPL", "Apple Inc")
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, shares := range []int64{10, -4, 2} {
		require.NoError(t, store.History().Append(ctx, &models.Transaction{
			UserID:    user.ID,
			CompanyID: company.ID,
			Shares:    shares,
			Price:     decimal.NewFromInt(150),
			Time:      start.Add(time.Duration(i) * time.Hour),
		}))
	}

	entries, err := store.History().ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{2, -4, 10}, []int64{entries[0].Shares, entries[1].Shares, entries[2].Shares})
	assert.Equal(t, "AAPL", entries[0].Symbol)
	assert.True(t, entries[2].Price.Equal(decimal.NewFromInt(150)))
}

func TestStore_WithinTransactionRollsBack(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	user := createUser(t, store, "alice")
	boom := errors.New("boom")

	err := store.WithinTransaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users().Debit(ctx, user.ID, decimal.NewFromInt(100)); err != nil {
			return err
		}
		if _, err := tx.Companies().Ensure(ctx, "AAPL", "Apple Inc"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Cash.Equal(models.DefaultCash))

	_, err = store.Companies().FindBySymbol(ctx, "AAPL")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPriceRepository_SaveAndList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Prices().Save(ctx, []models.StockPrice{
		{Symbol: "AAPL", Price: decimal.NewFromInt(150), Timestamp: start},
		{Symbol: "AAPL", Price: decimal.NewFromInt(151), Timestamp: start.Add(time.Hour)},
		{Symbol: "MSFT", Price: decimal.NewFromInt(300), Timestamp: start},
	}))

	prices, err := store.Prices().ListBySymbol(ctx, "AAPL", 1)
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.True(t, prices[0].Price.Equal(decimal.NewFromInt(151)))
}
