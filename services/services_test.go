package services_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-trader/database/databasetest"
	"stock-trader/models"
	"stock-trader/quotes"
	"stock-trader/repository"
	"stock-trader/services"
)

const password = "Secret123!"

type fakeQuotes struct {
	prices map[string]decimal.Decimal
	err    error
}

func (f *fakeQuotes) Lookup(_ context.Context, symbol string) (quotes.Quote, error) {
	if f.err != nil {
		return quotes.Quote{}, f.err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return quotes.Quote{}, quotes.ErrNotFound
	}
	return quotes.Quote{Symbol: symbol, Name: symbol + " Inc", Price: price}, nil
}

type env struct {
	store    *repository.Store
	quotes   *fakeQuotes
	accounts *services.AccountService
	trading  *services.TradingService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repository.NewStore(databasetest.New(t))
	fq := &fakeQuotes{prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(150)}}
	return &env{
		store:    store,
		quotes:   fq,
		accounts: services.NewAccountService(store, true),
		trading:  services.NewTradingService(store, fq, fq),
	}
}

func (e *env) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.accounts.Register(context.Background(), services.RegisterInput{
		Username:     username,
		Password:     password,
		Confirmation: password,
	})
	require.NoError(t, err)
	return user
}

func requireApology(t *testing.T, err error, code int, message string) {
	t.Helper()
	apology, ok := services.AsApology(err)
	require.True(t, ok, "expected apology, got %v", err)
	assert.Equal(t, code, apology.Code)
	assert.Equal(t, message, apology.Message)
}

func TestAccountService_Register(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user := e.register(t, "alice")
	assert.NotEqual(t, password, user.Hash)
	assert.True(t, user.Cash.Equal(models.DefaultCash))

	_, err := e.accounts.Register(ctx, services.RegisterInput{Username: "alice", Password: password, Confirmation: password})
	requireApology(t, err, http.StatusForbidden, "username already exists")
}

func TestAccountService_RegisterValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name    string
		in      services.RegisterInput
		message string
	}{
		{name: "no username", in: services.RegisterInput{Password: password, Confirmation: password}, message: "must provide username"},
		{name: "no password", in: services.RegisterInput{Username: "bob", Confirmation: password}, message: "must provide password"},
		{name: "no confirmation", in: services.RegisterInput{Username: "bob", Password: password}, message: "must provide password"},
		{name: "mismatch", in: services.RegisterInput{Username: "bob", Password: password, Confirmation: password + "x"}, message: "passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.accounts.Register(context.Background(), tt.in)
			requireApology(t, err, http.StatusForbidden, tt.message)
		})
	}

	_, err := e.accounts.Register(context.Background(), services.RegisterInput{Username: "bob", Password: "weak", Confirmation: "weak"})
	apology, ok := services.AsApology(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apology.Code)
}

func TestAccountService_RegisterLaxPolicy(t *testing.T) {
	store := repository.NewStore(databasetest.New(t))
	accounts := services.NewAccountService(store, false)

	ctx := context.Background()

	_, err := accounts.Register(ctx, services.RegisterInput{Username: "bob", Password: "weak", Confirmation: "weak"})
	assert.NoError(t, err)

	long := strings.Repeat("a", 80)
	_, err = accounts.Register(ctx, services.RegisterInput{Username: "carol", Password: long, Confirmation: long})
	requireApology(t, err, http.StatusForbidden, "password is too long")

	user, err := accounts.Login(ctx, "bob", "weak")
	require.NoError(t, err)
	err = accounts.ChangePassword(ctx, user.ID, services.ChangePasswordInput{Password: "weak", NewPassword: long, Confirmation: long})
	requireApology(t, err, http.StatusForbidden, "password is too long")
}

func TestAccountService_Login(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registered := e.register(t, "alice")

	user, err := e.accounts.Login(ctx, "alice", password)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = e.accounts.Login(ctx, "alice", "Wrong123!")
	requireApology(t, err, http.StatusForbidden, "invalid username and/or password")

	_, err = e.accounts.Login(ctx, "mallory", password)
	requireApology(t, err, http.StatusForbidden, "invalid username and/or password")

	_, err = e.accounts.Login(ctx, "", password)
	requireApology(t, err, http.StatusForbidden, "must provide username")

	_, err = e.accounts.Login(ctx, "alice", "")
	requireApology(t, err, http.StatusForbidden, "must provide password")
}

func TestAccountService_ChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "alice")
	const next = "Another456?"

	tests := []struct {
		name    string
		in      services.ChangePasswordInput
		message string
	}{
		{name: "no current", in: services.ChangePasswordInput{NewPassword: next, Confirmation: next}, message: "must provide current password"},
		{name: "no new", in: services.ChangePasswordInput{Password: password, Confirmation: next}, message: "must provide new password"},
		{name: "no confirmation", in: services.ChangePasswordInput{Password: password, NewPassword: next}, message: "must provide new password"},
		{name: "wrong current", in: services.ChangePasswordInput{Password: "Wrong123!", NewPassword: next, Confirmation: next}, message: "invalid password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.accounts.ChangePassword(ctx, user.ID, tt.in)
			requireApology(t, err, http.StatusForbidden, tt.message)
		})
	}

	err := e.accounts.ChangePassword(ctx, user.ID, services.ChangePasswordInput{Password: password, NewPassword: "weak", Confirmation: "weak"})
	apology, ok := services.AsApology(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apology.Code)

	err = e.accounts.ChangePassword(ctx, user.ID, services.ChangePasswordInput{Password: password, NewPassword: password, Confirmation: password})
	requireApology(t, err, http.StatusForbidden, "new password shouldn't match with old one")

	err = e.accounts.ChangePassword(ctx, user.ID, services.ChangePasswordInput{Password: password, NewPassword: next, Confirmation: "nope"})
	requireApology(t, err, http.StatusForbidden, "new passwords do not match")

	require.NoError(t, e.accounts.ChangePassword(ctx, user.ID, services.ChangePasswordInput{Password: password, NewPassword: next, Confirmation: next}))

	_, err = e.accounts.Login(ctx, "alice", password)
	assert.Error(t, err)
	_, err = e.accounts.Login(ctx, "alice", next)
	assert.NoError(t, err)
}

func TestTradingService_BuyThenSell(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "alice")

	trade, err := e.trading.Buy(ctx, user.ID, "aapl", "10")
	require.NoError(t, err)
	assert.True(t, trade.Cash.Equal(decimal.NewFromInt(8500)), "cash = %s", trade.Cash)
	assert.True(t, trade.Total.Equal(decimal.NewFromInt(1500)))

	portfolio, err := e.trading.Portfolio(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, portfolio.Positions, 1)
	assert.Equal(t, "AAPL", portfolio.Positions[0].Symbol)
	assert.Equal(t, int64(10), portfolio.Positions[0].Shares)
	assert.True(t, portfolio.Total.Equal(models.DefaultCash))

	e.quotes.prices["AAPL"] = decimal.NewFromInt(160)

	trade, err = e.trading.Sell(ctx, user.ID, "AAPL", "10")
	require.NoError(t, err)
	assert.True(t, trade.Cash.Equal(decimal.NewFromInt(10100)), "cash = %s", trade.Cash)

	symbols, err := e.trading.OwnedSymbols(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, symbols)

	history, err := e.trading.History(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(-10), history[0].Shares)
	assert.True(t, history[0].Price.Equal(decimal.NewFromInt(160)))
	assert.Equal(t, int64(10), history[1].Shares)
	assert.True(t, history[1].Price.Equal(decimal.NewFromInt(150)))
}

func TestTradingService_BuyRejectsBadShares(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "alice")

	for _, raw := range []string{"0", "-3", "1.5", "ten"} {
		_, err := e.trading.Buy(ctx, user.ID, "AAPL", raw)
		requireApology(t, err, http.StatusForbidden, "must provide shares as a positive integer")

		_, err = e.trading.Sell(ctx, user.ID, "AAPL", raw)
		requireApology(t, err, http.StatusForbidden, "must provide shares as a positive integer")
	}

	_, err := e.trading.Buy(ctx, user.ID, "AAPL", "")
	requireApology(t, err, http.StatusForbidden, "must provide shares")

	_, err = e.trading.Buy(ctx, user.ID, " ", "1")
	requireApology(t, err, http.StatusForbidden, "must provide symbol")

	cash, err := e.trading.Cash(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cash.Equal(models.DefaultCash))

	history, err := e.trading.History(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTradingService_BuyInsufficientCashLeavesNoRows(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "alice")

	_, err := e.trading.Buy(ctx, user.ID, "AAPL", "67")
	requireApology(t, err, http.StatusForbidden, "you don't have enough cash")

	_, err = e.store.Companies().FindBySymbol(ctx, "AAPL")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	history, err := e.trading.History(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	cash, err := e.trading.Cash(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cash.Equal(models.DefaultCash))
}

func TestTradingService_QuoteErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "alice")

	_, err := e.trading.Buy(ctx, user.ID, "NOPE", "1")
	requireApology(t, err, http.StatusForbidden, "invalid symbol")

	e.quotes.err = errors.New("rate limited")
	_, err = e.trading.Quote(ctx, "AAPL")
	apology, ok := services.AsApology(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apology.Code)
}

func TestTradingService_SellOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")

	_, err := e.trading.Sell(ctx, alice.ID, "AAPL", "1")
	requireApology(t, err, http.StatusBadRequest, "you don't own this stock")

	_, err = e.trading.Buy(ctx, bob.ID, "AAPL", "2")
	require.NoError(t, err)

	_, err = e.trading.Sell(ctx, alice.ID, "AAPL", "1")
	requireApology(t, err, http.StatusBadRequest, "you don't own this stock")

	_, err = e.trading.Sell(ctx, bob.ID, "AAPL", "3")
	requireApology(t, err, http.StatusBadRequest, "you don't own this many shares")

	trade, err := e.trading.Sell(ctx, bob.ID, "AAPL", "1")
	require.NoError(t, err)
	assert.True(t, trade.Cash.Equal(decimal.NewFromInt(9850)), "cash = %s", trade.Cash)

	symbols, err := e.trading.OwnedSymbols(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)
}

func TestTradingService_PortfolioFailsWhenQuoteFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "alice")

	_, err := e.trading.Buy(ctx, user.ID, "AAPL", "1")
	require.NoError(t, err)

	e.quotes.err = quotes.ErrUnavailable
	_, err = e.trading.Portfolio(ctx, user.ID)
	requireApology(t, err, http.StatusInternalServerError, "can't get actual price")
}

func TestAccountService_AddCashResets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := e.register(t, "alice")

	_, err := e.trading.Buy(ctx, user.ID, "AAPL", "10")
	require.NoError(t, err)

	require.NoError(t, e.accounts.AddCash(ctx, user.ID))
	require.NoError(t, e.accounts.AddCash(ctx, user.ID))

	cash, err := e.trading.Cash(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cash.Equal(models.DefaultCash))
}

func TestCheckPasswordAndParseShares(t *testing.T) {
	assert.NoError(t, services.CheckPassword("Secret123!"))
	for _, p := range []string{"Sh0rt!", "nouppercase1!", "NOLOWERCASE1!", "NoDigits!!", "NoSpecial123", "Waaaaaaaaaaytoolong1!"} {
		assert.Error(t, services.CheckPassword(p), p)
	}

	shares, err := services.ParseShares(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), shares)
}

func TestTradingService_TradesSettleAtLivePrice(t *testing.T) {
	store := repository.NewStore(databasetest.New(t))
	stale := &fakeQuotes{prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(100)}}
	live := &fakeQuotes{prices: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(150)}}
	accounts := services.NewAccountService(store, true)
	trading := services.NewTradingService(store, stale, live)
	ctx := context.Background()

	user, err := accounts.Register(ctx, services.RegisterInput{Username: "alice", Password: password, Confirmation: password})
	require.NoError(t, err)

	quote, err := trading.Quote(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(100)))

	trade, err := trading.Buy(ctx, user.ID, "AAPL", "10")
	require.NoError(t, err)
	assert.True(t, trade.Price.Equal(decimal.NewFromInt(150)))
	assert.True(t, trade.Cash.Equal(decimal.NewFromInt(8500)), "cash = %s", trade.Cash)

	live.prices["AAPL"] = decimal.NewFromInt(160)
	trade, err = trading.Sell(ctx, user.ID, "AAPL", "10")
	require.NoError(t, err)
	assert.True(t, trade.Cash.Equal(decimal.NewFromInt(10100)), "cash = %s", trade.Cash)
}
