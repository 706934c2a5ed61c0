package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"stock-trader/models"
	"stock-trader/quotes"
	"stock-trader/repository"
	"stock-trader/utils"
)

const priceHistoryLimit = 100

type TradingService struct {
	store  *repository.Store
	quotes quotes.Provider
	// live settles trades and is never served from cache
	live quotes.Provider
	now  func() time.Time
}

func NewTradingService(store *repository.Store, provider, live quotes.Provider) *TradingService {
	return &TradingService{store: store, quotes: provider, live: live, now: time.Now}
}

type Position struct {
	Symbol string
	Name   string
	Shares int64
	Price  decimal.Decimal
	Value  decimal.Decimal
}

type Portfolio struct {
	Cash      decimal.Decimal
	Positions []Position
	Total     decimal.Decimal
}

// Trade describes an executed buy or sell.
type Trade struct {
	Symbol string
	Name   string
	Shares int64
	Price  decimal.Decimal
	Total  decimal.Decimal
	Cash   decimal.Decimal
}

// Quote looks up symbol, mapping provider errors to apologies.
func (s *TradingService) Quote(ctx context.Context, symbol string) (quotes.Quote, error) {
	return lookup(ctx, s.quotes, symbol)
}

func lookup(ctx context.Context, provider quotes.Provider, symbol string) (quotes.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return quotes.Quote{}, forbidden("must provide symbol")
	}

	quote, err := provider.Lookup(ctx, symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			return quotes.Quote{}, forbidden("invalid symbol")
		}
		slog.Error("quote lookup failed", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return quotes.Quote{}, unavailable("can't get quote")
	}
	return quote, nil
}

func (s *TradingService) Buy(ctx context.Context, userID uint, symbol, rawShares string) (*Trade, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.Buy"

	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, forbidden("must provide symbol")
	}
	shares, err := ParseShares(rawShares)
	if err != nil {
		return nil, err
	}

	quote, err := lookup(ctx, s.live, symbol)
	if err != nil {
		return nil, err
	}

	total := quote.Price.Mul(decimal.NewFromInt(shares))
	slog.Debug("buy start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", quote.Symbol), slog.Int64("shares", shares), slog.String("total", total.String()))

	var cash decimal.Decimal
	err = s.store.WithinTransaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users().Debit(ctx, userID, total); err != nil {
			if errors.Is(err, repository.ErrInsufficientFunds) {
				return forbidden("you don't have enough cash")
			}
			return err
		}

		company, err := tx.Companies().Ensure(ctx, quote.Symbol, quote.Name)
		if err != nil {
			return err
		}
		if err := tx.Holdings().Add(ctx, userID, company.ID, shares); err != nil {
			return err
		}
		if err := tx.History().Append(ctx, &models.Transaction{
			UserID:    userID,
			CompanyID: company.ID,
			Shares:    shares,
			Price:     quote.Price,
			Time:      s.now().UTC(),
		}); err != nil {
			return err
		}

		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		cash = user.Cash
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("bought", slog.String("rqID", rqID), slog.Uint64("userID", uint64(userID)), slog.String("symbol", quote.Symbol), slog.Int64("shares", shares))
	return &Trade{Symbol: quote.Symbol, Name: quote.Name, Shares: shares, Price: quote.Price, Total: total, Cash: cash}, nil
}

func (s *TradingService) Sell(ctx context.Context, userID uint, symbol, rawShares string) (*Trade, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TradingService.Sell"

	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, forbidden("must provide symbol")
	}
	shares, err := ParseShares(rawShares)
	if err != nil {
		return nil, err
	}

	quote, err := lookup(ctx, s.live, symbol)
	if err != nil {
		return nil, err
	}

	total := quote.Price.Mul(decimal.NewFromInt(shares))
	slog.Debug("sell start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", quote.Symbol), slog.Int64("shares", shares), slog.String("total", total.String()))

	var cash decimal.Decimal
	err = s.store.WithinTransaction(ctx, func(tx *repository.Store) error {
		company, err := tx.Companies().FindBySymbol(ctx, quote.Symbol)
		if errors.Is(err, repository.ErrNotFound) {
			return badRequest("you don't own this stock")
		}
		if err != nil {
			return err
		}

		if _, err := tx.Holdings().Find(ctx, userID, company.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return badRequest("you don't own this stock")
			}
			return err
		}

		if err := tx.Holdings().Remove(ctx, userID, company.ID, shares); err != nil {
			if errors.Is(err, repository.ErrInsufficientShares) {
				return badRequest("you don't own this many shares")
			}
			return err
		}
		if err := tx.Users().Credit(ctx, userID, total); err != nil {
			return err
		}
		if err := tx.History().Append(ctx, &models.Transaction{
			UserID:    userID,
			CompanyID: company.ID,
			Shares:    -shares,
			Price:     quote.Price,
			Time:      s.now().UTC(),
		}); err != nil {
			return err
		}

		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		cash = user.Cash
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("sold", slog.String("rqID", rqID), slog.Uint64("userID", uint64(userID)), slog.String("symbol", quote.Symbol), slog.Int64("shares", shares))
	return &Trade{Symbol: quote.Symbol, Name: quote.Name, Shares: shares, Price: quote.Price, Total: total, Cash: cash}, nil
}

// Portfolio values every holding at its quoted price. A single failed lookup fails the view.
func (s *TradingService) Portfolio(ctx context.Context, userID uint) (*Portfolio, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.Holdings().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	portfolio := &Portfolio{Cash: user.Cash, Positions: make([]Position, 0, len(entries)), Total: user.Cash}
	for _, entry := range entries {
		quote, err := s.quotes.Lookup(ctx, entry.Symbol)
		if err != nil {
			slog.Error("portfolio quote failed", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("symbol", entry.Symbol), slog.String("err", err.Error()))
			return nil, unavailable("can't get actual price")
		}

		value := quote.Price.Mul(decimal.NewFromInt(entry.Shares))
		portfolio.Positions = append(portfolio.Positions, Position{
			Symbol: entry.Symbol,
			Name:   entry.Name,
			Shares: entry.Shares,
			Price:  quote.Price,
			Value:  value,
		})
		portfolio.Total = portfolio.Total.Add(value)
	}

	return portfolio, nil
}

func (s *TradingService) History(ctx context.Context, userID uint) ([]models.HistoryEntry, error) {
	return s.store.History().ListByUser(ctx, userID)
}

// OwnedSymbols lists the symbols the user can sell.
func (s *TradingService) OwnedSymbols(ctx context.Context, userID uint) ([]string, error) {
	entries, err := s.store.Holdings().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(entries))
	for _, entry := range entries {
		symbols = append(symbols, entry.Symbol)
	}
	return symbols, nil
}

func (s *TradingService) Cash(ctx context.Context, userID uint) (decimal.Decimal, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Cash, nil
}

func (s *TradingService) PriceHistory(ctx context.Context, symbol string) ([]models.StockPrice, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, forbidden("must provide symbol")
	}
	return s.store.Prices().ListBySymbol(ctx, symbol, priceHistoryLimit)
}
