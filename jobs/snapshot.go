package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stock-trader/models"
	"stock-trader/quotes"
	"stock-trader/repository"
	"stock-trader/utils"
)

// PriceSnapshot records the current price of every held symbol.
type PriceSnapshot struct {
	store  *repository.Store
	quotes quotes.Provider
	now    func() time.Time
}

func NewPriceSnapshot(store *repository.Store, provider quotes.Provider) *PriceSnapshot {
	return &PriceSnapshot{store: store, quotes: provider, now: time.Now}
}

// Run skips symbols whose lookup fails and saves the rest.
func (p *PriceSnapshot) Run(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	symbols, err := p.store.Holdings().HeldSymbols(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		return nil
	}

	ts := p.now().UTC()
	prices := make([]models.StockPrice, 0, len(symbols))
	var failed []error
	for _, symbol := range symbols {
		quote, err := p.quotes.Lookup(ctx, symbol)
		if err != nil {
			slog.Warn("snapshot lookup failed", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
			failed = append(failed, err)
			continue
		}
		prices = append(prices, models.StockPrice{Symbol: symbol, Price: quote.Price, Timestamp: ts})
	}

	if len(prices) > 0 {
		if err := p.store.Prices().Save(ctx, prices); err != nil {
			return err
		}
	}

	slog.Info("price snapshot saved", slog.String("rqID", rqID), slog.Int("saved", len(prices)), slog.Int("failed", len(failed)))

	if len(prices) == 0 {
		return errors.Join(failed...)
	}
	return nil
}
