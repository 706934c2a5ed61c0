package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"stock-trader/config"
	"stock-trader/utils"
)

var (
	ErrNotFound    = errors.New("quote not found")
	ErrUnavailable = errors.New("quote provider unavailable")
)

// Quote is a point-in-time price for a ticker.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type AlphaVantageResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
}

type AlphaVantage struct {
	client *resty.Client
	apiKey string
}

func NewAlphaVantage(cfg config.Quotes) *AlphaVantage {
	client := resty.New().
		SetDebug(cfg.Debug).
		SetTimeout(cfg.Timeout).
		SetBaseURL(cfg.URL).
		SetHeader("Accept", "application/json")
	return &AlphaVantage{client: client, apiKey: cfg.APIKey}
}

// Lookup fetches the latest price for symbol and resolves its display name.
func (a *AlphaVantage) Lookup(ctx context.Context, symbol string) (Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrNotFound
	}

	slog.Debug("start AlphaVantage.Lookup request", slog.String("rqID", rqID), slog.String("symbol", symbol))

	var result AlphaVantageResponse
	if err := a.query(ctx, map[string]string{"function": "GLOBAL_QUOTE", "symbol": symbol}, &result); err != nil {
		return Quote{}, err
	}

	if msg := firstNonEmpty(result.ErrorMessage, result.Note, result.Information); msg != "" {
		// invalid symbols come back as an error message on some plans
		if result.ErrorMessage != "" {
			return Quote{}, ErrNotFound
		}
		slog.Error("AlphaVantage refused request", slog.String("rqID", rqID), slog.String("msg", msg))
		return Quote{}, fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}

	if result.GlobalQuote.Price == "" {
		return Quote{}, ErrNotFound
	}

	price, err := decimal.NewFromString(result.GlobalQuote.Price)
	if err != nil {
		slog.Error("can't parse price", slog.String("rqID", rqID), slog.String("price", result.GlobalQuote.Price), slog.String("err", err.Error()))
		return Quote{}, fmt.Errorf("%w: bad price %q", ErrUnavailable, result.GlobalQuote.Price)
	}

	quote := Quote{Symbol: symbol, Name: symbol, Price: price}
	if result.GlobalQuote.Symbol != "" {
		quote.Symbol = strings.ToUpper(result.GlobalQuote.Symbol)
	}

	name, err := a.companyName(ctx, quote.Symbol)
	if err != nil {
		slog.Warn("company name lookup failed, using symbol", slog.String("rqID", rqID), slog.String("symbol", quote.Symbol), slog.String("err", err.Error()))
	} else if name != "" {
		quote.Name = name
	}

	slog.Debug("AlphaVantage.Lookup request complete", slog.String("rqID", rqID), slog.String("symbol", quote.Symbol))

	return quote, nil
}

func (a *AlphaVantage) companyName(ctx context.Context, symbol string) (string, error) {
	var result symbolSearchResponse
	if err := a.query(ctx, map[string]string{"function": "SYMBOL_SEARCH", "keywords": symbol}, &result); err != nil {
		return "", err
	}

	for _, match := range result.BestMatches {
		if strings.EqualFold(match.Symbol, symbol) {
			return match.Name, nil
		}
	}
	return "", nil
}

func (a *AlphaVantage) query(ctx context.Context, params map[string]string, out interface{}) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", a.apiKey).
		Get("/query")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
