package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stock-trader/services"
)

type TradeInput struct {
	Symbol string `form:"symbol" json:"symbol"`
	Shares Shares `form:"shares" json:"shares"`
}

type HoldingView struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

type HistoryView struct {
	Symbol string          `json:"symbol"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
}

type TradeView struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Total  decimal.Decimal `json:"total"`
	Cash   decimal.Decimal `json:"cash"`
}

func newTradeView(t *services.Trade) TradeView {
	return TradeView{Symbol: t.Symbol, Name: t.Name, Shares: t.Shares, Price: t.Price, Total: t.Total, Cash: t.Cash}
}

func (h *Handler) Index(c *gin.Context) {
	portfolio, err := h.trading.Portfolio(c.Request.Context(), currentUser(c))
	if err != nil {
		h.apology(c, err)
		return
	}

	holdings := make([]HoldingView, 0, len(portfolio.Positions))
	for _, p := range portfolio.Positions {
		holdings = append(holdings, HoldingView{Symbol: p.Symbol, Name: p.Name, Shares: p.Shares, Price: p.Price, Value: p.Value})
	}

	c.JSON(http.StatusOK, gin.H{"cash": portfolio.Cash, "holdings": holdings, "total": portfolio.Total})
}

func (h *Handler) BuyForm(c *gin.Context) {
	cash, err := h.trading.Cash(c.Request.Context(), currentUser(c))
	if err != nil {
		h.apology(c, err)
		return
	}

	resp := form("buy", "symbol", "shares")
	resp["cash"] = cash
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Buy(c *gin.Context) {
	var input TradeInput
	if err := c.ShouldBind(&input); err != nil {
		h.badInput(c, err)
		return
	}

	trade, err := h.trading.Buy(c.Request.Context(), currentUser(c), input.Symbol, string(input.Shares))
	if err != nil {
		h.apology(c, err)
		return
	}

	c.JSON(http.StatusOK, newTradeView(trade))
}

func (h *Handler) SellForm(c *gin.Context) {
	symbols, err := h.trading.OwnedSymbols(c.Request.Context(), currentUser(c))
	if err != nil {
		h.apology(c, err)
		return
	}

	resp := form("sell", "symbol", "shares")
	resp["symbols"] = symbols
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Sell(c *gin.Context) {
	var input TradeInput
	if err := c.ShouldBind(&input); err != nil {
		h.badInput(c, err)
		return
	}

	trade, err := h.trading.Sell(c.Request.Context(), currentUser(c), input.Symbol, string(input.Shares))
	if err != nil {
		h.apology(c, err)
		return
	}

	c.JSON(http.StatusOK, newTradeView(trade))
}

func (h *Handler) History(c *gin.Context) {
	entries, err := h.trading.History(c.Request.Context(), currentUser(c))
	if err != nil {
		h.apology(c, err)
		return
	}

	history := make([]HistoryView, 0, len(entries))
	for _, e := range entries {
		history = append(history, HistoryView{Symbol: e.Symbol, Shares: e.Shares, Price: e.Price, Time: e.Time})
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *Handler) AddCashRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, "/")
}

// AddCash resets the balance to the starting amount.
func (h *Handler) AddCash(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)

	if err := h.accounts.AddCash(ctx, userID); err != nil {
		h.apology(c, err)
		return
	}

	cash, err := h.trading.Cash(ctx, userID)
	if err != nil {
		h.apology(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cash": cash})
}
