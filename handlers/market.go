package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type QuoteInput struct {
	Symbol string `form:"symbol" json:"symbol"`
}

type PricePoint struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// Quote answers the lookup form on a bare GET and the quote otherwise.
func (h *Handler) Quote(c *gin.Context) {
	var input QuoteInput
	if err := c.ShouldBind(&input); err != nil {
		h.badInput(c, err)
		return
	}

	if input.Symbol == "" && c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, form("quote", "symbol"))
		return
	}

	quote, err := h.trading.Quote(c.Request.Context(), input.Symbol)
	if err != nil {
		h.apology(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": quote.Symbol, "name": quote.Name, "price": quote.Price})
}

func (h *Handler) PriceHistory(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	prices, err := h.trading.PriceHistory(c.Request.Context(), symbol)
	if err != nil {
		h.apology(c, err)
		return
	}

	points := make([]PricePoint, 0, len(prices))
	for _, p := range prices {
		points = append(points, PricePoint{Price: p.Price, Timestamp: p.Timestamp})
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "prices": points})
}
