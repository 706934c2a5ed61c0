package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stock-trader/middleware"
	"stock-trader/services"
	"stock-trader/utils"
)

type Sessions interface {
	Create(ctx context.Context, userID uint) (string, error)
	Destroy(ctx context.Context, token string) error
}

type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type Handler struct {
	accounts *services.AccountService
	trading  *services.TradingService
	sessions Sessions
	cookie   CookieConfig
}

func New(accounts *services.AccountService, trading *services.TradingService, sessions Sessions, cookie CookieConfig) *Handler {
	return &Handler{accounts: accounts, trading: trading, sessions: sessions, cookie: cookie}
}

// RegisterRoutes mounts every route on r. Routes other than login, logout and register need a session.
func (h *Handler) RegisterRoutes(r gin.IRouter, sessions middleware.SessionResolver) {
	r.GET("/login", h.LoginForm)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)
	r.GET("/register", h.RegisterForm)
	r.POST("/register", h.Signup)

	auth := r.Group("/")
	auth.Use(middleware.RequireSession(sessions, h.cookie.Name))
	{
		auth.GET("/", h.Index)
		auth.GET("/quote", h.Quote)
		auth.POST("/quote", h.Quote)
		auth.GET("/buy", h.BuyForm)
		auth.POST("/buy", h.Buy)
		auth.GET("/sell", h.SellForm)
		auth.POST("/sell", h.Sell)
		auth.GET("/history", h.History)
		auth.GET("/change_password", h.ChangePasswordForm)
		auth.POST("/change_password", h.ChangePassword)
		auth.GET("/add_cash", h.AddCashRedirect)
		auth.POST("/add_cash", h.AddCash)
		auth.GET("/prices/:symbol", h.PriceHistory)
	}
}

// apology writes err as the JSON error envelope. Errors that are not apologies are
// logged and hidden behind a generic 500.
func (h *Handler) apology(c *gin.Context, err error) {
	_ = c.Error(err)

	if apology, ok := services.AsApology(err); ok {
		c.JSON(apology.Code, gin.H{"error": apology.Message, "code": apology.Code})
		return
	}

	slog.Error("request failed",
		slog.String("rqID", utils.GetRequestIDFromCtx(c.Request.Context())),
		slog.String("path", c.Request.URL.Path),
		slog.String("err", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": http.StatusInternalServerError})
}

func (h *Handler) badInput(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "code": http.StatusBadRequest})
}

func form(name string, fields ...string) gin.H {
	return gin.H{"form": name, "fields": fields}
}

func currentUser(c *gin.Context) uint {
	return c.MustGet(middleware.UserIDKey).(uint)
}

// Shares accepts both a form string and a JSON number or string, leaving validation
// to the service.
type Shares string

func (s *Shares) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Shares(str)
		return nil
	}
	*s = Shares(data)
	return nil
}
