package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock-trader/middleware"
	"stock-trader/services"
	"stock-trader/utils"
)

type AuthInput struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

type RegisterInput struct {
	Username     string `form:"username" json:"username"`
	Password     string `form:"password" json:"password"`
	Confirmation string `form:"confirmation" json:"confirmation"`
}

type ChangePasswordInput struct {
	Password     string `form:"password" json:"password"`
	NewPassword  string `form:"new_password" json:"new_password"`
	Confirmation string `form:"confirmation" json:"confirmation"`
}

func (h *Handler) LoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, form("login", "username", "password"))
}

func (h *Handler) RegisterForm(c *gin.Context) {
	c.JSON(http.StatusOK, form("register", "username", "password", "confirmation"))
}

func (h *Handler) ChangePasswordForm(c *gin.Context) {
	c.JSON(http.StatusOK, form("change_password", "password", "new_password", "confirmation"))
}

func (h *Handler) Signup(c *gin.Context) {
	h.clearSession(c)

	var input RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		h.badInput(c, err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		Username:     input.Username,
		Password:     input.Password,
		Confirmation: input.Confirmation,
	})
	if err != nil {
		h.apology(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "registered", "username": user.Username})
}

func (h *Handler) Login(c *gin.Context) {
	h.clearSession(c)

	var input AuthInput
	if err := c.ShouldBind(&input); err != nil {
		h.badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.accounts.Login(ctx, input.Username, input.Password)
	if err != nil {
		h.apology(c, err)
		return
	}

	token, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		h.apology(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"token": token, "username": user.Username})
}

func (h *Handler) Logout(c *gin.Context) {
	h.clearSession(c)
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var input ChangePasswordInput
	if err := c.ShouldBind(&input); err != nil {
		h.badInput(c, err)
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), currentUser(c), services.ChangePasswordInput{
		Password:     input.Password,
		NewPassword:  input.NewPassword,
		Confirmation: input.Confirmation,
	})
	if err != nil {
		h.apology(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

// clearSession revokes whatever session the request carries and expires the cookie.
func (h *Handler) clearSession(c *gin.Context) {
	token := middleware.SessionToken(c, h.cookie.Name)
	if token == "" {
		return
	}

	if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
		slog.Error("failed to destroy session", slog.String("rqID", utils.GetRequestIDFromCtx(c.Request.Context())), slog.String("err", err.Error()))
	}
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
