package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/auth"
)

func (h *Handler) setSession(c *gin.Context, tok auth.Token) {
	if h.SecureCookies {
		c.SetSameSite(http.SameSiteStrictMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	maxAge := int(h.Auth.Issuer().TTL.Seconds())
	c.SetCookie(auth.CookieName, tok.Value, maxAge, "/", "", h.SecureCookies, true)
}

func (h *Handler) adminLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "email and password are required")
		return
	}
	tok, admin, err := h.Auth.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSession(c, tok)
	c.JSON(http.StatusOK, gin.H{"token": tok.Value, "expires_at": tok.ExpiresAt.Unix(), "user": admin})
}

func (h *Handler) studentLogin(c *gin.Context) {
	var req struct {
		RollNumber string `json:"rollNumber" binding:"required"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "rollNumber is required")
		return
	}
	tok, st, err := h.Auth.StudentLogin(c.Request.Context(), req.RollNumber, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSession(c, tok)
	c.JSON(http.StatusOK, gin.H{"token": tok.Value, "expires_at": tok.ExpiresAt.Unix(), "user": st})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), auth.TokenFrom(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
