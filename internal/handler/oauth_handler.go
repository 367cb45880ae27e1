package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shortlyapp/shortly/internal/auth"
	"github.com/shortlyapp/shortly/internal/service"
)

// OAuthHandler drives the provider redirect dance. Failures redirect the
// browser to the front-end login page with an error query parameter instead
// of returning JSON, since the caller is mid-redirect.
type OAuthHandler struct {
	service   service.OAuthService
	clientURL string
	logger    *zap.Logger
}

func NewOAuthHandler(service service.OAuthService, clientURL string, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		service:   service,
		clientURL: clientURL,
		logger:    logger,
	}
}

// Begin handles GET /auth/users/{google,github}: stores the caller's return
// URL and redirects to the provider.
func (h *OAuthHandler) Begin(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		returnTo := c.Query("redirect_url")
		if returnTo == "" {
			returnTo = h.clientURL + "/urls"
		}

		loginURL, err := h.service.Begin(c.Request.Context(), provider, returnTo)
		if err != nil {
			h.logger.Error("failed to begin oauth flow",
				zap.String("provider", provider.Name()),
				zap.Error(err),
			)
			c.Redirect(http.StatusFound, h.failureURL(provider))
			return
		}

		c.Redirect(http.StatusFound, loginURL)
	}
}

// Callback handles GET /auth/users/{google,github}/callback: validates the
// state, exchanges the code and redirects to the stored return URL with the
// bearer token appended.
func (h *OAuthHandler) Callback(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := c.Query("state")
		code := c.Query("code")
		if state == "" || code == "" {
			c.Redirect(http.StatusFound, h.failureURL(provider))
			return
		}

		token, returnTo, err := h.service.Callback(c.Request.Context(), provider, state, code)
		if err != nil {
			h.logger.Warn("oauth callback failed",
				zap.String("provider", provider.Name()),
				zap.Error(err),
			)
			c.Redirect(http.StatusFound, h.failureURL(provider))
			return
		}

		c.Redirect(http.StatusFound, returnTo+"?token="+url.QueryEscape(token))
	}
}

func (h *OAuthHandler) failureURL(provider auth.Provider) string {
	return h.clientURL + "/auth/login?error=" + provider.Name() + "_auth_failed"
}
