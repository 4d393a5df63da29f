package websocket

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/garyjia/gas-voucher/internal/auth"
)

// TokenParser verifies bearer tokens
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// HandlerConfig holds websocket endpoint settings
type HandlerConfig struct {
	// AllowedOrigins lists accepted Origin headers. "*" accepts any origin;
	// an empty list only accepts same-host requests.
	AllowedOrigins []string
}

// Handler upgrades authenticated requests to hub connections
type Handler struct {
	hub      *Hub
	tokens   TokenParser
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates the websocket endpoint handler
func NewHandler(hub *Hub, tokens TokenParser, cfg HandlerConfig, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:    hub,
		tokens: tokens,
		logger: logger,
	}
	if len(cfg.AllowedOrigins) > 0 {
		h.upgrader.CheckOrigin = originChecker(cfg.AllowedOrigins)
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// requestToken reads the bearer token from the Authorization header or the
// token query parameter. Browsers cannot set headers on websocket requests.
func requestToken(r *http.Request) string {
	if token, ok := auth.BearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

// ServeHTTP authenticates, upgrades and serves one connection until it closes
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Parse(requestToken(r))
	if err != nil {
		h.logger.Warn("Websocket authentication failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	wc, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	c := newConn(uuid.NewString(), wc, claims, h.hub, h.logger)
	h.hub.Register(c)
	c.logger.Info("Websocket connected", zap.String("role", claims.Role))

	go c.write()
	if err := c.read(); err != nil {
		c.logger.Warn("Websocket read failed", zap.Error(err))
	}

	h.hub.Unregister(c.id)
	c.Close()
	c.logger.Info("Websocket disconnected")
}
