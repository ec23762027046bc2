package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	wsAdapter "github.com/lorrc/chamados/internal/adapters/primary/websocket"
	"github.com/lorrc/chamados/internal/config"
	"github.com/lorrc/chamados/internal/infrastructure/logging"
)

// WebSocketHandler handles WebSocket connection upgrades. Authentication is
// done by the JWT middleware, which also accepts ?token= for browsers.
type WebSocketHandler struct {
	hub          *wsAdapter.Hub
	upgrader     websocket.Upgrader
	timing       wsAdapter.Timing
	errorHandler *ErrorHandler
	logger       *zap.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	cfg *config.Config,
	errorHandler *ErrorHandler,
	logger *zap.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub: hub,
		timing: wsAdapter.Timing{
			PingInterval: cfg.WebSocket.PingInterval,
			PongWait:     cfg.WebSocket.PongWait,
		},
		errorHandler: errorHandler,
		logger:       logger.Named("websocket_handler"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg.WebSocket.AllowedOrigins, cfg.IsDevelopment()),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(allowedOrigins []string, allowAll bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		if allowAll {
			h.logger.Warn("allowing websocket connection in development mode",
				zap.String("origin", origin),
				zap.String("remote_addr", r.RemoteAddr),
			)
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				zap.String("origin", origin),
				zap.Error(err),
			)
			return false
		}

		if originAllowed(parsedOrigin.Host, allowedOrigins) {
			return true
		}

		h.logger.Warn("websocket connection rejected due to origin",
			zap.String("origin", origin),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Strings("allowed_origins", allowedOrigins),
		)
		return false
	}
}

// originAllowed matches host against exact hosts and "*.example.com" wildcards.
func originAllowed(host string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if strings.HasPrefix(allowed, "*.") {
			suffix := allowed[1:] // ".example.com"
			if strings.HasSuffix(host, suffix) || host == allowed[2:] {
				return true
			}
		} else if host == allowed {
			return true
		}
	}
	return false
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	logger := logging.FromContext(r.Context(), h.logger)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response
		logger.Warn("failed to upgrade websocket connection", zap.Error(err))
		return
	}

	logger.Info("websocket connection established", zap.String("remote_addr", r.RemoteAddr))

	client := wsAdapter.NewClient(h.hub, conn, actor, h.timing, h.logger)
	if !h.hub.RegisterClient(client) {
		logger.Warn("websocket hub stopped, dropping connection")
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
