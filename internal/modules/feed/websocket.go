package feed

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"admetrics/internal/pkg/jwt"
	"admetrics/internal/pkg/logger"
	"admetrics/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are authenticated by token, not by origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// clientMessage is what a dashboard may send.
type clientMessage struct {
	Type        string `json:"type"`
	AdvertiseID string `json:"advertise_id"`
}

type WSHandler struct {
	hub    *Hub
	tokens TokenValidator
	log    zerolog.Logger
}

func NewWSHandler(hub *Hub, tokens TokenValidator) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		log:    logger.WithComponent("feed"),
	}
}

func (h *WSHandler) RegisterPublicRoutes(r gin.IRoutes) {
	r.GET("/ws/fact-ad-metrics", h.HandleWebSocket)
}

// HandleWebSocket upgrades an authenticated request to a feed connection.
//
// Endpoint: GET /ws/fact-ad-metrics?token=JWT_TOKEN
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	}
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", err.Error())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	cl := newClient(claims.UserID)
	h.hub.register(cl)
	h.log.Info().Str("user_id", cl.userID).Msg("feed client connected")

	go h.writeLoop(conn, cl)
	h.readLoop(conn, cl)

	h.hub.unregister(cl)
	h.log.Info().Str("user_id", cl.userID).Msg("feed client disconnected")
}

func (h *WSHandler) readLoop(conn *websocket.Conn, cl *client) {
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Str("user_id", cl.userID).Msg("feed read failed")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.hub.reply(cl, errorEvent("INVALID_JSON", "Failed to parse message"))
			continue
		}

		switch msg.Type {
		case "subscribe":
			adID := strings.TrimSpace(msg.AdvertiseID)
			cl.subscribe(adID)
			h.hub.reply(cl, Event{Type: "subscribed", AdvertiseID: adID})
		case "unsubscribe":
			cl.subscribe("")
			h.hub.reply(cl, Event{Type: "subscribed"})
		case "ping":
			h.hub.reply(cl, Event{Type: "pong"})
		default:
			h.hub.reply(cl, errorEvent("UNKNOWN_TYPE", "Unknown message type: "+msg.Type))
		}
	}
}

// writeLoop is the only writer on conn.
func (h *WSHandler) writeLoop(conn *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case ev, ok := <-cl.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func errorEvent(code, message string) Event {
	return Event{Type: "error", Payload: map[string]string{"code": code, "message": message}}
}
