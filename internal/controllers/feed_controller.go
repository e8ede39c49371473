package controllers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mkopo_loans/internal/middleware"
	"mkopo_loans/internal/models"
)

// upgrader configures the WebSocket connection for the admin feed.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// FeedEvent is pushed to every connected review console whenever a loan
// is submitted or decided, so open consoles update without polling.
type FeedEvent struct {
	Type string      `json:"type"` // "loan.submitted", "loan.approved", "loan.rejected"
	Loan models.Loan `json:"loan"`
}

// feedHub tracks the connected admin consoles.
type feedHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// Feed is the process-wide hub the loan handlers broadcast through.
var Feed = &feedHub{clients: make(map[*websocket.Conn]bool)}

func (h *feedHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *feedHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Broadcast sends the event to every connected console. Dead
// connections are dropped on write failure.
func (h *feedHub) Broadcast(event FeedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			logrus.WithError(err).Debug("feed: dropping dead console connection")
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// AdminFeed upgrades the connection and streams loan events. Browsers
// cannot set an Authorization header on a WebSocket handshake, so the
// token travels as a query parameter.
func AdminFeed(c *gin.Context) {
	tokenStr := c.Query("token")
	token, err := middleware.ValidateToken(tokenStr)
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["role"] != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("AdminFeed: upgrade failed")
		return
	}

	Feed.add(conn)
	logrus.WithField("admin_id", claims["user_id"]).Info("admin console connected to feed")

	// The console only listens; reads just detect the close.
	go func() {
		defer Feed.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
