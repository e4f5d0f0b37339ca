package websocket

import (
	"net/http"

	"nick8/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	// Browsers from any configured frontend may subscribe; auth is the JWT.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ProgressWebSocketHandler upgrades an authenticated request to a progress feed.
// The token comes from the Authorization header or the token query parameter.
func ProgressWebSocketHandler(hub *ProgressHub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, _ := utils.BearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		who, err := utils.IdentityFromToken(jwtSecret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithError(err).Warn("WebSocket upgrade error")
			return
		}

		client := NewProgressClient(conn, who.Email)
		hub.Register(client)
		defer hub.Unregister(client)

		client.SafeWriteJSON(gin.H{
			"type":      "connected",
			"message":   "Connected to progress updates",
			"userEmail": who.Email,
			"clientId":  client.ID,
		})

		// Drain reads until the peer goes away; control frames are handled by gorilla.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.WithError(err).Debug("Progress WebSocket closed")
				}
				return
			}
		}
	}
}
