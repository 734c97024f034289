package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
	"carcare-marketplace-server/websocket"
)

// RegisterWebSocketRoutes registers the order event stream endpoint. Clients
// connect with a token query parameter, then send watch_order messages to
// subscribe to live updates for specific orders.
func RegisterWebSocketRoutes(router *gin.RouterGroup, hub *websocket.Hub) {
	router.GET("/ws", middleware.WebSocketAuthMiddleware(), func(c *gin.Context) {
		value, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Please sign in first",
			})
			return
		}
		user := value.(models.User)

		userType := "customer"
		if user.IsProvider() {
			userType = "provider"
		}

		websocket.ServeWebSocket(hub, c.Writer, c.Request, user.ID, userType)
	})
}
