package websocket

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"aasaan-server/database"
	"aasaan-server/middleware"
	"aasaan-server/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Mobile clients connect from app webviews, origin is not meaningful
		return true
	},
}

// HandleProviderFeed upgrades an authenticated provider connection and
// attaches it to the hub. Runs behind WebSocketAuthMiddleware.
func HandleProviderFeed(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	if !user.IsServiceProvider() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only service providers can join the live feed"})
		return
	}

	var profile models.ProviderProfile
	if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "Provider profile not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed for provider %d: %v", user.ID, err)
		return
	}

	client := &Client{
		UserID:   user.ID,
		Services: profile.ServiceList(),
		conn:     conn,
		send:     make(chan []byte, 16),
		hub:      FeedHub,
	}

	FeedHub.register <- client

	go client.writePump()
	go client.readPump()
}
