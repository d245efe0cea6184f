package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"aasaan-server/database"
	"aasaan-server/middleware"
	"aasaan-server/models"
)

// RegisterTokenRequest represents the push token registration payload
type RegisterTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android"`
	DeviceID string `json:"device_id"`
}

// RegisterNotificationRoutes registers the notification endpoints
func RegisterNotificationRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", listNotifications)
		notifications.GET("/unread-count", unreadCount)
		notifications.PUT("/mark-all-read", markAllRead)
		notifications.POST("/mark-read/:id", markRead)
		notifications.POST("/register-token", registerPushToken)
	}
}

// listNotifications returns the newest 50 notifications, optionally
// filtered to unread only
func listNotifications(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	query := database.DB.Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(50).Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// unreadCount returns the number of unread notifications
func unreadCount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	var count int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", user.ID, false).
		Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// markAllRead flips every unread notification for the user
func markAllRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", user.ID, false).
		Update("read", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to mark notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "All notifications marked as read",
		"updated_rows": result.RowsAffected,
	})
}

// markRead flips a single owned notification
func markRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	var notification models.Notification
	if err := database.DB.
		Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		First(&notification).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Notification not found"})
		return
	}

	if err := database.DB.Model(&notification).Update("read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to mark notification as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// registerPushToken registers or reactivates an Expo push token for the user
func registerPushToken(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "token and platform are required"})
		return
	}

	var existing models.PushToken
	if err := database.DB.Where("token = ?", req.Token).First(&existing).Error; err == nil {
		// Token already known, hand it to the current user and reactivate
		existing.UserID = user.ID
		existing.Platform = req.Platform
		existing.DeviceID = req.DeviceID
		existing.Active = true
		if err := database.DB.Save(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update push token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Push token updated"})
		return
	}

	token := models.PushToken{
		UserID:   user.ID,
		Token:    req.Token,
		Platform: req.Platform,
		DeviceID: req.DeviceID,
		Active:   true,
	}
	if err := database.DB.Create(&token).Error; err != nil {
		log.Printf("❌ Failed to register push token for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to register push token"})
		return
	}

	log.Printf("📱 Push token registered for user %d (%s)", user.ID, req.Platform)
	c.JSON(http.StatusCreated, gin.H{"message": "Push token registered"})
}
