package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
)

// RegisterNotificationRoutes registers notification listing and push token routes
func RegisterNotificationRoutes(router *gin.RouterGroup) {
	router.Use(middleware.AuthMiddleware())

	// List my notifications, newest first
	router.GET("", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		recipientType := models.RecipientCustomer
		recipientID := user.ID
		if user.IsProvider() {
			var provider models.Provider
			if err := database.DB.Where("user_id = ?", user.ID).First(&provider).Error; err == nil {
				recipientType = models.RecipientProvider
				recipientID = provider.ID
			}
		}

		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		var notifications []models.Notification
		err := database.DB.
			Where("recipient_type = ? AND recipient_id = ?", recipientType, recipientID).
			Order("created_at DESC").
			Limit(limit).
			Find(&notifications).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to load notifications",
			})
			return
		}

		var unread int64
		database.DB.Model(&models.Notification{}).
			Where("recipient_type = ? AND recipient_id = ? AND is_read = ?", recipientType, recipientID, false).
			Count(&unread)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"notifications": notifications,
				"unread_count":  unread,
			},
		})
	})

	// Mark one notification as read
	router.PUT("/:id/read", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid notification ID",
				"message": "Notification ID must be a number",
			})
			return
		}

		recipientType := models.RecipientCustomer
		recipientID := user.ID
		if user.IsProvider() {
			var provider models.Provider
			if err := database.DB.Where("user_id = ?", user.ID).First(&provider).Error; err == nil {
				recipientType = models.RecipientProvider
				recipientID = provider.ID
			}
		}

		result := database.DB.Model(&models.Notification{}).
			Where("id = ? AND recipient_type = ? AND recipient_id = ?", uint(id), recipientType, recipientID).
			Update("is_read", true)
		if result.Error != nil || result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Notification not found",
				"message": "No such notification for this account",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Notification marked as read",
		})
	})

	// Mark everything as read
	router.PUT("/read-all", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		recipientType := models.RecipientCustomer
		recipientID := user.ID
		if user.IsProvider() {
			var provider models.Provider
			if err := database.DB.Where("user_id = ?", user.ID).First(&provider).Error; err == nil {
				recipientType = models.RecipientProvider
				recipientID = provider.ID
			}
		}

		database.DB.Model(&models.Notification{}).
			Where("recipient_type = ? AND recipient_id = ? AND is_read = ?", recipientType, recipientID, false).
			Update("is_read", true)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "All notifications marked as read",
		})
	})

	// Register a device push token
	router.POST("/push-token", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req struct {
			Token    string `json:"token" binding:"required"`
			Platform string `json:"platform" binding:"required,oneof=ios android"`
			DeviceID string `json:"device_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		token := models.PushToken{
			UserID:   user.ID,
			Token:    req.Token,
			Platform: req.Platform,
			DeviceID: req.DeviceID,
			Active:   true,
		}

		// Re-registering the same token just reactivates it
		var existing models.PushToken
		if err := database.DB.Where("token = ?", req.Token).First(&existing).Error; err == nil {
			existing.UserID = user.ID
			existing.Platform = req.Platform
			existing.DeviceID = req.DeviceID
			existing.Active = true
			database.DB.Save(&existing)
			token = existing
		} else if err := database.DB.Create(&token).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to register push token",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Push token registered",
			"data":    gin.H{"token_id": token.ID},
		})
	})
}
