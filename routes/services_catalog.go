package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/models"
)

// RegisterServiceCatalogRoutes registers the public service catalog routes
func RegisterServiceCatalogRoutes(router *gin.RouterGroup) {
	// List active services, optionally filtered by category
	router.GET("", func(c *gin.Context) {
		query := database.DB.Where("is_active = ?", true)
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}

		var list []models.ServiceType
		if err := query.Order("sort_order ASC, name ASC").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to load services",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"services": list,
				"count":    len(list),
			},
		})
	})

	// Get one service by slug
	router.GET("/:slug", func(c *gin.Context) {
		var svc models.ServiceType
		if err := database.DB.Where("slug = ? AND is_active = ?", c.Param("slug"), true).First(&svc).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Service not found",
				"message": "No active service with this slug",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"service": svc},
		})
	})
}
