package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
)

// RegisterVehicleRoutes registers the customer vehicle garage routes
func RegisterVehicleRoutes(router *gin.RouterGroup) {
	router.Use(middleware.AuthMiddleware())

	// Add a vehicle
	router.POST("", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req models.VehicleCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		vehicle := models.Vehicle{
			UserID:      user.ID,
			Make:        req.Make,
			Model:       req.Model,
			Year:        req.Year,
			Color:       req.Color,
			PlateNumber: req.PlateNumber,
			IsDefault:   req.IsDefault,
		}

		// Only one default vehicle per user
		if req.IsDefault {
			database.DB.Model(&models.Vehicle{}).
				Where("user_id = ?", user.ID).
				Update("is_default", false)
		}

		if err := database.DB.Create(&vehicle).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to add vehicle",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Vehicle added",
			"data":    gin.H{"vehicle": vehicle},
		})
	})

	// List my vehicles
	router.GET("", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var vehicles []models.Vehicle
		if err := database.DB.Where("user_id = ?", user.ID).Order("is_default DESC, created_at DESC").Find(&vehicles).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to load vehicles",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"vehicles": vehicles,
				"count":    len(vehicles),
			},
		})
	})

	// Remove a vehicle
	router.DELETE("/:id", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid vehicle ID",
				"message": "Vehicle ID must be a number",
			})
			return
		}

		result := database.DB.Where("id = ? AND user_id = ?", uint(id), user.ID).Delete(&models.Vehicle{})
		if result.Error != nil || result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Vehicle not found",
				"message": "No such vehicle for this account",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Vehicle removed",
		})
	})
}
