package routes

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
	"carcare-marketplace-server/services"
	"carcare-marketplace-server/utils"
)

// RegisterProviderRoutes registers provider profile and search routes
func RegisterProviderRoutes(router *gin.RouterGroup, catalog *services.CatalogService) {
	// Public provider search. Customers find providers for a service near a
	// location, sorted by distance, price, or rating.
	router.GET("/search", func(c *gin.Context) {
		lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
		lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid coordinates",
				"message": "lat and lng query parameters are required",
			})
			return
		}

		radius, _ := strconv.ParseFloat(c.DefaultQuery("radius_km", "0"), 64)

		matches, err := catalog.FindProviders(services.FindProvidersRequest{
			ServiceType: c.Query("service_type"),
			Lat:         lat,
			Lng:         lng,
			RadiusKm:    radius,
			Sort:        c.Query("sort"),
		})
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"providers": matches,
				"count":     len(matches),
			},
		})
	})

	// Public provider detail
	router.GET("/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid provider ID",
				"message": "Provider ID must be a number",
			})
			return
		}

		var provider models.Provider
		if err := database.DB.Preload("Services").First(&provider, uint(id)).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Provider not found",
				"message": "No provider with this ID",
			})
			return
		}
		if !provider.IsApproved() {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Provider not found",
				"message": "No provider with this ID",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"provider": provider},
		})
	})

	// Provider-only profile management
	me := router.Group("/me", middleware.AuthMiddleware(), middleware.RequireProvider())

	// Create the provider profile. New profiles start pending approval and
	// stay out of search results until an admin approves them.
	me.POST("", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req models.ProviderRegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		var existing models.Provider
		if err := database.DB.Where("user_id = ?", user.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Profile exists",
				"message": "A provider profile already exists for this account",
			})
			return
		}

		providerType := models.ProviderMechanic
		if req.ProviderType == string(models.ProviderCompany) {
			providerType = models.ProviderCompany
		}

		provider := models.Provider{
			UserID:         user.ID,
			BusinessName:   utils.SanitizeString(req.BusinessName),
			ProviderType:   providerType,
			PhoneNumber:    req.PhoneNumber,
			City:           utils.SanitizeString(req.City),
			Address:        utils.SanitizeString(req.Address),
			ApprovalStatus: models.ApprovalPending,
			CurrentLat:     req.CurrentLat,
			CurrentLng:     req.CurrentLng,
		}

		if err := database.DB.Create(&provider).Error; err != nil {
			log.Printf("❌ Provider profile creation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to create provider profile",
			})
			return
		}

		log.Printf("✅ Provider profile %d created for user %d", provider.ID, user.ID)
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Provider profile created, pending approval",
			"data":    gin.H{"provider": provider},
		})
	})

	// Get my provider profile
	me.GET("", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var provider models.Provider
		if err := database.DB.Preload("Services").Where("user_id = ?", user.ID).First(&provider).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Profile not found",
				"message": "Create a provider profile first",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"provider": provider},
		})
	})

	// Replace my price list
	me.PUT("/services", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req struct {
			Services []models.ProviderServiceRequest `json:"services" binding:"required,dive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		var provider models.Provider
		if err := database.DB.Where("user_id = ?", user.ID).First(&provider).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Profile not found",
				"message": "Create a provider profile first",
			})
			return
		}

		// Replace the whole price list in one transaction
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("provider_id = ?", provider.ID).Delete(&models.ProviderService{}).Error; err != nil {
				return err
			}
			for _, svc := range req.Services {
				row := models.ProviderService{
					ProviderID:  provider.ID,
					ServiceType: svc.ServiceType,
					PriceMinor:  svc.PriceMinor,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("❌ Price list update failed for provider %d: %v", provider.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to update services",
			})
			return
		}

		database.DB.Preload("Services").First(&provider, provider.ID)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Services updated",
			"data":    gin.H{"provider": provider},
		})
	})

	// Update my location and availability
	me.PUT("/location", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req models.ProviderLocationUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		if !utils.IsLocationValid(req.Latitude, req.Longitude) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid coordinates",
				"message": "Latitude or longitude out of range",
			})
			return
		}

		var provider models.Provider
		if err := database.DB.Where("user_id = ?", user.ID).First(&provider).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Profile not found",
				"message": "Create a provider profile first",
			})
			return
		}

		now := time.Now()
		provider.CurrentLat = &req.Latitude
		provider.CurrentLng = &req.Longitude
		provider.IsAvailable = req.IsAvailable
		provider.LastLocationUpdate = &now

		if err := database.DB.Save(&provider).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to update location",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Location updated",
			"data": gin.H{
				"is_available": provider.IsAvailable,
				"updated_at":   provider.LastLocationUpdate,
			},
		})
	})
}
