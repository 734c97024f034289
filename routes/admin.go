package routes

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
)

// RegisterAdminRoutes registers the admin oversight routes
func RegisterAdminRoutes(router *gin.RouterGroup) {
	router.Use(middleware.AuthMiddleware(), middleware.RequireAdmin())

	// List providers with optional approval status filter
	router.GET("/providers", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		query := database.DB.Model(&models.Provider{}).Preload("User").Preload("Services")
		if status := c.Query("approval_status"); status != "" {
			query = query.Where("approval_status = ?", status)
		}

		var total int64
		query.Count(&total)

		var providers []models.Provider
		if err := query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&providers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to load providers",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"providers": providers,
				"total":     total,
				"page":      page,
				"page_size": pageSize,
			},
		})
	})

	// Approve a pending provider. Approval happens exactly once.
	router.POST("/providers/:id/approve", func(c *gin.Context) {
		decideProvider(c, models.ApprovalApproved)
	})

	// Reject a pending provider
	router.POST("/providers/:id/reject", func(c *gin.Context) {
		decideProvider(c, models.ApprovalRejected)
	})

	// List users with optional role filter
	router.GET("/users", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		query := database.DB.Model(&models.User{})
		if role := c.Query("role"); role != "" {
			query = query.Where("role = ?", role)
		}

		var total int64
		query.Count(&total)

		var users []models.User
		if err := query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to load users",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"users":     users,
				"total":     total,
				"page":      page,
				"page_size": pageSize,
			},
		})
	})

	// Activate or deactivate a user account
	router.PATCH("/users/:id/status", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid user ID",
				"message": "User ID must be a number",
			})
			return
		}

		var req struct {
			IsActive *bool `json:"is_active" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		result := database.DB.Model(&models.User{}).
			Where("id = ?", uint(id)).
			Update("is_active", *req.IsActive)
		if result.Error != nil || result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "User not found",
				"message": "No user with this ID",
			})
			return
		}

		log.Printf("✅ User %d active=%t set by admin", id, *req.IsActive)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "User status updated",
		})
	})

	// List orders with optional status filter
	router.GET("/orders", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
		if page < 1 {
			page = 1
		}
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		query := database.DB.Model(&models.Order{}).Preload("Customer").Preload("SelectedProvider")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var total int64
		query.Count(&total)

		var list []models.Order
		if err := query.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to load orders",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"orders":    list,
				"total":     total,
				"page":      page,
				"page_size": pageSize,
			},
		})
	})

	// Platform stats
	router.GET("/stats", func(c *gin.Context) {
		var userCount, providerCount, pendingApprovals int64
		database.DB.Model(&models.User{}).Count(&userCount)
		database.DB.Model(&models.Provider{}).Count(&providerCount)
		database.DB.Model(&models.Provider{}).Where("approval_status = ?", models.ApprovalPending).Count(&pendingApprovals)

		ordersByStatus := gin.H{}
		for _, status := range []models.OrderStatus{
			models.OrderStatusPending,
			models.OrderStatusConfirmed,
			models.OrderStatusInProgress,
			models.OrderStatusCompleted,
			models.OrderStatusCancelled,
			models.OrderStatusRejected,
		} {
			var n int64
			database.DB.Model(&models.Order{}).Where("status = ?", status).Count(&n)
			ordersByStatus[string(status)] = n
		}

		var quoteCount int64
		database.DB.Model(&models.Quote{}).Count(&quoteCount)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"users":             userCount,
				"providers":         providerCount,
				"pending_approvals": pendingApprovals,
				"orders_by_status":  ordersByStatus,
				"quotes":            quoteCount,
			},
		})
	})
}

// decideProvider applies an approval decision. Only pending profiles can be
// decided, so a second decision returns a conflict instead of flipping the
// status back and forth.
func decideProvider(c *gin.Context, decision models.ApprovalStatus) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid provider ID",
			"message": "Provider ID must be a number",
		})
		return
	}

	var provider models.Provider
	if err := database.DB.First(&provider, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Provider not found",
			"message": "No provider with this ID",
		})
		return
	}

	now := time.Now()
	result := database.DB.Model(&models.Provider{}).
		Where("id = ? AND approval_status = ?", provider.ID, models.ApprovalPending).
		Updates(map[string]interface{}{
			"approval_status":     decision,
			"approval_decided_at": now,
		})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Failed to update provider",
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Already decided",
			"message": "This provider has already been approved or rejected",
		})
		return
	}

	log.Printf("✅ Provider %d %s by admin", provider.ID, decision)
	database.DB.First(&provider, provider.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Provider " + string(decision),
		"data":    gin.H{"provider": provider},
	})
}
