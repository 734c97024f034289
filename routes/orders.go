package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
	"carcare-marketplace-server/services"
)

// RegisterOrderRoutes registers the customer and provider order lifecycle routes
func RegisterOrderRoutes(router *gin.RouterGroup, orders *services.OrderService, quotes *services.QuoteService) {
	router.Use(middleware.AuthMiddleware())

	// Create a new order
	router.POST("", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req models.OrderCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		// Snapshot the vehicle description so the order survives vehicle edits
		if req.VehicleID != nil && req.VehicleDescription == "" {
			var vehicle models.Vehicle
			if err := database.DB.Where("id = ? AND user_id = ?", *req.VehicleID, user.ID).First(&vehicle).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "Invalid vehicle",
					"message": "Vehicle not found for this account",
				})
				return
			}
			req.VehicleDescription = vehicle.Describe()
		}

		order, err := orders.CreateOrder(user.ID, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Order created",
			"data":    gin.H{"order": order},
		})
	})

	// List my orders as a customer
	router.GET("", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		list, err := orders.ListCustomerOrders(user.ID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"orders": list,
				"count":  len(list),
			},
		})
	})

	// List orders assigned to my provider profile
	router.GET("/assigned", middleware.RequireProvider(), func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		list, err := orders.ListProviderOrders(user.ID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"orders": list,
				"count":  len(list),
			},
		})
	})

	// Get one of my orders
	router.GET("/:id", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		order, err := orders.GetCustomerOrder(user.ID, orderID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"order": order},
		})
	})

	// Cancel my order
	router.POST("/:id/cancel", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		order, err := orders.CancelOrder(user.ID, orderID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Order cancelled",
			"data":    gin.H{"order": order},
		})
	})

	// Provider starts work on a confirmed order
	router.POST("/:id/start", middleware.RequireProvider(), func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		order, err := orders.StartOrder(user.ID, orderID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Work started",
			"data":    gin.H{"order": order},
		})
	})

	// Provider completes an in-progress order
	router.POST("/:id/complete", middleware.RequireProvider(), func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		order, err := orders.CompleteOrder(user.ID, orderID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Order completed",
			"data":    gin.H{"order": order},
		})
	})

	// Customer reviews a completed order
	router.POST("/:id/review", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		var req models.OrderReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		order, err := orders.SubmitReview(user.ID, orderID, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Review submitted",
			"data":    gin.H{"order": order},
		})
	})

	registerQuoteRoutes(router, quotes)
}

// registerQuoteRoutes nests the quote ledger endpoints under orders
func registerQuoteRoutes(router *gin.RouterGroup, quotes *services.QuoteService) {
	// Provider submits a quote against a pending order
	router.POST("/:id/quotes", middleware.RequireProvider(), func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		var req models.QuoteSubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		quote, err := quotes.SubmitQuote(user.ID, orderID, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Quote submitted",
			"data":    gin.H{"quote": quote},
		})
	})

	// Customer lists the quotes on their order
	router.GET("/:id/quotes", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		sort := services.QuoteSort(c.DefaultQuery("sort", string(services.QuoteSortCreated)))
		if sort != services.QuoteSortCreated && sort != services.QuoteSortPrice {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid sort",
				"message": "sort must be created or price",
			})
			return
		}

		list, err := quotes.ListOrderQuotes(user.ID, orderID, sort)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"quotes": list,
				"count":  len(list),
			},
		})
	})
}

// RegisterQuoteDecisionRoutes registers the accept/reject endpoints plus the
// provider's own quote listing.
func RegisterQuoteDecisionRoutes(router *gin.RouterGroup, quotes *services.QuoteService) {
	router.Use(middleware.AuthMiddleware())

	// Customer accepts a quote, settling the order
	router.POST("/:id/accept", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		quoteID, ok := quoteIDParam(c)
		if !ok {
			return
		}

		quote, err := quotes.AcceptQuote(user.ID, quoteID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Quote accepted",
			"data":    gin.H{"quote": quote},
		})
	})

	// Customer rejects a single quote
	router.POST("/:id/reject", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		quoteID, ok := quoteIDParam(c)
		if !ok {
			return
		}

		quote, err := quotes.RejectQuote(user.ID, quoteID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Quote rejected",
			"data":    gin.H{"quote": quote},
		})
	})

	// Provider lists their own quotes
	router.GET("/mine", middleware.RequireProvider(), func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		list, err := quotes.ListProviderQuotes(user.ID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"quotes": list,
				"count":  len(list),
			},
		})
	})
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid order ID",
			"message": "Order ID must be a number",
		})
		return 0, false
	}
	return uint(id), true
}

func quoteIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid quote ID",
			"message": "Quote ID must be a number",
		})
		return 0, false
	}
	return uint(id), true
}
