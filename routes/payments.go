package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
	"carcare-marketplace-server/payments"
	"carcare-marketplace-server/services"
)

// RegisterPaymentRoutes registers the order checkout routes
func RegisterPaymentRoutes(router *gin.RouterGroup, gateway payments.Gateway) {
	router.Use(middleware.AuthMiddleware())

	// Customer pays for their settled order
	router.POST("/orders/:id/checkout", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		var order models.Order
		if err := database.DB.First(&order, orderID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Order not found",
				"message": "No order with this ID",
			})
			return
		}
		if order.CustomerID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "This order belongs to another account",
			})
			return
		}
		if order.Status != models.OrderStatusConfirmed && order.Status != models.OrderStatusInProgress && order.Status != models.OrderStatusCompleted {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invalid state",
				"message": "Order is not payable in its current state",
			})
			return
		}
		if order.PaymentStatus == "paid" {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Already paid",
				"message": "This order has already been paid",
			})
			return
		}
		if order.TotalAmountMinor <= 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Invalid state",
				"message": "Order has no settled amount",
			})
			return
		}

		pay := models.Payment{
			OrderID:     order.ID,
			Reference:   uuid.NewString(),
			AmountMinor: order.TotalAmountMinor,
			Currency:    "INR",
			Status:      models.PaymentPending,
		}
		if err := database.DB.Create(&pay).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to create payment",
			})
			return
		}

		result, err := gateway.Charge(c.Request.Context(), payments.ChargeRequest{
			Reference:   pay.Reference,
			AmountMinor: pay.AmountMinor,
			Currency:    pay.Currency,
			Description: "Order " + order.Reference + " (" + order.ServiceType + ")",
			PayerEmail:  user.Email,
		})
		if err != nil {
			pay.Status = models.PaymentFailed
			database.DB.Save(&pay)
			log.Printf("❌ Checkout failed for order %d: %v", order.ID, err)
			respondServiceError(c, services.ErrUpstreamUnavailable)
			return
		}

		pay.ExternalID = result.ExternalID
		switch result.Status {
		case "approved":
			pay.Status = models.PaymentApproved
		case "rejected":
			pay.Status = models.PaymentFailed
		default:
			pay.Status = models.PaymentPending
		}
		database.DB.Save(&pay)

		if pay.Status == models.PaymentApproved {
			order.PaymentStatus = "paid"
			database.DB.Save(&order)
			log.Printf("💳 Order %d paid (payment %d)", order.ID, pay.ID)
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Payment " + string(pay.Status),
			"data": gin.H{
				"payment": pay,
				"order": gin.H{
					"id":             order.ID,
					"payment_status": order.PaymentStatus,
				},
			},
		})
	})

	// List payments for one of my orders
	router.GET("/orders/:id/payments", func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		orderID, ok := orderIDParam(c)
		if !ok {
			return
		}

		var order models.Order
		if err := database.DB.First(&order, orderID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Order not found",
				"message": "No order with this ID",
			})
			return
		}
		if order.CustomerID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "This order belongs to another account",
			})
			return
		}

		var list []models.Payment
		if err := database.DB.Where("order_id = ?", order.ID).Order("created_at DESC").Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to load payments",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"payments": list,
				"count":    len(list),
			},
		})
	})
}
