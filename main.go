package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"carcare-marketplace-server/config"
	"carcare-marketplace-server/database"
	"carcare-marketplace-server/jobs"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/payments"
	"carcare-marketplace-server/repository"
	"carcare-marketplace-server/routes"
	"carcare-marketplace-server/services"
	ws "carcare-marketplace-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database (runs migrations)
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Set Gin mode
	if config.AppConfig.Server.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security middleware stack
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.InputValidationMiddleware())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(corsMiddleware())
	router.Use(middleware.AuditLogMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Carcare Marketplace Server is running",
			"time":    time.Now().UTC(),
		})
	})

	// WebSocket hub for live order events
	hub := ws.NewHub()
	go hub.Run()

	// Service layer wiring. The gorm store backs both the transactional
	// store and the notification sink.
	store := repository.NewGormStore(database.DB)
	dispatcher := services.NewDispatcher(store, ws.NewEventBridge(hub))
	catalogService := services.NewCatalogService(store, config.AppConfig.Matching)
	quoteService := services.NewQuoteService(store, dispatcher)
	orderService := services.NewOrderService(store, dispatcher, config.AppConfig.Matching)

	gateway, err := payments.NewMercadoPagoGateway(config.AppConfig.Payment.MercadoPagoAccessToken)
	if err != nil {
		log.Printf("⚠️ Payment gateway unavailable: %v", err)
		gateway = nil
	}

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes)

		// Public service catalog
		routes.RegisterServiceCatalogRoutes(api.Group("/services"))

		// Provider search, detail, and profile management
		providerRoutes := api.Group("/provider")
		routes.RegisterProviderRoutes(providerRoutes, catalogService)
		routes.RegisterProviderMediaRoutes(providerRoutes)

		// Orders and the quotes nested under them
		routes.RegisterOrderRoutes(api.Group("/orders"), orderService, quoteService)

		// Quote decisions
		routes.RegisterQuoteDecisionRoutes(api.Group("/quotes"), quoteService)

		// Notifications and push tokens
		routes.RegisterNotificationRoutes(api.Group("/notifications"))

		// Customer vehicle garage
		routes.RegisterVehicleRoutes(api.Group("/vehicles"))

		// Payments
		routes.RegisterPaymentRoutes(api.Group("/payments"), gateway)

		// Admin oversight
		routes.RegisterAdminRoutes(api.Group("/admin"))

		// Live order event stream
		routes.RegisterWebSocketRoutes(api.Group("/orders"), hub)
	}

	// Start background lifecycle sweeps
	expirationJob := jobs.NewExpirationJob(quoteService, orderService, services.NewJWTService(), config.AppConfig.Matching)
	expirationJob.Start()
	defer expirationJob.Stop()

	port := config.AppConfig.Server.Port
	log.Printf("Server starting on port %s", port)
	if err := router.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// corsMiddleware builds the CORS policy. Allowed origins come from
// CORS_ALLOWED_ORIGINS (comma separated); development defaults to allow-all.
func corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}

	return cors.New(cfg)
}
