package routes

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
	"carcare-marketplace-server/services"
	"carcare-marketplace-server/utils"
)

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	jwtService := services.NewJWTService()

	// Sign up endpoint
	router.POST("/signup", func(c *gin.Context) {
		var req struct {
			FullName        string `json:"full_name" binding:"required,min=2,max=100"`
			Email           string `json:"email" binding:"required"`
			PhoneNumber     string `json:"phone_number"`
			Password        string `json:"password" binding:"required,min=8,max=128"`
			ConfirmPassword string `json:"confirm_password" binding:"required"`
			Role            string `json:"role" binding:"omitempty,oneof=customer provider"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		// Sanitize input
		req.FullName = utils.SanitizeString(req.FullName)
		req.Email = utils.SanitizeEmail(req.Email)
		req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

		if !utils.IsValidEmail(req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid email",
				"message": "Please provide a valid email address",
			})
			return
		}

		if !utils.IsStrongPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"message": "Password must be at least 8 characters with a letter and a digit",
			})
			return
		}

		if req.Password != req.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Password mismatch",
				"message": "Passwords do not match",
			})
			return
		}

		// Check if user already exists
		var existingUser models.User
		if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "User already exists",
				"message": "An account with this email already exists",
			})
			return
		}

		hashedPassword, err := jwtService.HashPassword(req.Password)
		if err != nil {
			log.Printf("❌ Password hashing failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to process password",
			})
			return
		}

		userRole := models.RoleCustomer
		if strings.ToLower(req.Role) == "provider" {
			userRole = models.RoleProvider
		}

		user := models.User{
			FullName:     req.FullName,
			Email:        req.Email,
			PhoneNumber:  req.PhoneNumber,
			PasswordHash: hashedPassword,
			Role:         userRole,
			IsActive:     true,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("❌ User creation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to create account",
			})
			return
		}

		tokenPair, err := jwtService.GenerateTokenPair(user.ID)
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication tokens",
			})
			return
		}

		log.Printf("✅ User created successfully: %d", user.ID)

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Account created successfully",
			"data": gin.H{
				"user": gin.H{
					"id":           user.ID,
					"full_name":    user.FullName,
					"email":        user.Email,
					"phone_number": user.PhoneNumber,
					"role":         user.Role,
					"is_active":    user.IsActive,
					"created_at":   user.CreatedAt,
				},
				"tokens": tokenPair,
			},
		})
	})

	// Sign in endpoint
	router.POST("/signin", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		req.Email = utils.SanitizeEmail(req.Email)

		var user models.User
		if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Email or password is incorrect",
			})
			return
		}

		if !jwtService.CheckPasswordHash(req.Password, user.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Email or password is incorrect",
			})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Account deactivated",
				"message": "This account has been deactivated",
			})
			return
		}

		tokenPair, err := jwtService.GenerateTokenPair(user.ID)
		if err != nil {
			log.Printf("❌ Token generation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to generate authentication tokens",
			})
			return
		}

		log.Printf("✅ User signed in: %d", user.ID)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Signed in successfully",
			"data": gin.H{
				"user": gin.H{
					"id":           user.ID,
					"full_name":    user.FullName,
					"email":        user.Email,
					"phone_number": user.PhoneNumber,
					"role":         user.Role,
				},
				"tokens": tokenPair,
			},
		})
	})

	// Refresh token endpoint
	router.POST("/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		tokenPair, err := jwtService.RefreshAccessToken(req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid refresh token",
				"message": "Please sign in again",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"tokens": tokenPair},
		})
	})

	// Logout endpoint
	router.POST("/logout", middleware.AuthMiddleware(), func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&req)

		if req.RefreshToken != "" {
			_ = jwtService.RevokeRefreshToken(req.RefreshToken)
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Logged out successfully",
		})
	})

	// Current user endpoint
	router.GET("/me", middleware.AuthMiddleware(), func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"user": user},
		})
	})

	// Request a password reset code
	router.POST("/password-reset/request", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		req.Email = utils.SanitizeEmail(req.Email)

		// Always answer 200 so the endpoint cannot be used to probe accounts
		var user models.User
		if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err == nil {
			code, err := generateResetCode()
			if err == nil {
				reset := models.PasswordReset{
					UserID:    user.ID,
					CodeHash:  hashResetCode(code),
					ExpiresAt: time.Now().Add(15 * time.Minute),
				}
				if err := database.DB.Create(&reset).Error; err == nil {
					// Delivery over email/SMS happens out of band
					log.Printf("🔑 Password reset code issued for user %d", user.ID)
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "If the account exists, a reset code has been sent",
		})
	})

	// Confirm a password reset
	router.POST("/password-reset/confirm", func(c *gin.Context) {
		var req struct {
			Email       string `json:"email" binding:"required"`
			Code        string `json:"code" binding:"required"`
			NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		req.Email = utils.SanitizeEmail(req.Email)
		if !utils.IsStrongPassword(req.NewPassword) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"message": "Password must be at least 8 characters with a letter and a digit",
			})
			return
		}

		var user models.User
		if err := database.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid reset code",
				"message": "Reset code is invalid or expired",
			})
			return
		}

		var reset models.PasswordReset
		err := database.DB.Where("user_id = ? AND code_hash = ?", user.ID, hashResetCode(req.Code)).
			Order("created_at DESC").First(&reset).Error
		if err != nil || !reset.IsValid() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid reset code",
				"message": "Reset code is invalid or expired",
			})
			return
		}

		hashedPassword, err := jwtService.HashPassword(req.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to process password",
			})
			return
		}

		user.PasswordHash = hashedPassword
		reset.Used = true
		database.DB.Save(&user)
		database.DB.Save(&reset)

		// Old sessions die with the password
		_ = jwtService.RevokeAllUserTokens(user.ID)

		log.Printf("✅ Password reset for user %d", user.ID)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Password updated successfully",
		})
	})
}

func generateResetCode() (string, error) {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func hashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
