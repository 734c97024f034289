package routes

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/database"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/models"
)

// validateImageFile validates mimetype and size (<= 5MB)
func validateImageFile(h *multipart.FileHeader) bool {
	if h == nil || h.Size <= 0 || h.Size > 5*1024*1024 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(h.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}

// RegisterProviderMediaRoutes adds provider photo upload endpoints
func RegisterProviderMediaRoutes(router *gin.RouterGroup) {
	router.POST("/me/photos", middleware.AuthMiddleware(), middleware.RequireProvider(), func(c *gin.Context) {
		userID := c.GetUint("user_id")

		if err := c.Request.ParseMultipartForm(10 << 20); err != nil { // 10MB
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid form data"})
			return
		}

		profileHeader, _ := c.FormFile("profile_photo")
		licenceHeader, _ := c.FormFile("licence_photo")
		licenceBackHeader, _ := c.FormFile("licence_photo_back")

		if profileHeader == nil && licenceHeader == nil && licenceBackHeader == nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No files provided"})
			return
		}

		if profileHeader != nil && !validateImageFile(profileHeader) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid profile photo"})
			return
		}
		if licenceHeader != nil && !validateImageFile(licenceHeader) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid licence photo"})
			return
		}
		if licenceBackHeader != nil && !validateImageFile(licenceBackHeader) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid licence back photo"})
			return
		}

		var provider models.Provider
		if err := database.DB.Where("user_id = ?", userID).First(&provider).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Provider profile not found"})
			return
		}

		cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
		apiKey := os.Getenv("CLOUDINARY_API_KEY")
		apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

		if cloudName == "" || apiKey == "" || apiSecret == "" {
			log.Printf("❌ Cloudinary environment variables not set")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cloudinary not configured"})
			return
		}

		cloudinaryURL := fmt.Sprintf("cloudinary://%s:%s@%s", apiKey, apiSecret, cloudName)
		cld, err := cloudinary.NewFromURL(cloudinaryURL)
		if err != nil {
			log.Printf("❌ Failed to initialize Cloudinary: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Cloudinary initialization failed"})
			return
		}

		ctx := context.Background()
		data := gin.H{}

		upload := func(header *multipart.FileHeader, folder string) (string, error) {
			if header == nil {
				return "", nil
			}
			file, err := header.Open()
			if err != nil {
				return "", err
			}
			defer file.Close()
			ow := true
			uf := true
			up, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
				Folder:         folder,
				PublicID:       strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)),
				Overwrite:      &ow,
				UniqueFilename: &uf,
				ResourceType:   "image",
			})
			if err != nil {
				return "", err
			}
			return up.SecureURL, nil
		}

		base := "providers"
		profileFolder := base + "/profile_photos/" + strconv.Itoa(int(userID))
		licenceFolder := base + "/licences/" + strconv.Itoa(int(userID)) + "/front"
		licenceBackFolder := base + "/licences/" + strconv.Itoa(int(userID)) + "/back"

		if profileHeader != nil {
			if url, err := upload(profileHeader, profileFolder); err == nil {
				provider.ProfilePhoto = &url
				data["profile_photo_url"] = url
				log.Printf("✅ Profile photo uploaded for provider %d", provider.ID)
			} else {
				log.Printf("❌ Profile photo upload failed: %v", err)
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Profile upload failed"})
				return
			}
		}
		if licenceHeader != nil {
			if url, err := upload(licenceHeader, licenceFolder); err == nil {
				provider.LicencePhoto = &url
				data["licence_photo_url"] = url
				log.Printf("✅ Licence photo uploaded for provider %d", provider.ID)
			} else {
				log.Printf("❌ Licence photo upload failed: %v", err)
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Licence upload failed"})
				return
			}
		}
		if licenceBackHeader != nil {
			if url, err := upload(licenceBackHeader, licenceBackFolder); err == nil {
				provider.LicenceBackPhoto = &url
				data["licence_photo_back_url"] = url
				log.Printf("✅ Licence back photo uploaded for provider %d", provider.ID)
			} else {
				log.Printf("❌ Licence back photo upload failed: %v", err)
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Licence back upload failed"})
				return
			}
		}

		provider.UpdatedAt = time.Now()
		if err := database.DB.Save(&provider).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save profile"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
	})
}
