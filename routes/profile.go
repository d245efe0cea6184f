package routes

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"

	"aasaan-server/config"
	"aasaan-server/database"
	"aasaan-server/middleware"
	"aasaan-server/models"
	"aasaan-server/utils"
)

// RegisterProfileRoutes registers the profile endpoints
func RegisterProfileRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile")
	profile.Use(middleware.AuthMiddleware())
	{
		profile.GET("", getProfile)
		profile.PUT("", updateProfile)
		profile.POST("/photo", uploadProfilePhoto)
	}
}

// getProfile returns the current user with the provider profile preloaded
func getProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	var full models.User
	if err := database.DB.Preload("ProviderProfile").First(&full, user.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": full})
}

// updateProfile applies partial updates to the user and, when supplied, the
// provider profile. The role is mutable without any re-verification.
func updateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	var req models.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid profile data: " + err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !utils.ValidateName(name) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid name format"})
			return
		}
		updates["name"] = name
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			log.Printf("❌ Failed to update profile for user %d: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update profile"})
			return
		}
	}

	if req.ProviderInfo != nil {
		if err := upsertProviderProfile(user.ID, req.ProviderInfo, c); err != nil {
			return // response already written
		}
	}

	var full models.User
	if err := database.DB.Preload("ProviderProfile").First(&full, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to reload profile"})
		return
	}

	log.Printf("✅ Profile updated for user %d", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    full,
	})
}

// upsertProviderProfile validates and writes the provider facet. The
// services list is stored as sent; the 3-service cap lives in the client.
func upsertProviderProfile(userID uint, info *models.ProviderInfoRequest, c *gin.Context) error {
	if info.RadiusKm != nil && !utils.ValidateRadius(*info.RadiusKm) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Radius must be one of 5, 10, 15 or 20 km"})
		return errInvalidProviderInfo
	}
	if (info.LocationLat != nil) != (info.LocationLng != nil) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Location latitude and longitude must be set together"})
		return errInvalidProviderInfo
	}
	if info.LocationLat != nil && !utils.IsLocationValid(*info.LocationLat, *info.LocationLng) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Location coordinates are out of range"})
		return errInvalidProviderInfo
	}

	var profile models.ProviderProfile
	err := database.DB.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		profile = models.ProviderProfile{UserID: userID, RadiusKm: 5}
	}

	profile.SetServiceList(info.Services)
	if info.LocationName != nil {
		profile.LocationName = info.LocationName
	}
	if info.LocationLat != nil {
		profile.LocationLat = info.LocationLat
		profile.LocationLng = info.LocationLng
	}
	if info.RadiusKm != nil {
		profile.RadiusKm = *info.RadiusKm
	}

	if err := database.DB.Save(&profile).Error; err != nil {
		log.Printf("❌ Failed to save provider profile for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update provider profile"})
		return errInvalidProviderInfo
	}

	return nil
}

var errInvalidProviderInfo = &providerInfoError{}

type providerInfoError struct{}

func (e *providerInfoError) Error() string { return "invalid provider info" }

// uploadProfilePhoto uploads a profile photo to Cloudinary and stores the URL
func uploadProfilePhoto(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "photo file is required"})
		return
	}

	if file.Size > 5*1024*1024 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Photo must be smaller than 5MB"})
		return
	}

	cfg := config.AppConfig.Cloudinary
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Photo uploads are not configured"})
		return
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		log.Printf("❌ Cloudinary init failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to initialize upload service"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read uploaded file"})
		return
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := cld.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:   "aasaan/profiles",
		PublicID: fmt.Sprintf("user_%d", user.ID),
	})
	if err != nil {
		log.Printf("❌ Photo upload failed for user %d: %v", user.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to upload photo"})
		return
	}

	if err := database.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		UpdateColumn("photo_url", result.SecureURL).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save photo URL"})
		return
	}

	log.Printf("🖼️ Profile photo updated for user %d", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Photo uploaded successfully",
		"photo_url": result.SecureURL,
	})
}
