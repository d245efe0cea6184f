package routes

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"aasaan-server/config"
	"aasaan-server/database"
	"aasaan-server/middleware"
	"aasaan-server/models"
	"aasaan-server/services"
	"aasaan-server/utils"
)

var jwtService = services.NewJWTService()

var (
	otpOnce     sync.Once
	otpInstance *services.OTPService
)

// SharedOTPService returns the process-wide OTP store. Lazily created so the
// config is loaded before the TTL is read.
func SharedOTPService() *services.OTPService {
	otpOnce.Do(func() {
		otpInstance = services.NewOTPService()
	})
	return otpInstance
}

// SendOTPRequest represents the send-otp payload
type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// VerifyOTPRequest represents the verify-otp payload
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// RegisterRequest represents the registration payload. Registration is only
// valid after the phone number has a verified OTP pending.
type RegisterRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Language    string `json:"language"`
}

// RefreshTokenRequest represents the refresh token payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RegisterAuthRoutes registers authentication endpoints
func RegisterAuthRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/send-otp", middleware.AuthRateLimitMiddleware(), sendOTP)
		auth.POST("/verify-otp", middleware.AuthRateLimitMiddleware(), verifyOTP)
		auth.POST("/register", middleware.AuthRateLimitMiddleware(), register)
		auth.POST("/refresh", refreshToken)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/signout", signOut)
			protected.GET("/me", getMe)
		}
	}
}

// normalizePhone prepends the default country code when the caller sends a
// bare national number.
func normalizePhone(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	if !strings.HasPrefix(phone, "+") {
		phone = config.AppConfig.Phone.DefaultCountryCode + phone
	}
	return phone
}

// sendOTP issues a one-time code for the phone number. There is no SMS
// gateway in this build, the code is written to the server log instead.
func sendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "phone_number is required"})
		return
	}

	phone := normalizePhone(req.PhoneNumber)
	if !utils.ValidatePhoneNumber(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid phone number format"})
		return
	}

	code, err := SharedOTPService().Issue(phone)
	if err != nil {
		log.Printf("❌ Failed to issue OTP for %s: %v", phone, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate OTP"})
		return
	}

	// SMS delivery stub
	log.Printf("📱 OTP for %s: %s", phone, code)

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP sent successfully",
	})
}

// verifyOTP checks the submitted code. For a known phone number the code is
// consumed immediately and a token pair is returned; for an unknown number
// the verified entry is kept pending so the register call can consume it.
func verifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "phone_number and code are required"})
		return
	}

	phone := normalizePhone(req.PhoneNumber)
	if !utils.ValidatePhoneNumber(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid phone number format"})
		return
	}

	if err := SharedOTPService().Verify(phone, req.Code); err != nil {
		switch err {
		case services.ErrOTPExpired:
			c.JSON(http.StatusBadRequest, gin.H{"message": "OTP has expired. Please request a new one"})
		case services.ErrOTPNotFound:
			c.JSON(http.StatusBadRequest, gin.H{"message": "No pending OTP for this phone number"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid OTP"})
		}
		return
	}

	var user models.User
	if err := database.DB.Where("phone_number = ?", phone).First(&user).Error; err != nil {
		// New phone number, registration needed. The verified entry stays
		// pending until register consumes it or the TTL runs out.
		c.JSON(http.StatusOK, gin.H{
			"verified":              true,
			"registration_required": true,
		})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User account is deactivated"})
		return
	}

	if err := SharedOTPService().Consume(phone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "OTP verification failed"})
		return
	}

	tokens, err := jwtService.GenerateTokenPair(
		user.ID,
		c.GetHeader("X-Device-ID"),
		c.GetHeader("User-Agent"),
		c.ClientIP(),
	)
	if err != nil {
		log.Printf("❌ Failed to generate tokens for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate tokens"})
		return
	}

	log.Printf("✅ User %d signed in via OTP", user.ID)

	c.JSON(http.StatusOK, gin.H{
		"verified":              true,
		"registration_required": false,
		"tokens":                tokens,
		"user":                  user,
	})
}

// register creates a new account for a phone number with a verified OTP
func register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid registration data: " + err.Error()})
		return
	}

	phone := normalizePhone(req.PhoneNumber)
	if !utils.ValidatePhoneNumber(phone) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid phone number format"})
		return
	}

	// The name class only admits letters, marks, spaces and .'- so the
	// raw value is stored as typed. Escaping would mangle apostrophes.
	name := strings.TrimSpace(req.Name)
	if !utils.ValidateName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid name format"})
		return
	}

	var existing models.User
	if err := database.DB.Where("phone_number = ?", phone).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "An account with this phone number already exists"})
		return
	}

	if err := SharedOTPService().Consume(phone); err != nil {
		switch err {
		case services.ErrOTPExpired:
			c.JSON(http.StatusForbidden, gin.H{"message": "OTP has expired. Please request a new one"})
		default:
			c.JSON(http.StatusForbidden, gin.H{"message": "Phone number has not been verified"})
		}
		return
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	// The role stays unset until the user picks one via the profile
	user := models.User{
		PhoneNumber: phone,
		Name:        name,
		Language:    language,
		IsActive:    true,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		log.Printf("❌ Failed to create user for %s: %v", phone, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create account"})
		return
	}

	tokens, err := jwtService.GenerateTokenPair(
		user.ID,
		c.GetHeader("X-Device-ID"),
		c.GetHeader("User-Agent"),
		c.ClientIP(),
	)
	if err != nil {
		log.Printf("❌ Failed to generate tokens for new user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Account created but failed to generate tokens"})
		return
	}

	log.Printf("✅ New user registered: %d (%s)", user.ID, phone)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"tokens":  tokens,
		"user":    user,
	})
}

// refreshToken exchanges a refresh token for a new access token
func refreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "refresh_token is required"})
		return
	}

	tokens, err := jwtService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Refresh token is invalid or expired"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// signOut revokes the presented refresh token, or every token for the user
// when none is supplied
func signOut(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		if err := jwtService.RevokeRefreshToken(req.RefreshToken); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Refresh token not found"})
			return
		}
	} else {
		if err := jwtService.RevokeAllUserTokens(user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to sign out"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// getMe returns the authenticated user with the provider profile preloaded
func getMe(c *gin.Context) {
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
