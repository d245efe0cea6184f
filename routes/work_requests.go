package routes

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"aasaan-server/database"
	"aasaan-server/middleware"
	"aasaan-server/models"
	"aasaan-server/services"
	"aasaan-server/utils"
	"aasaan-server/websocket"
)

// Sliding-window posting quota for end users
const (
	requestQuotaLimit  = 3
	requestQuotaWindow = 24 * time.Hour
)

// RegisterWorkRequestRoutes registers the work-request lifecycle endpoints
func RegisterWorkRequestRoutes(router *gin.RouterGroup) {
	requests := router.Group("/work-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("", createWorkRequest)
		requests.GET("", listWorkRequests)
		requests.GET("/:id", getWorkRequest)
		requests.PUT("/:id/accept", acceptWorkRequest)
		requests.PUT("/:id/close", closeWorkRequest)
	}
}

// createWorkRequest posts a new service need. End users only. A sliding
// 24-hour window caps posting at 3 requests unless force is set.
func createWorkRequest(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	if !user.IsEndUser() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only end users can create work requests"})
		return
	}

	var req models.WorkRequestCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request data: " + err.Error()})
		return
	}

	if req.Location.Name == "" || req.Location.Lat == nil || req.Location.Lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Location name and coordinates are required"})
		return
	}
	if !utils.IsLocationValid(*req.Location.Lat, *req.Location.Lng) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Location coordinates are out of range"})
		return
	}
	if !utils.ValidateTags(req.Tags) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Tags must be alphanumeric and at most 21 characters"})
		return
	}

	if !req.Force {
		var recentCount int64
		windowStart := time.Now().Add(-requestQuotaWindow)
		database.DB.Model(&models.WorkRequest{}).
			Where("user_id = ? AND created_at > ?", user.ID, windowStart).
			Count(&recentCount)

		if recentCount >= requestQuotaLimit {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"message": "You have reached the limit of 3 requests in 24 hours",
				"code":    "LIMIT_EXCEEDED",
			})
			return
		}
	}

	request := models.WorkRequest{
		UserID:       user.ID,
		Service:      req.Service,
		LocationName: utils.SanitizeInput(req.Location.Name),
		LocationLat:  *req.Location.Lat,
		LocationLng:  *req.Location.Lng,
		Status:       models.RequestStatusActive,
	}
	request.SetTagList(req.Tags)

	if err := database.DB.Create(&request).Error; err != nil {
		log.Printf("❌ Failed to create work request for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create work request"})
		return
	}

	log.Printf("✅ Work request %d created by user %d (%s)", request.ID, user.ID, request.Service)

	// Fan out off the request path
	go notifyMatchingProviders(&request)
	websocket.FeedHub.BroadcastNewRequest(&request)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Work request created successfully",
		"request": request,
	})
}

// notifyMatchingProviders sends a newRequest notification to every provider
// whose declared services contain the exact service id. Matching is by
// service only; the provider radius is not consulted.
func notifyMatchingProviders(request *models.WorkRequest) {
	var profiles []models.ProviderProfile
	if err := database.DB.Where("services != ''").Find(&profiles).Error; err != nil {
		log.Printf("❌ Failed to load provider profiles for request %d fan-out: %v", request.ID, err)
		return
	}

	notified := 0
	for i := range profiles {
		if !profiles[i].OffersService(request.Service) {
			continue
		}
		if err := services.NotifyNewRequest(profiles[i].UserID, request); err != nil {
			log.Printf("⚠️ Failed to notify provider %d about request %d: %v", profiles[i].UserID, request.ID, err)
			continue
		}
		notified++
	}

	log.Printf("📢 Request %d fanned out to %d providers", request.ID, notified)
}

// listWorkRequests returns the role-scoped request list. End users see all
// of their own requests; providers see active requests matching their
// declared services.
func listWorkRequests(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	switch {
	case user.IsEndUser():
		var requests []models.WorkRequest
		if err := database.DB.
			Preload("Acceptances").
			Preload("Acceptances.Provider").
			Preload("Rating").
			Where("user_id = ?", user.ID).
			Order("created_at DESC").
			Find(&requests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch work requests"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})

	case user.IsServiceProvider():
		var profile models.ProviderProfile
		if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
			c.JSON(http.StatusOK, gin.H{"requests": []models.WorkRequest{}, "count": 0})
			return
		}

		serviceList := profile.ServiceList()
		if len(serviceList) == 0 {
			c.JSON(http.StatusOK, gin.H{"requests": []models.WorkRequest{}, "count": 0})
			return
		}

		var requests []models.WorkRequest
		if err := database.DB.
			Preload("User").
			Where("status = ? AND service IN ?", models.RequestStatusActive, serviceList).
			Order("boosted DESC, created_at DESC").
			Find(&requests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch work requests"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})

	default:
		c.JSON(http.StatusForbidden, gin.H{"message": "Set a role before browsing work requests"})
	}
}

// getWorkRequest returns a single request. End users can only read their
// own; providers can only read requests they have already accepted.
func getWorkRequest(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	var request models.WorkRequest
	if err := database.DB.
		Preload("User").
		Preload("Acceptances").
		Preload("Acceptances.Provider").
		Preload("Rating").
		First(&request, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Work request not found"})
		return
	}

	switch {
	case user.IsEndUser():
		if request.UserID != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"message": "You can only view your own work requests"})
			return
		}
	case user.IsServiceProvider():
		var acceptance models.RequestAcceptance
		if err := database.DB.
			Where("request_id = ? AND provider_id = ?", request.ID, user.ID).
			First(&acceptance).Error; err != nil {
			c.JSON(http.StatusForbidden, gin.H{"message": "You can only view requests you have accepted"})
			return
		}
	default:
		c.JSON(http.StatusForbidden, gin.H{"message": "Set a role before viewing work requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// acceptWorkRequest records a provider accepting a request. The duplicate
// check runs before the eligibility check. There is no cap on how many
// providers accept the same request and the status does not change.
func acceptWorkRequest(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	if !user.IsServiceProvider() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only service providers can accept work requests"})
		return
	}

	var request models.WorkRequest
	if err := database.DB.First(&request, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Work request not found"})
		return
	}

	var existing models.RequestAcceptance
	if err := database.DB.
		Where("request_id = ? AND provider_id = ?", request.ID, user.ID).
		First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "You have already accepted this request"})
		return
	}

	var profile models.ProviderProfile
	if err := database.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil || !profile.OffersService(request.Service) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not eligible for this request"})
		return
	}

	acceptance := models.RequestAcceptance{
		RequestID:  request.ID,
		ProviderID: user.ID,
		AcceptedAt: time.Now(),
	}
	if err := database.DB.Create(&acceptance).Error; err != nil {
		log.Printf("❌ Failed to record acceptance of request %d by provider %d: %v", request.ID, user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to accept work request"})
		return
	}

	log.Printf("✅ Provider %d accepted request %d", user.ID, request.ID)

	go func(ownerID uint, req models.WorkRequest, providerName string) {
		if err := services.NotifyRequestAccepted(ownerID, &req, providerName); err != nil {
			log.Printf("⚠️ Failed to notify owner %d about acceptance: %v", ownerID, err)
		}
	}(request.UserID, request, user.Name)

	c.JSON(http.StatusOK, gin.H{
		"message":    "Work request accepted",
		"acceptance": acceptance,
	})
}

// closeWorkRequest closes an owned request, optionally recording a rating.
// A 5-star rating credits the rated provider 10 points. The rated provider
// is not checked against the acceptance list.
func closeWorkRequest(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	if !user.IsEndUser() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only end users can close work requests"})
		return
	}

	var request models.WorkRequest
	if err := database.DB.
		Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		First(&request).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Work request not found"})
		return
	}

	if request.IsClosed() {
		c.JSON(http.StatusConflict, gin.H{"message": "Work request is already closed"})
		return
	}

	var req models.WorkRequestClose
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid close data: " + err.Error()})
			return
		}
	}

	if (req.ProviderID != nil) != (req.Stars != nil) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "provider_id and stars are both required to submit a rating"})
		return
	}
	if req.HasRating() && (*req.Stars < 1 || *req.Stars > 5) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Stars must be between 1 and 5"})
		return
	}

	now := time.Now()
	request.Status = models.RequestStatusClosed
	request.ClosedAt = &now

	if err := database.DB.Save(&request).Error; err != nil {
		log.Printf("❌ Failed to close request %d: %v", request.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to close work request"})
		return
	}

	log.Printf("✅ Request %d closed by owner %d", request.ID, user.ID)

	if req.HasRating() {
		applyRating(&request, &req)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Work request closed",
		"request": request,
	})
}

// applyRating upserts the rating for a closed request and pays out the
// 5-star credit bonus.
func applyRating(request *models.WorkRequest, req *models.WorkRequestClose) {
	var rating models.RequestRating
	err := database.DB.Where("request_id = ?", request.ID).First(&rating).Error
	if err == nil {
		rating.ProviderID = *req.ProviderID
		rating.Stars = *req.Stars
		rating.Review = req.Review
		err = database.DB.Save(&rating).Error
	} else {
		rating = models.RequestRating{
			RequestID:  request.ID,
			ProviderID: *req.ProviderID,
			Stars:      *req.Stars,
			Review:     req.Review,
		}
		err = database.DB.Create(&rating).Error
	}
	if err != nil {
		log.Printf("❌ Failed to record rating for request %d: %v", request.ID, err)
		return
	}

	// Exactly five stars pays the bonus; four and below pay nothing
	if rating.Stars == 5 {
		if err := database.DB.Model(&models.User{}).
			Where("id = ?", rating.ProviderID).
			UpdateColumn("credit_points", gorm.Expr("credit_points + ?", 10)).Error; err != nil {
			log.Printf("❌ Failed to credit provider %d for 5-star rating: %v", rating.ProviderID, err)
		} else {
			log.Printf("⭐ Provider %d credited 10 points for a 5-star rating", rating.ProviderID)
		}
	}

	go func(providerID uint, r models.WorkRequest, stars int) {
		if err := services.NotifyRatingPrompt(providerID, &r, stars); err != nil {
			log.Printf("⚠️ Failed to notify provider %d about rating: %v", providerID, err)
		}
	}(rating.ProviderID, *request, rating.Stars)
}
