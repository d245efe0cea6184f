package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"aasaan-server/config"
	"aasaan-server/database"
	"aasaan-server/middleware"
	"aasaan-server/models"
	"aasaan-server/services"
)

var paymentService = services.NewPaymentService()

// BoostRequest represents the boost payload
type BoostRequest struct {
	RequestID  uint `json:"request_id" binding:"required"`
	UseCredits bool `json:"use_credits"`
}

// SubscribeRequest represents the subscription payload
type SubscribeRequest struct {
	Plan       string `json:"plan" binding:"required"`
	UseCredits bool   `json:"use_credits"`
}

// OrderRequest represents a gateway order payload
type OrderRequest struct {
	Amount int `json:"amount" binding:"required"`
}

// RegisterPaymentRoutes registers boost, subscription and gateway endpoints
func RegisterPaymentRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	payments.Use(middleware.AuthMiddleware())
	{
		payments.POST("/boost", boostRequest)
		payments.POST("/subscribe", subscribePlan)
		payments.POST("/order", createPaymentOrder)
	}
}

// deductCredits checks the balance and decrements by exactly cost. The
// check-then-write pair is not wrapped in a transaction.
func deductCredits(user *models.User, cost int) (bool, error) {
	if user.CreditPoints < cost {
		return false, nil
	}
	if err := database.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		UpdateColumn("credit_points", user.CreditPoints-cost).Error; err != nil {
		return false, err
	}
	user.CreditPoints -= cost
	return true, nil
}

// boostRequest promotes an owned active request. Cash payments are assumed
// to have succeeded; the gateway order flow is a separate endpoint.
func boostRequest(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	if !user.IsEndUser() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only end users can boost work requests"})
		return
	}

	var req BoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "request_id is required"})
		return
	}

	var request models.WorkRequest
	if err := database.DB.
		Where("id = ? AND user_id = ?", req.RequestID, user.ID).
		First(&request).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Work request not found"})
		return
	}

	if request.Boosted {
		c.JSON(http.StatusConflict, gin.H{"message": "Work request is already boosted"})
		return
	}

	cost := config.AppConfig.Payment.BoostCost
	if req.UseCredits {
		paid, err := deductCredits(&user, cost)
		if err != nil {
			log.Printf("❌ Failed to deduct credits from user %d: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to process credit payment"})
			return
		}
		if !paid {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient credit points"})
			return
		}
	}

	request.Boosted = true
	if err := database.DB.Save(&request).Error; err != nil {
		log.Printf("❌ Failed to boost request %d: %v", request.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to boost work request"})
		return
	}

	log.Printf("🚀 Request %d boosted by user %d (credits: %v)", request.ID, user.ID, req.UseCredits)

	go func(ownerID uint, r models.WorkRequest) {
		if err := services.NotifyBoosted(ownerID, &r); err != nil {
			log.Printf("⚠️ Failed to send boost notification for request %d: %v", r.ID, err)
		}
	}(request.UserID, request)

	c.JSON(http.StatusOK, gin.H{
		"message":        "Work request boosted successfully",
		"request":        request,
		"credit_balance": user.CreditPoints,
	})
}

// subscribePlan switches a provider onto a paid plan
func subscribePlan(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	if !user.IsServiceProvider() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only service providers can subscribe to plans"})
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "plan is required"})
		return
	}

	var cost int
	var plan models.SubscriptionPlan
	switch req.Plan {
	case string(models.PlanBasic):
		plan = models.PlanBasic
		cost = config.AppConfig.Payment.BasicPlanCost
	case string(models.PlanPro):
		plan = models.PlanPro
		cost = config.AppConfig.Payment.ProPlanCost
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown plan: must be basic or pro"})
		return
	}

	if req.UseCredits {
		paid, err := deductCredits(&user, cost)
		if err != nil {
			log.Printf("❌ Failed to deduct credits from user %d: %v", user.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to process credit payment"})
			return
		}
		if !paid {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient credit points"})
			return
		}
	}

	if err := database.DB.Model(&models.User{}).
		Where("id = ?", user.ID).
		UpdateColumn("plan", plan).Error; err != nil {
		log.Printf("❌ Failed to update plan for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update subscription"})
		return
	}

	log.Printf("💎 User %d subscribed to the %s plan (credits: %v)", user.ID, plan, req.UseCredits)

	go func(userID uint, p models.SubscriptionPlan) {
		if err := services.NotifyPlanChanged(userID, p); err != nil {
			log.Printf("⚠️ Failed to send plan notification to user %d: %v", userID, err)
		}
	}(user.ID, plan)

	c.JSON(http.StatusOK, gin.H{
		"message":        "Subscription updated successfully",
		"plan":           plan,
		"credit_balance": user.CreditPoints,
	})
}

// createPaymentOrder creates a gateway order. This path runs alongside the
// boost and subscribe endpoints and does not gate them.
func createPaymentOrder(c *gin.Context) {
	if _, ok := middleware.CurrentUser(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found in context"})
		return
	}

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "amount must be a positive number of rupees"})
		return
	}

	order, err := paymentService.CreateOrder(req.Amount)
	if err != nil {
		if err == services.ErrPaymentNotConfigured {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Payment gateway is not configured"})
			return
		}
		log.Printf("❌ Gateway order creation failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to create payment order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
