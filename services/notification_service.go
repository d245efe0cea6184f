package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"aasaan-server/database"
	"aasaan-server/models"
)

const expoPushURL = "https://exp.host/--/api/v2/push/send"

// Notify writes the in-app notification record unconditionally, then pushes
// to every active token best-effort. A push failure is logged and never
// surfaced to the caller; the record has already been written.
func Notify(userID uint, ntype models.NotificationType, title, message string, data map[string]interface{}) error {
	dataJSON, _ := json.Marshal(data)
	notification := models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
		Data:    string(dataJSON),
		Read:    false,
	}

	if err := database.DB.Create(&notification).Error; err != nil {
		log.Printf("❌ Error creating notification record for user %d: %v", userID, err)
		return err
	}

	var tokens []models.PushToken
	if err := database.DB.Where("user_id = ? AND active = ?", userID, true).Find(&tokens).Error; err != nil {
		log.Printf("❌ Error fetching push tokens for user %d: %v", userID, err)
		return nil
	}

	if len(tokens) == 0 {
		return nil
	}

	successCount := 0
	for _, token := range tokens {
		if err := sendExpoPush(token.Token, title, message, data); err != nil {
			log.Printf("⚠️ Push to token %s failed: %v", token.Token, err)
		} else {
			successCount++
		}
	}

	log.Printf("📊 Push summary for user %d: %d/%d sent", userID, successCount, len(tokens))
	return nil
}

// sendExpoPush sends a notification via the Expo Push API
func sendExpoPush(token, title, body string, data map[string]interface{}) error {
	payload := map[string]interface{}{
		"to":        token,
		"title":     title,
		"body":      body,
		"data":      data,
		"sound":     "default",
		"priority":  "high",
		"channelId": "aasaan_updates",
	}

	bodyBytes, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", expoPushURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("expo push failed: %s - %s", resp.Status, string(respBody))
	}

	return nil
}

// NotifyNewRequest fans out a newRequest notification to a matched provider
func NotifyNewRequest(providerID uint, request *models.WorkRequest) error {
	return Notify(providerID, models.NotificationNewRequest,
		"New work request near you",
		fmt.Sprintf("A new %s request was posted in %s.", request.Service, request.LocationName),
		map[string]interface{}{
			"request_id": request.ID,
			"service":    request.Service,
		})
}

// NotifyRequestAccepted informs the request owner that a provider accepted
func NotifyRequestAccepted(ownerID uint, request *models.WorkRequest, providerName string) error {
	return Notify(ownerID, models.NotificationRequestAccepted,
		"Your request was accepted",
		fmt.Sprintf("%s accepted your %s request. They may contact you shortly.", providerName, request.Service),
		map[string]interface{}{
			"request_id": request.ID,
		})
}

// NotifyRatingPrompt informs a provider they were rated
func NotifyRatingPrompt(providerID uint, request *models.WorkRequest, stars int) error {
	return Notify(providerID, models.NotificationRatingPrompt,
		"You received a rating",
		fmt.Sprintf("A customer rated your work on a %s request %d star(s). Thank you!", request.Service, stars),
		map[string]interface{}{
			"request_id": request.ID,
			"stars":      stars,
		})
}

// NotifyBoosted confirms a boost to the request owner
func NotifyBoosted(ownerID uint, request *models.WorkRequest) error {
	return Notify(ownerID, models.NotificationBoostPromotion,
		"Request boosted",
		fmt.Sprintf("Your %s request is now boosted and will be shown with higher priority.", request.Service),
		map[string]interface{}{
			"request_id": request.ID,
		})
}

// NotifyAutoClosed informs the owner their stale request was closed
func NotifyAutoClosed(ownerID uint, request *models.WorkRequest) error {
	return Notify(ownerID, models.NotificationAutoClosed,
		"Request closed automatically",
		fmt.Sprintf("Your %s request was open for a long time and has been closed automatically.", request.Service),
		map[string]interface{}{
			"request_id": request.ID,
		})
}

// NotifyPlanChanged confirms a subscription change to the provider
func NotifyPlanChanged(userID uint, plan models.SubscriptionPlan) error {
	return Notify(userID, models.NotificationPlanPromotion,
		"Plan updated",
		fmt.Sprintf("Your subscription is now on the %s plan.", plan),
		map[string]interface{}{
			"plan": plan,
		})
}
