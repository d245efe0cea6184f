package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aasaan-server/config"
	"aasaan-server/database"
	"aasaan-server/middleware"
	"aasaan-server/models"
	"aasaan-server/services"
)

// setupTestRouter wires a fresh in-memory database and a router with every
// route group registered.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	config.Load()
	middleware.ResetRateLimiters()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	database.DB = db

	router := gin.New()
	v1 := router.Group("/api/v1")
	RegisterAuthRoutes(v1)
	RegisterWorkRequestRoutes(v1)
	RegisterPaymentRoutes(v1)
	RegisterNotificationRoutes(v1)
	RegisterProfileRoutes(v1)

	return router
}

// createTestUser inserts a user with the given role
func createTestUser(t *testing.T, phone string, role models.UserRole) models.User {
	t.Helper()

	user := models.User{
		PhoneNumber: phone,
		Name:        "Test User",
		Language:    "en",
		Role:        role,
		IsActive:    true,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestProvider inserts a provider user with a profile declaring the
// given services
func createTestProvider(t *testing.T, phone string, serviceIDs []string) models.User {
	t.Helper()

	user := createTestUser(t, phone, models.RoleServiceProvider)
	profile := models.ProviderProfile{
		UserID:   user.ID,
		RadiusKm: 5,
	}
	profile.SetServiceList(serviceIDs)
	if err := database.DB.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create provider profile: %v", err)
	}
	return user
}

// accessTokenFor issues a real access token for the user
func accessTokenFor(t *testing.T, user models.User) string {
	t.Helper()

	tokens, err := services.NewJWTService().GenerateTokenPair(user.ID, "test-device", "go-test", "127.0.0.1")
	if err != nil {
		t.Fatalf("failed to generate tokens: %v", err)
	}
	return tokens.AccessToken
}

// doJSON performs a JSON request against the router
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

// decodeBody unmarshals a response body into a map
func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body %q: %v", recorder.Body.String(), err)
	}
	return body
}
