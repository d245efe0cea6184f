package routes

import (
	"net/http"
	"testing"

	"aasaan-server/database"
	"aasaan-server/models"
)

func TestUpdateProfileRoleSwitch(t *testing.T) {
	router := setupTestRouter(t)
	user := createTestUser(t, "+911231231231", models.RoleEndUser)
	token := accessTokenFor(t, user)

	// switching role requires no re-verification
	w := doJSON(t, router, "PUT", "/api/v1/profile", token, map[string]interface{}{
		"role": "serviceProvider",
		"provider_info": map[string]interface{}{
			"services":  []string{"plumber", "electrician"},
			"radius_km": 10,
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on role switch, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded models.User
	database.DB.Preload("ProviderProfile").First(&reloaded, user.ID)
	if reloaded.Role != models.RoleServiceProvider {
		t.Fatalf("expected serviceProvider role, got %q", reloaded.Role)
	}
	if reloaded.ProviderProfile == nil {
		t.Fatal("expected provider profile to be created")
	}
	if reloaded.ProviderProfile.RadiusKm != 10 {
		t.Fatalf("expected radius 10, got %d", reloaded.ProviderProfile.RadiusKm)
	}
	if !reloaded.ProviderProfile.OffersService("plumber") {
		t.Fatal("expected plumber in declared services")
	}

	// the declared services come back in the profile payload
	w = doJSON(t, router, "GET", "/api/v1/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from profile, got %d", w.Code)
	}
	body := decodeBody(t, w)
	profile := body["user"].(map[string]interface{})["provider_profile"].(map[string]interface{})
	serviceList, ok := profile["services"].([]interface{})
	if !ok || len(serviceList) != 2 {
		t.Fatalf("expected 2 services in profile response, got %v", profile["services"])
	}
	if serviceList[1] != "electrician" {
		t.Fatalf("expected electrician in services, got %v", serviceList)
	}
}

func TestUpdateProfileKeepsApostropheNames(t *testing.T) {
	router := setupTestRouter(t)
	user := createTestUser(t, "+916576576570", models.RoleEndUser)
	token := accessTokenFor(t, user)

	w := doJSON(t, router, "PUT", "/api/v1/profile", token, map[string]interface{}{
		"name": "Maria D'Souza",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for apostrophe name, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded models.User
	database.DB.First(&reloaded, user.ID)
	if reloaded.Name != "Maria D'Souza" {
		t.Fatalf("expected name stored as typed, got %q", reloaded.Name)
	}
}

func TestUpdateProfileRejectsBadRadius(t *testing.T) {
	router := setupTestRouter(t)
	user := createTestUser(t, "+914564564564", models.RoleServiceProvider)
	token := accessTokenFor(t, user)

	w := doJSON(t, router, "PUT", "/api/v1/profile", token, map[string]interface{}{
		"provider_info": map[string]interface{}{
			"services":  []string{"plumber"},
			"radius_km": 7,
		},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for radius outside the enum, got %d", w.Code)
	}
}

func TestUpdateProfileInvalidName(t *testing.T) {
	router := setupTestRouter(t)
	user := createTestUser(t, "+917897897897", models.RoleEndUser)
	token := accessTokenFor(t, user)

	w := doJSON(t, router, "PUT", "/api/v1/profile", token, map[string]interface{}{
		"name": "x",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for one-letter name, got %d", w.Code)
	}
}

func TestGetProfile(t *testing.T) {
	router := setupTestRouter(t)
	user := createTestUser(t, "+913213213213", models.RoleEndUser)
	token := accessTokenFor(t, user)

	w := doJSON(t, router, "GET", "/api/v1/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from profile, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	profile := body["user"].(map[string]interface{})
	if profile["phone_number"] != user.PhoneNumber {
		t.Fatalf("expected phone %s, got %v", user.PhoneNumber, profile["phone_number"])
	}
}
