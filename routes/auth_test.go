package routes

import (
	"net/http"
	"testing"

	"aasaan-server/database"
	"aasaan-server/models"
)

// Codes are issued through the shared OTP store directly because the
// send-otp endpoint only logs them.
func TestOTPRegistrationFlow(t *testing.T) {
	router := setupTestRouter(t)
	phone := "+911112223334"

	// no pending OTP yet
	w := doJSON(t, router, "POST", "/api/v1/auth/verify-otp", "", map[string]interface{}{
		"phone_number": phone,
		"code":         "000000",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a pending OTP, got %d", w.Code)
	}

	code, err := SharedOTPService().Issue(phone)
	if err != nil {
		t.Fatalf("failed to issue OTP: %v", err)
	}

	// wrong code is rejected, the entry stays pending
	w = doJSON(t, router, "POST", "/api/v1/auth/verify-otp", "", map[string]interface{}{
		"phone_number": phone,
		"code":         "000000",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong code, got %d", w.Code)
	}

	// right code for an unknown phone asks for registration
	w = doJSON(t, router, "POST", "/api/v1/auth/verify-otp", "", map[string]interface{}{
		"phone_number": phone,
		"code":         code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for correct code, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["registration_required"] != true {
		t.Fatalf("expected registration_required true, got %v", body["registration_required"])
	}

	// registration consumes the verified entry and issues tokens
	w = doJSON(t, router, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"phone_number": phone,
		"name":         "Asha Kumari",
		"language":     "hi",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on registration, got %d: %s", w.Code, w.Body.String())
	}
	body = decodeBody(t, w)
	if body["tokens"] == nil {
		t.Fatal("expected token pair in registration response")
	}

	var user models.User
	if err := database.DB.Where("phone_number = ?", phone).First(&user).Error; err != nil {
		t.Fatalf("expected user to exist after registration: %v", err)
	}
	if user.Role != "" {
		t.Fatalf("expected role unset after registration, got %q", user.Role)
	}
	if user.CreditPoints != 0 || user.Plan != models.PlanFree {
		t.Fatalf("expected fresh account defaults, got %d credits on plan %s", user.CreditPoints, user.Plan)
	}
}

func TestRegisterKeepsApostropheNames(t *testing.T) {
	router := setupTestRouter(t)
	phone := "+912223334445"

	code, err := SharedOTPService().Issue(phone)
	if err != nil {
		t.Fatalf("failed to issue OTP: %v", err)
	}
	if err := SharedOTPService().Verify(phone, code); err != nil {
		t.Fatalf("failed to verify OTP: %v", err)
	}

	w := doJSON(t, router, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"phone_number": phone,
		"name":         "Maria D'Souza",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for apostrophe name, got %d: %s", w.Code, w.Body.String())
	}

	var user models.User
	if err := database.DB.Where("phone_number = ?", phone).First(&user).Error; err != nil {
		t.Fatalf("expected user to exist: %v", err)
	}
	if user.Name != "Maria D'Souza" {
		t.Fatalf("expected name stored as typed, got %q", user.Name)
	}
}

func TestRegisterWithoutVerifiedOTP(t *testing.T) {
	router := setupTestRouter(t)
	phone := "+915556667778"

	// issued but never verified
	if _, err := SharedOTPService().Issue(phone); err != nil {
		t.Fatalf("failed to issue OTP: %v", err)
	}

	w := doJSON(t, router, "POST", "/api/v1/auth/register", "", map[string]interface{}{
		"phone_number": phone,
		"name":         "Ravi Patel",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unverified phone, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyOTPSignsInExistingUser(t *testing.T) {
	router := setupTestRouter(t)
	phone := "+919998887776"
	createTestUser(t, phone, models.RoleEndUser)

	code, err := SharedOTPService().Issue(phone)
	if err != nil {
		t.Fatalf("failed to issue OTP: %v", err)
	}

	w := doJSON(t, router, "POST", "/api/v1/auth/verify-otp", "", map[string]interface{}{
		"phone_number": phone,
		"code":         code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for existing user, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["registration_required"] != false {
		t.Fatalf("expected registration_required false, got %v", body["registration_required"])
	}
	if body["tokens"] == nil {
		t.Fatal("expected token pair for existing user")
	}

	// the code is single use
	w = doJSON(t, router, "POST", "/api/v1/auth/verify-otp", "", map[string]interface{}{
		"phone_number": phone,
		"code":         code,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reused code, got %d", w.Code)
	}
}

func TestGetMeAndRefresh(t *testing.T) {
	router := setupTestRouter(t)
	user := createTestUser(t, "+914443332221", models.RoleEndUser)
	token := accessTokenFor(t, user)

	w := doJSON(t, router, "GET", "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /me, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "GET", "/api/v1/auth/me", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", w.Code)
	}
}
