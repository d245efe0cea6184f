package routes

import (
	"net/http"
	"testing"

	"aasaan-server/database"
	"aasaan-server/models"
)

func TestBoostWorkRequest(t *testing.T) {
	router := setupTestRouter(t)
	owner := createTestUser(t, "+911212121212", models.RoleEndUser)
	request := seedRequest(t, owner.ID, "plumber")
	token := accessTokenFor(t, owner)

	w := doJSON(t, router, "POST", "/api/v1/payments/boost", token, map[string]interface{}{
		"request_id": request.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on boost, got %d: %s", w.Code, w.Body.String())
	}

	var reloaded models.WorkRequest
	database.DB.First(&reloaded, request.ID)
	if !reloaded.Boosted {
		t.Fatal("expected request to be boosted")
	}

	// boosting is one-way
	w = doJSON(t, router, "POST", "/api/v1/payments/boost", token, map[string]interface{}{
		"request_id": request.ID,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second boost, got %d", w.Code)
	}

	// only the owner can boost
	stranger := createTestUser(t, "+913434343434", models.RoleEndUser)
	other := seedRequest(t, owner.ID, "plumber")
	w = doJSON(t, router, "POST", "/api/v1/payments/boost", accessTokenFor(t, stranger), map[string]interface{}{
		"request_id": other.ID,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-owner boost, got %d", w.Code)
	}

	// providers cannot boost at all
	provider := createTestProvider(t, "+915656565656", []string{"plumber"})
	w = doJSON(t, router, "POST", "/api/v1/payments/boost", accessTokenFor(t, provider), map[string]interface{}{
		"request_id": other.ID,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for provider boost, got %d", w.Code)
	}
}

func TestBoostWithCredits(t *testing.T) {
	router := setupTestRouter(t)
	owner := createTestUser(t, "+917878787878", models.RoleEndUser)
	request := seedRequest(t, owner.ID, "plumber")
	token := accessTokenFor(t, owner)

	// below the 100-point cost the boost is rejected and nothing changes
	database.DB.Model(&models.User{}).Where("id = ?", owner.ID).UpdateColumn("credit_points", 99)
	w := doJSON(t, router, "POST", "/api/v1/payments/boost", token, map[string]interface{}{
		"request_id":  request.ID,
		"use_credits": true,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 with insufficient credits, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "Insufficient credit points" {
		t.Fatalf("expected insufficient credit message, got %v", body["message"])
	}
	var reloaded models.WorkRequest
	database.DB.First(&reloaded, request.ID)
	if reloaded.Boosted {
		t.Fatal("expected request to stay unboosted after rejected payment")
	}

	// at exactly the cost the balance drops to zero
	database.DB.Model(&models.User{}).Where("id = ?", owner.ID).UpdateColumn("credit_points", 100)
	w = doJSON(t, router, "POST", "/api/v1/payments/boost", token, map[string]interface{}{
		"request_id":  request.ID,
		"use_credits": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with sufficient credits, got %d: %s", w.Code, w.Body.String())
	}

	var user models.User
	database.DB.First(&user, owner.ID)
	if user.CreditPoints != 0 {
		t.Fatalf("expected balance 0 after boost, got %d", user.CreditPoints)
	}
}

func TestDeductCreditsPropagatesWriteFailure(t *testing.T) {
	setupTestRouter(t)
	owner := createTestUser(t, "+915675675670", models.RoleEndUser)
	database.DB.Model(&models.User{}).Where("id = ?", owner.ID).UpdateColumn("credit_points", 200)
	database.DB.First(&owner, owner.ID)

	// a failed write must not report a successful payment
	if err := database.DB.Migrator().DropTable(&models.User{}); err != nil {
		t.Fatalf("failed to drop users table: %v", err)
	}

	paid, err := deductCredits(&owner, 100)
	if err == nil {
		t.Fatal("expected an error when the credit write fails")
	}
	if paid {
		t.Fatal("expected paid=false when the credit write fails")
	}
	if owner.CreditPoints != 200 {
		t.Fatalf("expected in-memory balance untouched on failure, got %d", owner.CreditPoints)
	}
}

func TestSubscribePlan(t *testing.T) {
	router := setupTestRouter(t)
	provider := createTestProvider(t, "+919090909090", []string{"plumber"})
	token := accessTokenFor(t, provider)

	// unknown plan
	w := doJSON(t, router, "POST", "/api/v1/payments/subscribe", token, map[string]interface{}{
		"plan": "platinum",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown plan, got %d", w.Code)
	}

	// cash path flips the plan without touching credits
	w = doJSON(t, router, "POST", "/api/v1/payments/subscribe", token, map[string]interface{}{
		"plan": "basic",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on basic subscribe, got %d: %s", w.Code, w.Body.String())
	}
	var user models.User
	database.DB.First(&user, provider.ID)
	if user.Plan != models.PlanBasic {
		t.Fatalf("expected basic plan, got %s", user.Plan)
	}

	// pro costs 200 credit points
	database.DB.Model(&models.User{}).Where("id = ?", provider.ID).UpdateColumn("credit_points", 250)
	w = doJSON(t, router, "POST", "/api/v1/payments/subscribe", token, map[string]interface{}{
		"plan":        "pro",
		"use_credits": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on pro subscribe, got %d: %s", w.Code, w.Body.String())
	}
	database.DB.First(&user, provider.ID)
	if user.Plan != models.PlanPro {
		t.Fatalf("expected pro plan, got %s", user.Plan)
	}
	if user.CreditPoints != 50 {
		t.Fatalf("expected 50 credit points after pro subscribe, got %d", user.CreditPoints)
	}

	// end users cannot subscribe
	endUser := createTestUser(t, "+911313131313", models.RoleEndUser)
	w = doJSON(t, router, "POST", "/api/v1/payments/subscribe", accessTokenFor(t, endUser), map[string]interface{}{
		"plan": "basic",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for end user subscribe, got %d", w.Code)
	}
}
