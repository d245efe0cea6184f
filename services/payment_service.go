package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"aasaan-server/config"
)

const razorpayOrdersURL = "https://api.razorpay.com/v1/orders"

var ErrPaymentNotConfigured = errors.New("payment gateway is not configured")

// RazorpayOrder is the subset of the orders API response we surface
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// PaymentService creates Razorpay orders. This is a parallel code path: the
// boost/subscribe handlers do not wait on gateway state, cash payments are
// assumed to succeed there.
type PaymentService struct {
	client *http.Client
}

// NewPaymentService creates a payment service
func NewPaymentService() *PaymentService {
	return &PaymentService{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder creates a Razorpay order for the given amount in rupees and
// returns the gateway order. Receipt ids are generated locally.
func (ps *PaymentService) CreateOrder(amountRupees int) (*RazorpayOrder, error) {
	keyID := config.AppConfig.Payment.RazorpayKeyID
	keySecret := config.AppConfig.Payment.RazorpayKeySecret
	if keyID == "" || keySecret == "" {
		return nil, ErrPaymentNotConfigured
	}

	payload := map[string]interface{}{
		"amount":   amountRupees * 100, // paise
		"currency": "INR",
		"receipt":  "aasaan_" + uuid.NewString(),
	}

	bodyBytes, _ := json.Marshal(payload)

	req, err := http.NewRequest("POST", razorpayOrdersURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(keyID, keySecret)

	resp, err := ps.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("razorpay order creation failed: %s - %s", resp.Status, string(respBody))
	}

	var order RazorpayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, err
	}

	return &order, nil
}
