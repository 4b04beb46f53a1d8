package core

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/store"
)

// EntitlementStore is the slice of the account store the billing adapter
// writes to after a verified payment.
type EntitlementStore interface {
	ApplyEntitlement(accountID int64, tier, orderID, paymentID string, paidAt, subscriptionEnd time.Time) error
}

// OrderCreator is the gateway call the adapter depends on; the Razorpay SDK
// order client satisfies it and tests substitute a stub.
type OrderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Order is what the client needs to open the gateway checkout.
type Order struct {
	OrderID  string `json:"order_id"`
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
	KeyID    string `json:"key_id"`
}

type BillingService struct {
	orders    OrderCreator
	accounts  EntitlementStore
	keyID     string
	keySecret string
	logger    *zap.SugaredLogger
}

func NewBillingService(keyID, keySecret string, accounts EntitlementStore, logger *zap.SugaredLogger) *BillingService {
	client := razorpay.NewClient(keyID, keySecret)
	return &BillingService{
		orders:    client.Order,
		accounts:  accounts,
		keyID:     keyID,
		keySecret: keySecret,
		logger:    logger,
	}
}

// NewBillingServiceWithOrders is used in tests to inject a stub gateway.
func NewBillingServiceWithOrders(orders OrderCreator, keyID, keySecret string, accounts EntitlementStore, logger *zap.SugaredLogger) *BillingService {
	return &BillingService{
		orders:    orders,
		accounts:  accounts,
		keyID:     keyID,
		keySecret: keySecret,
		logger:    logger,
	}
}

func validPlan(plan string) bool {
	return plan == store.TierPro || plan == store.TierEnterprise
}

// CreateOrder creates a gateway order for a checkout attempt. The order is
// transient; nothing is persisted until the payment verifies.
func (s *BillingService) CreateOrder(ctx context.Context, amount int64, currency, receipt, plan string, yearly bool, accountID int64) (*Order, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if !validPlan(plan) {
		return nil, apperr.Validation("a valid plan is required")
	}
	if currency == "" {
		currency = "INR"
	}
	if receipt == "" {
		receipt = "rcpt_" + uuid.NewString()
	}

	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes": map[string]interface{}{
			"plan":       plan,
			"yearly":     fmt.Sprintf("%t", yearly),
			"account_id": fmt.Sprintf("%d", accountID),
		},
	}

	body, err := s.orders.Create(data, nil)
	if err != nil {
		s.logger.Errorw("gateway order creation failed", "account_id", accountID, "error", err)
		return nil, apperr.Upstream("failed to create payment order", err)
	}

	orderID, _ := body["id"].(string)
	if orderID == "" {
		return nil, apperr.Upstream("failed to create payment order", fmt.Errorf("gateway returned no order id"))
	}

	return &Order{
		OrderID:  orderID,
		Currency: currency,
		Amount:   amount,
		KeyID:    s.keyID,
	}, nil
}

// computeSignature recomputes the gateway payment signature:
// HMAC-SHA256(secret, orderID + "|" + paymentID), hex-encoded.
func computeSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayment checks the client-supplied signature against our own HMAC
// over the order and payment ids. Only on a match is the payment trusted:
// the account's tier, payment identifiers, and subscription end date are
// written. Date arithmetic uses time.AddDate, which returns a new value, so
// the yearly and monthly branches cannot contaminate each other.
func (s *BillingService) VerifyPayment(ctx context.Context, orderID, paymentID, signature, plan string, yearly bool, accountID int64) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return apperr.Validation("order id, payment id and signature are required")
	}
	if !validPlan(plan) {
		return apperr.Validation("a valid plan is required")
	}

	expected := computeSignature(s.keySecret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warnw("payment signature mismatch", "account_id", accountID, "order_id", orderID)
		return apperr.Signature("payment signature verification failed")
	}

	now := time.Now()
	var subscriptionEnd time.Time
	if yearly {
		subscriptionEnd = now.AddDate(1, 0, 0)
	} else {
		subscriptionEnd = now.AddDate(0, 1, 0)
	}

	if err := s.accounts.ApplyEntitlement(accountID, plan, orderID, paymentID, now, subscriptionEnd); err != nil {
		return err
	}

	s.logger.Infow("payment verified", "account_id", accountID, "plan", plan, "yearly", yearly)
	return nil
}
