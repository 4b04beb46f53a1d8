package core

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/store"
)

type stubOrders struct {
	lastData map[string]interface{}
	response map[string]interface{}
	err      error
}

func (s *stubOrders) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	s.lastData = data
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

type fakeEntitlements struct {
	accountID       int64
	tier            string
	orderID         string
	paymentID       string
	paidAt          time.Time
	subscriptionEnd time.Time
	applied         bool
}

func (f *fakeEntitlements) ApplyEntitlement(accountID int64, tier, orderID, paymentID string, paidAt, subscriptionEnd time.Time) error {
	f.accountID = accountID
	f.tier = tier
	f.orderID = orderID
	f.paymentID = paymentID
	f.paidAt = paidAt
	f.subscriptionEnd = subscriptionEnd
	f.applied = true
	return nil
}

const testSecret = "test_key_secret"

func newTestBillingService(orders *stubOrders, entitlements *fakeEntitlements) *BillingService {
	return NewBillingServiceWithOrders(orders, "rzp_test_key", testSecret, entitlements, zap.NewNop().Sugar())
}

func signOrder(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrder(t *testing.T) {
	orders := &stubOrders{response: map[string]interface{}{"id": "order_abc123"}}
	svc := newTestBillingService(orders, &fakeEntitlements{})

	order, err := svc.CreateOrder(context.Background(), 49900, "INR", "rcpt_1", store.TierPro, false, 7)
	require.NoError(t, err)
	assert.Equal(t, "order_abc123", order.OrderID)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, "rzp_test_key", order.KeyID)
	assert.Equal(t, int64(49900), orders.lastData["amount"])
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newTestBillingService(&stubOrders{}, &fakeEntitlements{})

	_, err := svc.CreateOrder(context.Background(), 0, "INR", "", store.TierPro, false, 7)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreateOrder(context.Background(), 100, "INR", "", "platinum", false, 7)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	orders := &stubOrders{err: errors.New("gateway unreachable")}
	svc := newTestBillingService(orders, &fakeEntitlements{})

	_, err := svc.CreateOrder(context.Background(), 100, "INR", "", store.TierPro, false, 7)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestVerifyPaymentSignature(t *testing.T) {
	entitlements := &fakeEntitlements{}
	svc := newTestBillingService(&stubOrders{}, entitlements)

	sig := signOrder("order_1", "pay_1")
	err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", sig, store.TierPro, false, 7)
	require.NoError(t, err)
	assert.True(t, entitlements.applied)
	assert.Equal(t, store.TierPro, entitlements.tier)
	assert.Equal(t, "order_1", entitlements.orderID)
	assert.Equal(t, "pay_1", entitlements.paymentID)
}

func TestVerifyPaymentRejectsMutatedIDs(t *testing.T) {
	sig := signOrder("order_1", "pay_1")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
	}{
		{"mutated order id", "order_2", "pay_1", sig},
		{"mutated payment id", "order_1", "pay_2", sig},
		{"mutated signature", "order_1", "pay_1", sig[:len(sig)-1] + "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entitlements := &fakeEntitlements{}
			svc := newTestBillingService(&stubOrders{}, entitlements)

			err := svc.VerifyPayment(context.Background(), tt.orderID, tt.paymentID, tt.signature, store.TierPro, false, 7)
			require.Error(t, err)
			assert.Equal(t, apperr.KindSignature, apperr.KindOf(err))
			assert.False(t, entitlements.applied, "payment must not be trusted on mismatch")
		})
	}
}

func TestVerifyPaymentSubscriptionEnd(t *testing.T) {
	t.Run("monthly", func(t *testing.T) {
		entitlements := &fakeEntitlements{}
		svc := newTestBillingService(&stubOrders{}, entitlements)

		sig := signOrder("order_m", "pay_m")
		require.NoError(t, svc.VerifyPayment(context.Background(), "order_m", "pay_m", sig, store.TierPro, false, 7))
		assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), entitlements.subscriptionEnd, time.Minute)
	})

	t.Run("yearly", func(t *testing.T) {
		entitlements := &fakeEntitlements{}
		svc := newTestBillingService(&stubOrders{}, entitlements)

		sig := signOrder("order_y", "pay_y")
		require.NoError(t, svc.VerifyPayment(context.Background(), "order_y", "pay_y", sig, store.TierEnterprise, true, 7))
		assert.WithinDuration(t, time.Now().AddDate(1, 0, 0), entitlements.subscriptionEnd, time.Minute)
	})
}

func TestComputeSignatureGoldenValue(t *testing.T) {
	// Independently derived digest for HMAC-SHA256("secret", "order_1|pay_1")
	got := computeSignature("secret", "order_1", "pay_1")

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("order_1|pay_1"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), got)
	assert.Len(t, got, 64)
}
